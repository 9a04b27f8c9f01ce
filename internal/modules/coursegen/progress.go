package coursegen

import (
	"strings"
	"sync"
	"time"
)

// ProgressFunc receives coarse milestones: extract 10, analyze 30, generate
// 70, enrich 90, done 100.
type ProgressFunc func(stage string, pct int, message string)

const (
	ProgressExtract  = 10
	ProgressAnalyze  = 30
	ProgressGenerate = 70
	ProgressEnrich   = 90
	ProgressDone     = 100
)

type progressReporter struct {
	report      ProgressFunc
	minInterval time.Duration
	lastPct     int
	lastStage   string
	lastMsg     string
	lastAt      time.Time
	mu          sync.Mutex
}

func newProgressReporter(report ProgressFunc, minInterval time.Duration) *progressReporter {
	if minInterval <= 0 {
		minInterval = 250 * time.Millisecond
	}
	return &progressReporter{report: report, minInterval: minInterval}
}

// Update never moves backwards and drops repeats inside minInterval.
func (p *progressReporter) Update(stage string, pct int, msg string) {
	if p == nil || p.report == nil {
		return
	}
	if pct < 0 {
		pct = 0
	}
	if pct > ProgressDone {
		pct = ProgressDone
	}
	now := time.Now()
	p.mu.Lock()
	if pct < p.lastPct {
		pct = p.lastPct
	}
	if strings.TrimSpace(msg) == "" {
		msg = p.lastMsg
	}
	if pct == p.lastPct && stage == p.lastStage && msg == p.lastMsg && !p.lastAt.IsZero() && now.Sub(p.lastAt) < p.minInterval {
		p.mu.Unlock()
		return
	}
	p.lastPct = pct
	p.lastStage = stage
	p.lastMsg = msg
	p.lastAt = now
	p.mu.Unlock()
	p.report(stage, pct, msg)
}
