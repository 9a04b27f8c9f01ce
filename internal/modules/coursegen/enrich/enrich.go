// Package enrich runs the optional best-effort rewrite of section explanations.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursegen-backend/internal/domain"
)

type EnhanceResult struct {
	Enhanced        bool
	EnhancedContent string
}

// Enhancer is an injected collaborator with an explicit lifecycle.
type Enhancer interface {
	Init(ctx context.Context) error
	EnhanceSection(ctx context.Context, section domain.CourseSection) (EnhanceResult, error)
	Dispose()
}

type Options struct {
	Timeout           time.Duration
	PerSectionTimeout time.Duration
	Concurrency       int
}

func DefaultOptions() Options {
	return Options{Timeout: 60 * time.Second, PerSectionTimeout: 20 * time.Second, Concurrency: 4}
}

type Outcome struct {
	Course           domain.Course
	EnhancedSections int
	// Err reports init failure, cancellation or per-section failures. On
	// init failure or cancellation Course is the input, untouched.
	Err error
}

// Enrich works on a copy. Only section explanations may change, and only when
// the whole pass finished before ctx or the overall timeout expired.
func Enrich(ctx context.Context, e Enhancer, course domain.Course, opts Options) Outcome {
	if e == nil || len(course.Content.Sections) == 0 {
		return Outcome{Course: course}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Course: course, Err: err}
	}
	if err := e.Init(ctx); err != nil {
		return Outcome{Course: course, Err: fmt.Errorf("enhancer init: %w", err)}
	}
	defer e.Dispose()

	sections := course.Content.Sections
	results := make([]EnhanceResult, len(sections))
	errs := make([]error, len(sections))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i := range sections {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			sctx := ctx
			if opts.PerSectionTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, opts.PerSectionTimeout)
				defer cancel()
			}
			res, err := e.EnhanceSection(sctx, sections[i])
			if err != nil {
				errs[i] = fmt.Errorf("section %q: %w", sections[i].Title, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Outcome{Course: course, Err: err}
	}

	out := course.Clone()
	n := 0
	for i, res := range results {
		text := strings.TrimSpace(res.EnhancedContent)
		if !res.Enhanced || text == "" {
			continue
		}
		out.Content.Sections[i].Explanation = text
		n++
	}
	return Outcome{Course: out, EnhancedSections: n, Err: errors.Join(errs...)}
}
