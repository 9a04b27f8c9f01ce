package app

import (
	"context"
	"fmt"

	"github.com/yungbote/coursegen-backend/internal/modules/coursegen"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/enrich"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/normmatch"
	"github.com/yungbote/coursegen-backend/internal/normcorpus"
	"github.com/yungbote/coursegen-backend/internal/observability"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type Services struct {
	Norms     *normcorpus.Registry
	Matcher   *normmatch.Matcher
	CourseGen *coursegen.Service
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	reg, err := loadNorms(ctx, log, cfg, reposet)
	if err != nil {
		return Services{}, err
	}
	matcher := normmatch.New(reg)

	var enhancer enrich.Enhancer
	if clients.OpenAI != nil {
		enhancer = enrich.NewOpenAIEnhancer(clients.OpenAI, cfg.OpenAI.Model, metrics)
	}

	svc, err := coursegen.NewService(coursegen.ServiceDeps{
		Log:           log,
		Generator:     coursegen.NewGenerator(matcher),
		Cache:         clients.Cache,
		CacheTTL:      cfg.CacheTTL,
		Runs:          reposet.Runs,
		Enhancer:      enhancer,
		EnrichOptions: cfg.Enrich,
		Metrics:       metrics,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init course generation service: %w", err)
	}
	return Services{Norms: reg, Matcher: matcher, CourseGen: svc}, nil
}

// loadNorms reads corpus files and mirrors them into the database when one is
// configured. Without a norms directory the database copy is authoritative.
func loadNorms(ctx context.Context, log *logger.Logger, cfg Config, reposet Repos) (*normcorpus.Registry, error) {
	if cfg.NormsDir == "" {
		if reposet.Norms == nil {
			log.Warn("no norm corpus configured; generation will use no rules")
			return normcorpus.Empty(), nil
		}
		reg, err := normcorpus.LoadFromRepo(ctx, reposet.Norms)
		if err != nil {
			return nil, fmt.Errorf("load norms from database: %w", err)
		}
		log.Info("norm corpus loaded from database", "norms", reg.Len())
		return reg, nil
	}

	reg, err := normcorpus.LoadDir(cfg.NormsDir)
	if err != nil {
		return nil, fmt.Errorf("load norms from %s: %w", cfg.NormsDir, err)
	}
	if reposet.Norms != nil {
		if err := normcorpus.SeedRepo(ctx, reposet.Norms, reg); err != nil {
			log.Warn("seeding norm corpus failed (continuing)", "error", err)
		}
	}
	log.Info("norm corpus loaded", "dir", cfg.NormsDir, "norms", reg.Len(), "ids", reg.IDs())
	return reg, nil
}
