package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursegen-backend/internal/data/repos"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type Repos struct {
	Runs  repos.GenerationRunRepo
	Norms repos.NormRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	if db == nil {
		return Repos{}
	}
	log.Info("Wiring repos...")
	return Repos{
		Runs:  repos.NewGenerationRunRepo(db, log),
		Norms: repos.NewNormRepo(db, log),
	}
}
