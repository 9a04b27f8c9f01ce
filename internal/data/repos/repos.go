package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursegen-backend/internal/data/repos/generation"
	"github.com/yungbote/coursegen-backend/internal/data/repos/norms"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type GenerationRunRepo = generation.GenerationRunRepo
type NormRepo = norms.NormRepo

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
	return generation.NewGenerationRunRepo(db, baseLog)
}

func NewNormRepo(db *gorm.DB, baseLog *logger.Logger) NormRepo {
	return norms.NewNormRepo(db, baseLog)
}
