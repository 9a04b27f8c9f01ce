package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/coursegen-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Generation history
		// =========================
		&types.GenerationRun{},

		// =========================
		// Norm corpus store
		// =========================
		&types.NormRecord{},
		&types.NormRuleRecord{},
	); err != nil {
		return err
	}

	// History listing is always newest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_generation_run_created
		ON generation_run (created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_generation_run_created: %w", err)
	}

	// Rules are read back per norm in corpus order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_norm_rule_norm_position
		ON norm_rule (norm_id, position);
	`).Error; err != nil {
		return fmt.Errorf("create idx_norm_rule_norm_position: %w", err)
	}
	return nil
}
