package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GenerationRun is the persisted history entry for one generation call.
type GenerationRun struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID         string         `gorm:"column:course_id;not null;index" json:"course_id"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	ActiveNormID     string         `gorm:"column:active_norm_id;index" json:"active_norm_id,omitempty"`
	InputDigest      string         `gorm:"column:input_digest;index" json:"input_digest"`
	RequestID        string         `gorm:"column:request_id;index" json:"request_id,omitempty"`
	Origin           string         `gorm:"column:origin" json:"origin,omitempty"`
	Settings         datatypes.JSON `gorm:"column:settings" json:"settings"`
	Result           datatypes.JSON `gorm:"column:result" json:"result"`
	NormRulesUsed    int            `gorm:"column:norm_rules_used;not null;default:0" json:"norm_rules_used"`
	GeneratedWithAI  bool           `gorm:"column:generated_with_ai;not null;default:false" json:"generated_with_ai"`
	ProcessingTimeMs int64          `gorm:"column:processing_time_ms;not null;default:0" json:"processing_time_ms"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GenerationRun) TableName() string { return "generation_run" }

func (r *GenerationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
