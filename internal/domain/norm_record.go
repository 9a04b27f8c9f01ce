package domain

import (
	"time"

	"gorm.io/datatypes"
)

// NormRecord stores a norm's header and sommaire tree.
type NormRecord struct {
	NormID    string         `gorm:"column:norm_id;primaryKey" json:"norm_id"`
	Title     string         `gorm:"column:title" json:"title"`
	Sommaire  datatypes.JSON `gorm:"column:sommaire" json:"sommaire"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (NormRecord) TableName() string { return "norm" }

// NormRuleRecord stores one rule; Position keeps corpus order across the round trip.
type NormRuleRecord struct {
	NormID    string         `gorm:"column:norm_id;primaryKey" json:"norm_id"`
	RuleID    string         `gorm:"column:rule_id;primaryKey" json:"rule_id"`
	Position  int            `gorm:"column:position;not null;index" json:"position"`
	Titre     string         `gorm:"column:titre" json:"titre"`
	Article   string         `gorm:"column:article;index" json:"article"`
	Content   string         `gorm:"column:content;type:text" json:"content"`
	Page      int            `gorm:"column:page" json:"page"`
	Category  string         `gorm:"column:category" json:"category,omitempty"`
	Keywords  datatypes.JSON `gorm:"column:keywords" json:"keywords"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (NormRuleRecord) TableName() string { return "norm_rule" }
