package norms

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type NormRepo interface {
	// UpsertCorpus replaces a norm header and all of its rules in one transaction.
	UpsertCorpus(ctx context.Context, tx *gorm.DB, norm *types.NormRecord, rules []*types.NormRuleRecord) error
	ListNorms(ctx context.Context, tx *gorm.DB) ([]*types.NormRecord, error)
	GetRules(ctx context.Context, tx *gorm.DB, normID string) ([]*types.NormRuleRecord, error)
}

type normRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNormRepo(db *gorm.DB, baseLog *logger.Logger) NormRepo {
	repoLog := baseLog.With("repo", "NormRepo")
	return &normRepo{db: db, log: repoLog}
}

func (r *normRepo) UpsertCorpus(ctx context.Context, tx *gorm.DB, norm *types.NormRecord, rules []*types.NormRuleRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if norm == nil || norm.NormID == "" {
		return nil
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if norm.CreatedAt.IsZero() {
			norm.CreatedAt = now
		}
		norm.UpdatedAt = now
		if err := txx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "norm_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "sommaire", "updated_at"}),
		}).Create(norm).Error; err != nil {
			return err
		}
		if err := txx.Where("norm_id = ?", norm.NormID).Delete(&types.NormRuleRecord{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		for i, rule := range rules {
			rule.NormID = norm.NormID
			rule.Position = i
			rule.CreatedAt = now
			rule.UpdatedAt = now
		}
		return txx.CreateInBatches(rules, 200).Error
	})
}

func (r *normRepo) ListNorms(ctx context.Context, tx *gorm.DB) ([]*types.NormRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.NormRecord
	if err := transaction.WithContext(ctx).Order("norm_id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *normRepo) GetRules(ctx context.Context, tx *gorm.DB, normID string) ([]*types.NormRuleRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.NormRuleRecord
	if normID == "" {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("norm_id = ?", normID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
