package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type FixScoreRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *domain.FixScore) error
	GetByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*domain.FixScore, error)
	ListByTheme(ctx context.Context, tx *gorm.DB, themeID uuid.UUID) ([]*domain.FixScore, error)
}

type fixScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFixScoreRepo(db *gorm.DB, baseLog *logger.Logger) FixScoreRepo {
	return &fixScoreRepo{db: db, log: baseLog.With("repo", "FixScoreRepo")}
}

// Upsert keeps one row per task. Recomputation overwrites the prior estimate
// in place.
func (r *fixScoreRepo) Upsert(ctx context.Context, tx *gorm.DB, row *domain.FixScore) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"theme_id",
				"delta_s",
				"fix_score",
				"confidence_level",
				"review_count_pre",
				"review_count_post",
				"measurement_start",
				"measurement_end",
				"computed_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *fixScoreRepo) GetByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*domain.FixScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if taskID == uuid.Nil {
		return nil, nil
	}
	var row domain.FixScore
	err := transaction.WithContext(ctx).
		Where("task_id = ?", taskID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *fixScoreRepo) ListByTheme(ctx context.Context, tx *gorm.DB, themeID uuid.UUID) ([]*domain.FixScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.FixScore
	err := transaction.WithContext(ctx).
		Where("theme_id = ?", themeID).
		Order("computed_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
