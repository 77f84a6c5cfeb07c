package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type ThemeScoreRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*domain.ThemeScore) error
	ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*domain.ThemeScore, error)
	ListByRunBySeverity(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*domain.ThemeScore, error)
}

type themeScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThemeScoreRepo(db *gorm.DB, baseLog *logger.Logger) ThemeScoreRepo {
	return &themeScoreRepo{db: db, log: baseLog.With("repo", "ThemeScoreRepo")}
}

func (r *themeScoreRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*domain.ThemeScore) error {
	if len(rows) == 0 {
		return nil
	}
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	return transaction.WithContext(ctx).CreateInBatches(rows, 500).Error
}

func (r *themeScoreRepo) ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*domain.ThemeScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ThemeScore
	err := transaction.WithContext(ctx).
		Where("run_id = ?", runID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByRunBySeverity orders worst themes first, the priority view the
// dashboard renders.
func (r *themeScoreRepo) ListByRunBySeverity(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*domain.ThemeScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ThemeScore
	err := transaction.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("severity DESC, mention_count DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
