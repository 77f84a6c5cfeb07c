package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type ReviewScoreRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*domain.ReviewScore) error
	ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*domain.ReviewScore, error)
	GetByRunAndReview(ctx context.Context, tx *gorm.DB, runID, reviewID uuid.UUID) (*domain.ReviewScore, error)
}

type reviewScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewScoreRepo(db *gorm.DB, baseLog *logger.Logger) ReviewScoreRepo {
	return &reviewScoreRepo{db: db, log: baseLog.With("repo", "ReviewScoreRepo")}
}

func (r *reviewScoreRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*domain.ReviewScore) error {
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

func (r *reviewScoreRepo) ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*domain.ReviewScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ReviewScore
	err := transaction.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewScoreRepo) GetByRunAndReview(ctx context.Context, tx *gorm.DB, runID, reviewID uuid.UUID) (*domain.ReviewScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row domain.ReviewScore
	err := transaction.WithContext(ctx).
		Where("run_id = ? AND review_id = ?", runID, reviewID).
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
