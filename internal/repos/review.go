package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

// ReviewRepo is read-only: review rows are produced by the ingestion
// connectors, never by the scoring core.
type ReviewRepo interface {
	ListForPeriod(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, start, end time.Time) ([]*domain.Review, error)
	CountForPeriod(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, start, end time.Time) (int64, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

// ListForPeriod returns the scoring input set: all live reviews for the
// tenant with review_date in [start, end).
func (r *reviewRepo) ListForPeriod(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, start, end time.Time) ([]*domain.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Review
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND review_date >= ? AND review_date < ?", tenantID, start, end).
		Order("review_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) CountForPeriod(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, start, end time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(&domain.Review{}).
		Where("tenant_id = ? AND review_date >= ? AND review_date < ?", tenantID, start, end).
		Count(&n).Error
	return n, err
}
