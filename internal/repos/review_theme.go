package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

// ThemeMention is a review_theme row joined with the review's date, the unit
// the fix-score window queries work on.
type ThemeMention struct {
	ReviewID   uuid.UUID `gorm:"column:review_id"`
	ThemeID    uuid.UUID `gorm:"column:theme_id"`
	Sentiment  string    `gorm:"column:sentiment"`
	ReviewDate time.Time `gorm:"column:review_date"`
}

// ReviewThemeRepo is read-only: theme mentions arrive from the upstream
// tagging pipeline together with the reviews.
type ReviewThemeRepo interface {
	ListByReviewIDs(ctx context.Context, tx *gorm.DB, reviewIDs []uuid.UUID) ([]*domain.ReviewTheme, error)
	ListMentionsInWindow(ctx context.Context, tx *gorm.DB, tenantID, themeID uuid.UUID, start, end time.Time, includeEnd bool) ([]ThemeMention, error)
}

type reviewThemeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewThemeRepo(db *gorm.DB, baseLog *logger.Logger) ReviewThemeRepo {
	return &reviewThemeRepo{db: db, log: baseLog.With("repo", "ReviewThemeRepo")}
}

func (r *reviewThemeRepo) ListByReviewIDs(ctx context.Context, tx *gorm.DB, reviewIDs []uuid.UUID) ([]*domain.ReviewTheme, error) {
	if len(reviewIDs) == 0 {
		return nil, nil
	}
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ReviewTheme
	err := transaction.WithContext(ctx).
		Where("review_id IN ?", reviewIDs).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMentionsInWindow returns every mention of the theme whose review falls
// in the window, soft-deleted reviews excluded. The start bound is inclusive;
// includeEnd selects [start, end] over [start, end) so adjacent windows can
// split the boundary instant without double counting it.
func (r *reviewThemeRepo) ListMentionsInWindow(ctx context.Context, tx *gorm.DB, tenantID, themeID uuid.UUID, start, end time.Time, includeEnd bool) ([]ThemeMention, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	endOp := "<"
	if includeEnd {
		endOp = "<="
	}
	var out []ThemeMention
	err := transaction.WithContext(ctx).
		Table("review_theme").
		Select("review_theme.review_id, review_theme.theme_id, review_theme.sentiment, review.review_date").
		Joins("JOIN review ON review.id = review_theme.review_id").
		Where("review.tenant_id = ? AND review_theme.theme_id = ?", tenantID, themeID).
		Where("review.review_date >= ? AND review.review_date "+endOp+" ?", start, end).
		Where("review.deleted_at IS NULL").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
