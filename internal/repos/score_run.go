package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type ScoreRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.ScoreRun) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ScoreRun, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, limit int) ([]*domain.ScoreRun, error)
	CountRunning(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error)
	GetLatestCompleted(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*domain.ScoreRun, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, reviewsProcessed, themesProcessed int) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errMsg string) error
	LockTenantRuns(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error
}

type scoreRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreRunRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRunRepo {
	return &scoreRunRepo{db: db, log: baseLog.With("repo", "ScoreRunRepo")}
}

func (r *scoreRunRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.ScoreRun) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.StartedAt.IsZero() {
		row.StartedAt = now
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *scoreRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ScoreRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.ScoreRun
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
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

func (r *scoreRunRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, limit int) ([]*domain.ScoreRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*domain.ScoreRun
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scoreRunRepo) CountRunning(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(&domain.ScoreRun{}).
		Where("tenant_id = ? AND status = ?", tenantID, domain.RunStatusRunning).
		Count(&n).Error
	return n, err
}

func (r *scoreRunRepo) GetLatestCompleted(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*domain.ScoreRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row domain.ScoreRun
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, domain.RunStatusCompleted).
		Order("completed_at DESC").
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

func (r *scoreRunRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, reviewsProcessed, themesProcessed int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&domain.ScoreRun{}).
		Where("id = ? AND status = ?", id, domain.RunStatusRunning).
		Updates(map[string]interface{}{
			"status":            domain.RunStatusCompleted,
			"reviews_processed": reviewsProcessed,
			"themes_processed":  themesProcessed,
			"completed_at":      now,
			"updated_at":        now,
		}).Error
}

func (r *scoreRunRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errMsg string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&domain.ScoreRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.RunStatusFailed,
			"error_message": errMsg,
			"completed_at":  now,
			"updated_at":    now,
		}).Error
}

// LockTenantRuns serializes run creation per tenant so the one-RUNNING-run
// guard cannot race. Advisory lock on Postgres, no-op elsewhere.
func (r *scoreRunRepo) LockTenantRuns(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if transaction.Dialector.Name() != "postgres" {
		return nil
	}
	return transaction.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "score_run:"+tenantID.String()).Error
}
