package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type ThemeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.Theme) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Theme, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*domain.Theme, error)
}

type themeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThemeRepo(db *gorm.DB, baseLog *logger.Logger) ThemeRepo {
	return &themeRepo{db: db, log: baseLog.With("repo", "ThemeRepo")}
}

func (r *themeRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.Theme) error {
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
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *themeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Theme, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Theme
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

func (r *themeRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*domain.Theme, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Theme
	err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("key ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
