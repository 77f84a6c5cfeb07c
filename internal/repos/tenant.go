package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type TenantRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.Tenant) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Tenant, error)
	CreateLocation(ctx context.Context, tx *gorm.DB, row *domain.Location) error
	ListLocations(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*domain.Location, error)
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return &tenantRepo{db: db, log: baseLog.With("repo", "TenantRepo")}
}

func (r *tenantRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.Tenant) error {
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

func (r *tenantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Tenant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Tenant
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

func (r *tenantRepo) CreateLocation(ctx context.Context, tx *gorm.DB, row *domain.Location) error {
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

func (r *tenantRepo) ListLocations(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*domain.Location, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Location
	err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
