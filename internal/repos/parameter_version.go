package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

type ParameterVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.ParameterSetVersion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ParameterSetVersion, error)
	GetActive(ctx context.Context, tx *gorm.DB, lineage string) (*domain.ParameterSetVersion, error)
	NextVersionNumber(ctx context.Context, tx *gorm.DB, lineage string) (int, error)
	List(ctx context.Context, tx *gorm.DB, lineage string, status string) ([]*domain.ParameterSetVersion, error)
	UpdateDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string, payload []byte) error
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, activatedAt *time.Time) error
	ArchiveActive(ctx context.Context, tx *gorm.DB, lineage string) error
	DeleteDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	LockLineage(ctx context.Context, tx *gorm.DB, lineage string) error
}

type parameterVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParameterVersionRepo(db *gorm.DB, baseLog *logger.Logger) ParameterVersionRepo {
	return &parameterVersionRepo{db: db, log: baseLog.With("repo", "ParameterVersionRepo")}
}

func (r *parameterVersionRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.ParameterSetVersion) error {
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

func (r *parameterVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ParameterSetVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.ParameterSetVersion
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

func (r *parameterVersionRepo) GetActive(ctx context.Context, tx *gorm.DB, lineage string) (*domain.ParameterSetVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row domain.ParameterSetVersion
	err := transaction.WithContext(ctx).
		Where("lineage = ? AND status = ?", lineage, domain.VersionStatusActive).
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

func (r *parameterVersionRepo) NextVersionNumber(ctx context.Context, tx *gorm.DB, lineage string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var maxVersion int
	err := transaction.WithContext(ctx).
		Model(&domain.ParameterSetVersion{}).
		Where("lineage = ?", lineage).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func (r *parameterVersionRepo) List(ctx context.Context, tx *gorm.DB, lineage string, status string) ([]*domain.ParameterSetVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("lineage = ?", lineage)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*domain.ParameterSetVersion
	if err := q.Order("version_number DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *parameterVersionRepo) UpdateDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string, payload []byte) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"payload":    payload,
		"updated_at": time.Now().UTC(),
	}
	if name != "" {
		updates["name"] = name
	}
	return transaction.WithContext(ctx).
		Model(&domain.ParameterSetVersion{}).
		Where("id = ? AND status = ?", id, domain.VersionStatusDraft).
		Updates(updates).Error
}

func (r *parameterVersionRepo) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, activatedAt *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if activatedAt != nil {
		updates["activated_at"] = *activatedAt
	}
	return transaction.WithContext(ctx).
		Model(&domain.ParameterSetVersion{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *parameterVersionRepo) ArchiveActive(ctx context.Context, tx *gorm.DB, lineage string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&domain.ParameterSetVersion{}).
		Where("lineage = ? AND status = ?", lineage, domain.VersionStatusActive).
		Updates(map[string]interface{}{
			"status":     domain.VersionStatusArchived,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *parameterVersionRepo) DeleteDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.VersionStatusDraft).
		Delete(&domain.ParameterSetVersion{}).Error
}

// LockLineage serializes activation per lineage. On Postgres this takes a
// transaction-scoped advisory lock; sqlite serializes writers on its own.
func (r *parameterVersionRepo) LockLineage(ctx context.Context, tx *gorm.DB, lineage string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if transaction.Dialector.Name() != "postgres" {
		return nil
	}
	return transaction.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "parameter_set_version:"+lineage).Error
}
