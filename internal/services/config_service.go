package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/repos"
	"github.com/fixloop/fixloop-backend/internal/scoring/config"
	"github.com/fixloop/fixloop-backend/internal/seed"
)

// ConfigVersion is the category-neutral view of a parameter or rule set
// version returned by the configuration store.
type ConfigVersion struct {
	ID            uuid.UUID       `json:"id"`
	Lineage       string          `json:"lineage"`
	VersionNumber int             `json:"version_number"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ActivatedAt   *time.Time      `json:"activated_at,omitempty"`
}

// ActivationResult pairs the newly ACTIVE version with the changelog diff
// against the version it replaced.
type ActivationResult struct {
	Version   *ConfigVersion       `json:"version"`
	Changelog []config.FieldChange `json:"changelog"`
}

// ConfigService runs the DRAFT -> ACTIVE -> ARCHIVED workflow for both
// config categories. All mutations validate the payload before touching the
// database; activation swaps the ACTIVE pointer in one transaction under a
// per-lineage lock.
type ConfigService interface {
	CreateDraft(ctx context.Context, category, name string, baseVersionID *uuid.UUID) (*ConfigVersion, error)
	UpdateDraft(ctx context.Context, category string, id uuid.UUID, name string, payload []byte) (*ConfigVersion, error)
	Activate(ctx context.Context, category string, id uuid.UUID) (*ActivationResult, error)
	DeleteDraft(ctx context.Context, category string, id uuid.UUID) error
	List(ctx context.Context, category, status string) ([]*ConfigVersion, error)
	Get(ctx context.Context, category string, id uuid.UUID) (*ConfigVersion, error)
	Diff(ctx context.Context, category string, aID, bID uuid.UUID) ([]config.FieldChange, error)
}

type configService struct {
	paramRepo repos.ParameterVersionRepo
	ruleRepo  repos.RuleSetVersionRepo
	txRunner  TxRunner
	log       *logger.Logger
}

func NewConfigService(
	paramRepo repos.ParameterVersionRepo,
	ruleRepo repos.RuleSetVersionRepo,
	txRunner TxRunner,
	baseLog *logger.Logger,
) ConfigService {
	return &configService{
		paramRepo: paramRepo,
		ruleRepo:  ruleRepo,
		txRunner:  txRunner,
		log:       baseLog.With("service", "ConfigService"),
	}
}

func validateCategory(op, category string) error {
	switch category {
	case domain.ConfigCategoryParameters, domain.ConfigCategoryRules:
		return nil
	default:
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("unknown config category %q", category), nil)
	}
}

func validatePayload(op, category string, payload []byte) error {
	var err error
	switch category {
	case domain.ConfigCategoryParameters:
		_, err = config.ParseParameters(payload)
	case domain.ConfigCategoryRules:
		_, err = config.ParseRuleSet(payload)
	default:
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("unknown config category %q", category), nil)
	}
	return err
}

func paramView(row *domain.ParameterSetVersion) *ConfigVersion {
	if row == nil {
		return nil
	}
	return &ConfigVersion{
		ID:            row.ID,
		Lineage:       row.Lineage,
		VersionNumber: row.VersionNumber,
		Name:          row.Name,
		Status:        row.Status,
		Payload:       json.RawMessage(row.Payload),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		ActivatedAt:   row.ActivatedAt,
	}
}

func ruleView(row *domain.RuleSetVersion) *ConfigVersion {
	if row == nil {
		return nil
	}
	return &ConfigVersion{
		ID:            row.ID,
		Lineage:       row.Lineage,
		VersionNumber: row.VersionNumber,
		Name:          row.Name,
		Status:        row.Status,
		Payload:       json.RawMessage(row.Payload),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		ActivatedAt:   row.ActivatedAt,
	}
}

func defaultPayload(category string) ([]byte, error) {
	if category == domain.ConfigCategoryParameters {
		return seed.DefaultParameterPayload()
	}
	return seed.DefaultRuleSetPayload()
}

// CreateDraft seeds a new draft from an explicit base version, the current
// ACTIVE version, or the built-in defaults, in that order of preference.
func (s *configService) CreateDraft(ctx context.Context, category, name string, baseVersionID *uuid.UUID) (*ConfigVersion, error) {
	const op = "ConfigService.CreateDraft"
	if err := validateCategory(op, category); err != nil {
		return nil, err
	}
	if name == "" {
		name = "draft"
	}

	var out *ConfigVersion
	err := s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		payload, err := s.draftBasePayload(ctx, tx, op, category, baseVersionID)
		if err != nil {
			return err
		}
		if category == domain.ConfigCategoryParameters {
			n, err := s.paramRepo.NextVersionNumber(ctx, tx, domain.DefaultLineage)
			if err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
			row := &domain.ParameterSetVersion{
				Lineage:       domain.DefaultLineage,
				VersionNumber: n,
				Name:          name,
				Payload:       datatypes.JSON(payload),
				Status:        domain.VersionStatusDraft,
			}
			if err := s.paramRepo.Create(ctx, tx, row); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
			out = paramView(row)
			return nil
		}
		n, err := s.ruleRepo.NextVersionNumber(ctx, tx, domain.DefaultLineage)
		if err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		row := &domain.RuleSetVersion{
			Lineage:       domain.DefaultLineage,
			VersionNumber: n,
			Name:          name,
			Payload:       datatypes.JSON(payload),
			Status:        domain.VersionStatusDraft,
		}
		if err := s.ruleRepo.Create(ctx, tx, row); err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		out = ruleView(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Draft created", "category", category, "version_id", out.ID, "version_number", out.VersionNumber)
	return out, nil
}

func (s *configService) draftBasePayload(ctx context.Context, tx *gorm.DB, op, category string, baseVersionID *uuid.UUID) ([]byte, error) {
	if baseVersionID != nil {
		base, err := s.Get(ctx, category, *baseVersionID)
		if err != nil {
			return nil, err
		}
		if base == nil {
			return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("base version %s not found", baseVersionID), nil)
		}
		return []byte(base.Payload), nil
	}
	if category == domain.ConfigCategoryParameters {
		active, err := s.paramRepo.GetActive(ctx, tx, domain.DefaultLineage)
		if err != nil {
			return nil, domain.Wrap(domain.CodeInternal, op, err)
		}
		if active != nil {
			return []byte(active.Payload), nil
		}
	} else {
		active, err := s.ruleRepo.GetActive(ctx, tx, domain.DefaultLineage)
		if err != nil {
			return nil, domain.Wrap(domain.CodeInternal, op, err)
		}
		if active != nil {
			return []byte(active.Payload), nil
		}
	}
	payload, err := defaultPayload(category)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return payload, nil
}

// UpdateDraft replaces a draft's payload after validation. Non-DRAFT
// versions are immutable.
func (s *configService) UpdateDraft(ctx context.Context, category string, id uuid.UUID, name string, payload []byte) (*ConfigVersion, error) {
	const op = "ConfigService.UpdateDraft"
	if err := validateCategory(op, category); err != nil {
		return nil, err
	}
	if err := validatePayload(op, category, payload); err != nil {
		return nil, err
	}

	var out *ConfigVersion
	err := s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		current, err := s.getInTx(ctx, tx, op, category, id)
		if err != nil {
			return err
		}
		if current.Status != domain.VersionStatusDraft {
			return domain.NewError(domain.CodeInvalidState, op, fmt.Sprintf("version %s is %s, only DRAFT versions are editable", id, current.Status), nil)
		}
		if category == domain.ConfigCategoryParameters {
			if err := s.paramRepo.UpdateDraft(ctx, tx, id, name, payload); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
		} else {
			if err := s.ruleRepo.UpdateDraft(ctx, tx, id, name, payload); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
		}
		out, err = s.getInTx(ctx, tx, op, category, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Activate promotes a DRAFT to ACTIVE, archiving the previous ACTIVE version
// in the same transaction, and returns the field-level changelog between the
// two payloads.
func (s *configService) Activate(ctx context.Context, category string, id uuid.UUID) (*ActivationResult, error) {
	const op = "ConfigService.Activate"
	if err := validateCategory(op, category); err != nil {
		return nil, err
	}

	var result *ActivationResult
	err := s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		if category == domain.ConfigCategoryParameters {
			if err := s.paramRepo.LockLineage(ctx, tx, domain.DefaultLineage); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
		} else {
			if err := s.ruleRepo.LockLineage(ctx, tx, domain.DefaultLineage); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
		}

		candidate, err := s.getInTx(ctx, tx, op, category, id)
		if err != nil {
			return err
		}
		if candidate.Status != domain.VersionStatusDraft {
			return domain.NewError(domain.CodeInvalidState, op, fmt.Sprintf("version %s is %s, only DRAFT versions can be activated", id, candidate.Status), nil)
		}
		// Payloads are validated on write, but a final check before the swap
		// keeps a bad row from ever becoming ACTIVE.
		if err := validatePayload(op, category, candidate.Payload); err != nil {
			return err
		}

		var previousPayload []byte
		now := time.Now().UTC()
		if category == domain.ConfigCategoryParameters {
			previous, err := s.paramRepo.GetActive(ctx, tx, domain.DefaultLineage)
			if err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
			if previous != nil {
				previousPayload = []byte(previous.Payload)
			}
			if err := s.paramRepo.ArchiveActive(ctx, tx, domain.DefaultLineage); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
			if err := s.paramRepo.SetStatus(ctx, tx, id, domain.VersionStatusActive, &now); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
		} else {
			previous, err := s.ruleRepo.GetActive(ctx, tx, domain.DefaultLineage)
			if err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
			if previous != nil {
				previousPayload = []byte(previous.Payload)
			}
			if err := s.ruleRepo.ArchiveActive(ctx, tx, domain.DefaultLineage); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
			if err := s.ruleRepo.SetStatus(ctx, tx, id, domain.VersionStatusActive, &now); err != nil {
				return domain.Wrap(domain.CodeInternal, op, err)
			}
		}

		changelog, err := config.Diff(previousPayload, candidate.Payload)
		if err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		activated, err := s.getInTx(ctx, tx, op, category, id)
		if err != nil {
			return err
		}
		result = &ActivationResult{Version: activated, Changelog: changelog}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Version activated", "category", category, "version_id", id, "changes", len(result.Changelog))
	return result, nil
}

// DeleteDraft discards a draft. Non-DRAFT versions are part of history and
// cannot be deleted.
func (s *configService) DeleteDraft(ctx context.Context, category string, id uuid.UUID) error {
	const op = "ConfigService.DeleteDraft"
	if err := validateCategory(op, category); err != nil {
		return err
	}
	return s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		current, err := s.getInTx(ctx, tx, op, category, id)
		if err != nil {
			return err
		}
		if current.Status != domain.VersionStatusDraft {
			return domain.NewError(domain.CodeInvalidState, op, fmt.Sprintf("version %s is %s, only DRAFT versions can be deleted", id, current.Status), nil)
		}
		if category == domain.ConfigCategoryParameters {
			return domain.Wrap(domain.CodeInternal, op, s.paramRepo.DeleteDraft(ctx, tx, id))
		}
		return domain.Wrap(domain.CodeInternal, op, s.ruleRepo.DeleteDraft(ctx, tx, id))
	})
}

func (s *configService) List(ctx context.Context, category, status string) ([]*ConfigVersion, error) {
	const op = "ConfigService.List"
	if err := validateCategory(op, category); err != nil {
		return nil, err
	}
	switch status {
	case "", domain.VersionStatusDraft, domain.VersionStatusActive, domain.VersionStatusArchived:
	default:
		return nil, domain.NewError(domain.CodeValidation, op, fmt.Sprintf("unknown status filter %q", status), nil)
	}
	if category == domain.ConfigCategoryParameters {
		rows, err := s.paramRepo.List(ctx, nil, domain.DefaultLineage, status)
		if err != nil {
			return nil, domain.Wrap(domain.CodeInternal, op, err)
		}
		out := make([]*ConfigVersion, 0, len(rows))
		for _, row := range rows {
			out = append(out, paramView(row))
		}
		return out, nil
	}
	rows, err := s.ruleRepo.List(ctx, nil, domain.DefaultLineage, status)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	out := make([]*ConfigVersion, 0, len(rows))
	for _, row := range rows {
		out = append(out, ruleView(row))
	}
	return out, nil
}

func (s *configService) Get(ctx context.Context, category string, id uuid.UUID) (*ConfigVersion, error) {
	const op = "ConfigService.Get"
	if err := validateCategory(op, category); err != nil {
		return nil, err
	}
	return s.getInTx(ctx, nil, op, category, id)
}

func (s *configService) getInTx(ctx context.Context, tx *gorm.DB, op, category string, id uuid.UUID) (*ConfigVersion, error) {
	if category == domain.ConfigCategoryParameters {
		row, err := s.paramRepo.GetByID(ctx, tx, id)
		if err != nil {
			return nil, domain.Wrap(domain.CodeInternal, op, err)
		}
		if row == nil {
			return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("parameter version %s not found", id), nil)
		}
		return paramView(row), nil
	}
	row, err := s.ruleRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if row == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rule set version %s not found", id), nil)
	}
	return ruleView(row), nil
}

// Diff compares two stored versions of the same category.
func (s *configService) Diff(ctx context.Context, category string, aID, bID uuid.UUID) ([]config.FieldChange, error) {
	const op = "ConfigService.Diff"
	if err := validateCategory(op, category); err != nil {
		return nil, err
	}
	a, err := s.getInTx(ctx, nil, op, category, aID)
	if err != nil {
		return nil, err
	}
	b, err := s.getInTx(ctx, nil, op, category, bID)
	if err != nil {
		return nil, err
	}
	changes, err := config.Diff(a.Payload, b.Payload)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return changes, nil
}
