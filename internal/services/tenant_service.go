package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/repos"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// TenantService handles onboarding: tenants, their locations, and the theme
// catalog runs aggregate against.
type TenantService interface {
	Create(ctx context.Context, name, slug string) (*domain.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	AddLocation(ctx context.Context, tenantID uuid.UUID, name, city, externalPlaceID string) (*domain.Location, error)
	ListLocations(ctx context.Context, tenantID uuid.UUID) ([]*domain.Location, error)
	AddTheme(ctx context.Context, tenantID uuid.UUID, key, name string) (*domain.Theme, error)
	ListThemes(ctx context.Context, tenantID uuid.UUID) ([]*domain.Theme, error)
}

type tenantService struct {
	tenantRepo repos.TenantRepo
	themeRepo  repos.ThemeRepo
	log        *logger.Logger
}

func NewTenantService(tenantRepo repos.TenantRepo, themeRepo repos.ThemeRepo, baseLog *logger.Logger) TenantService {
	return &tenantService{
		tenantRepo: tenantRepo,
		themeRepo:  themeRepo,
		log:        baseLog.With("service", "TenantService"),
	}
}

func (s *tenantService) Create(ctx context.Context, name, slug string) (*domain.Tenant, error) {
	const op = "TenantService.Create"
	if name == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "name required", nil)
	}
	if !slugPattern.MatchString(slug) {
		return nil, domain.NewError(domain.CodeValidation, op, fmt.Sprintf("slug %q must be lowercase kebab-case", slug), nil)
	}
	tenant := &domain.Tenant{Name: name, Slug: slug}
	if err := s.tenantRepo.Create(ctx, nil, tenant); err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	s.log.Info("Tenant created", "tenant_id", tenant.ID, "slug", slug)
	return tenant, nil
}

func (s *tenantService) Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	const op = "TenantService.Get"
	tenant, err := s.tenantRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if tenant == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("tenant %s not found", id), nil)
	}
	return tenant, nil
}

func (s *tenantService) AddLocation(ctx context.Context, tenantID uuid.UUID, name, city, externalPlaceID string) (*domain.Location, error) {
	const op = "TenantService.AddLocation"
	if name == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "name required", nil)
	}
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	location := &domain.Location{
		TenantID:        tenantID,
		Name:            name,
		City:            city,
		ExternalPlaceID: externalPlaceID,
	}
	if err := s.tenantRepo.CreateLocation(ctx, nil, location); err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return location, nil
}

func (s *tenantService) ListLocations(ctx context.Context, tenantID uuid.UUID) ([]*domain.Location, error) {
	const op = "TenantService.ListLocations"
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	locations, err := s.tenantRepo.ListLocations(ctx, nil, tenantID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return locations, nil
}

func (s *tenantService) AddTheme(ctx context.Context, tenantID uuid.UUID, key, name string) (*domain.Theme, error) {
	const op = "TenantService.AddTheme"
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "key required", nil)
	}
	if name == "" {
		name = key
	}
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	theme := &domain.Theme{TenantID: tenantID, Key: key, Name: name}
	if err := s.themeRepo.Create(ctx, nil, theme); err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return theme, nil
}

func (s *tenantService) ListThemes(ctx context.Context, tenantID uuid.UUID) ([]*domain.Theme, error) {
	const op = "TenantService.ListThemes"
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	themes, err := s.themeRepo.ListByTenant(ctx, nil, tenantID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return themes, nil
}
