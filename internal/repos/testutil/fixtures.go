package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
)

// SeedTenant inserts a tenant with one location and returns both.
func SeedTenant(t *testing.T, tx *gorm.DB) (*domain.Tenant, *domain.Location) {
	t.Helper()
	tenant := &domain.Tenant{
		ID:   uuid.New(),
		Name: "Bella Cucina Group",
		Slug: "bella-cucina-" + uuid.NewString()[:8],
	}
	if err := tx.Create(tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	location := &domain.Location{
		ID:              uuid.New(),
		TenantID:        tenant.ID,
		Name:            "Bella Cucina Downtown",
		City:            "Austin",
		ExternalPlaceID: "ChIJ" + uuid.NewString()[:12],
	}
	if err := tx.Create(location).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return tenant, location
}

// SeedTheme inserts a theme for the tenant.
func SeedTheme(t *testing.T, tx *gorm.DB, tenantID uuid.UUID, key string) *domain.Theme {
	t.Helper()
	theme := &domain.Theme{
		ID:       uuid.New(),
		TenantID: tenantID,
		Key:      key,
		Name:     key,
	}
	if err := tx.Create(theme).Error; err != nil {
		t.Fatalf("seed theme %s: %v", key, err)
	}
	return theme
}

// SeedReview inserts a review dated the given number of days before now.
func SeedReview(t *testing.T, tx *gorm.DB, tenantID uuid.UUID, locationID *uuid.UUID, daysAgo int, sentiment float64) *domain.Review {
	t.Helper()
	rating := 4
	review := &domain.Review{
		ID:             uuid.New(),
		TenantID:       tenantID,
		LocationID:     locationID,
		SourceType:     domain.SourceGoogle,
		ExternalID:     "rev-" + uuid.NewString()[:8],
		Content:        "Friendly staff, the carbonara was worth the wait.",
		Rating:         &rating,
		ReviewDate:     time.Now().UTC().AddDate(0, 0, -daysAgo),
		AuthorName:     "Jordan P.",
		LikesCount:     3,
		TextLength:     48,
		SentimentScore: sentiment,
	}
	if err := tx.Create(review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return review
}

// SeedMention links a review to a theme with the given mention sentiment.
func SeedMention(t *testing.T, tx *gorm.DB, reviewID, themeID uuid.UUID, sentiment string) *domain.ReviewTheme {
	t.Helper()
	mention := &domain.ReviewTheme{
		ID:              uuid.New(),
		ReviewID:        reviewID,
		ThemeID:         themeID,
		Sentiment:       sentiment,
		ConfidenceScore: 0.9,
	}
	if err := tx.Create(mention).Error; err != nil {
		t.Fatalf("seed mention: %v", err)
	}
	return mention
}
