package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/repos"
	"github.com/fixloop/fixloop-backend/internal/repos/testutil"
	"github.com/fixloop/fixloop-backend/internal/seed"
	"github.com/fixloop/fixloop-backend/internal/services"
)

func activateSeedConfig(t *testing.T, tx *gorm.DB) {
	t.Helper()
	paramPayload, err := seed.DefaultParameterPayload()
	if err != nil {
		t.Fatalf("default parameters: %v", err)
	}
	rulePayload, err := seed.DefaultRuleSetPayload()
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	now := time.Now().UTC()
	param := &domain.ParameterSetVersion{
		ID:            uuid.New(),
		Lineage:       domain.DefaultLineage,
		VersionNumber: 1,
		Name:          "seed",
		Payload:       datatypes.JSON(paramPayload),
		Status:        domain.VersionStatusActive,
		ActivatedAt:   &now,
	}
	if err := tx.Create(param).Error; err != nil {
		t.Fatalf("seed param version: %v", err)
	}
	rule := &domain.RuleSetVersion{
		ID:            uuid.New(),
		Lineage:       domain.DefaultLineage,
		VersionNumber: 1,
		Name:          "seed",
		Payload:       datatypes.JSON(rulePayload),
		Status:        domain.VersionStatusActive,
		ActivatedAt:   &now,
	}
	if err := tx.Create(rule).Error; err != nil {
		t.Fatalf("seed rule version: %v", err)
	}
}

func newScoreRunService(t *testing.T, tx *gorm.DB) services.ScoreRunService {
	t.Helper()
	log := testutil.Logger(t)
	return services.NewScoreRunService(
		repos.NewScoreRunRepo(tx, log),
		repos.NewTenantRepo(tx, log),
		repos.NewReviewRepo(tx, log),
		repos.NewReviewThemeRepo(tx, log),
		repos.NewReviewScoreRepo(tx, log),
		repos.NewThemeScoreRepo(tx, log),
		repos.NewParameterVersionRepo(tx, log),
		repos.NewRuleSetVersionRepo(tx, log),
		services.NewTxRunner(tx, log),
		services.NewRunNotifier("", log),
		4,
		log,
	)
}

func TestScoreRunEndToEnd(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newScoreRunService(t, tx)
	ctx := context.Background()

	tenant, location := testutil.SeedTenant(t, tx)
	activateSeedConfig(t, tx)
	food := testutil.SeedTheme(t, tx, tenant.ID, "FOOD")
	service := testutil.SeedTheme(t, tx, tenant.ID, "SERVICE")
	// Theme with no mentions in the period must be omitted from output.
	testutil.SeedTheme(t, tx, tenant.ID, "CLEANLINESS")

	good := testutil.SeedReview(t, tx, tenant.ID, &location.ID, 5, 0.8)
	bad := testutil.SeedReview(t, tx, tenant.ID, &location.ID, 20, -0.7)
	mixed := testutil.SeedReview(t, tx, tenant.ID, &location.ID, 40, 0.2)
	testutil.SeedMention(t, tx, good.ID, food.ID, domain.SentimentPositive)
	testutil.SeedMention(t, tx, bad.ID, food.ID, domain.SentimentNegative)
	testutil.SeedMention(t, tx, bad.ID, service.ID, domain.SentimentNegative)
	testutil.SeedMention(t, tx, mixed.ID, service.ID, domain.SentimentNeutral)

	run, err := svc.Start(ctx, services.StartRunRequest{TenantID: tenant.ID})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("run status = %s, want COMPLETED", run.Status)
	}
	if run.ReviewsProcessed != 3 {
		t.Fatalf("reviews processed = %d, want 3", run.ReviewsProcessed)
	}
	if run.ThemesProcessed != 2 {
		t.Fatalf("themes processed = %d, want 2 (zero-mention theme omitted)", run.ThemesProcessed)
	}
	if run.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}

	scores, err := svc.ListReviewScores(ctx, run.ID)
	if err != nil {
		t.Fatalf("list review scores: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("review scores = %d, want 3", len(scores))
	}
	for _, score := range scores {
		if score.BaseSentiment > 0 && score.WeightedImpact <= 0 {
			t.Fatalf("impact sign flipped for positive sentiment: %+v", score)
		}
		if score.BaseSentiment < 0 && score.WeightedImpact >= 0 {
			t.Fatalf("impact sign flipped for negative sentiment: %+v", score)
		}
		if len(score.Components) == 0 {
			t.Fatal("components breakdown missing")
		}
	}

	themeScores, err := svc.ListThemeScores(ctx, run.ID)
	if err != nil {
		t.Fatalf("list theme scores: %v", err)
	}
	if len(themeScores) != 2 {
		t.Fatalf("theme scores = %d, want 2", len(themeScores))
	}
	for _, ts := range themeScores {
		if ts.ThemeScore010 < 0 || ts.ThemeScore010 > 10 {
			t.Fatalf("theme score out of range: %+v", ts)
		}
		if ts.ThemeSentiment >= 0 && ts.Severity != 0 {
			t.Fatalf("non-negative theme has severity %v", ts.Severity)
		}
	}
}

func TestScoreRunConflict(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newScoreRunService(t, tx)
	ctx := context.Background()

	tenant, _ := testutil.SeedTenant(t, tx)
	activateSeedConfig(t, tx)

	now := time.Now().UTC()
	running := &domain.ScoreRun{
		ID:                 uuid.New(),
		TenantID:           tenant.ID,
		PeriodStart:        now.AddDate(0, 0, -90),
		PeriodEnd:          now,
		ReferenceTime:      now,
		ParameterVersionID: uuid.New(),
		RuleSetVersionID:   uuid.New(),
		Status:             domain.RunStatusRunning,
		StartedAt:          now,
	}
	if err := tx.Create(running).Error; err != nil {
		t.Fatalf("seed running run: %v", err)
	}

	_, err := svc.Start(ctx, services.StartRunRequest{TenantID: tenant.ID})
	if !domain.IsCode(err, domain.CodeConflict) {
		t.Fatalf("start err = %v, want conflict", err)
	}
}

func TestScoreRunMissingConfig(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newScoreRunService(t, tx)
	ctx := context.Background()

	tenant, _ := testutil.SeedTenant(t, tx)
	_, err := svc.Start(ctx, services.StartRunRequest{TenantID: tenant.ID})
	if !domain.IsCode(err, domain.CodeMissingConfig) {
		t.Fatalf("start err = %v, want missing_config", err)
	}
}

func TestScoreRunEmptyPeriodCompletes(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newScoreRunService(t, tx)
	ctx := context.Background()

	tenant, _ := testutil.SeedTenant(t, tx)
	activateSeedConfig(t, tx)

	run, err := svc.Start(ctx, services.StartRunRequest{TenantID: tenant.ID})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if run.Status != domain.RunStatusCompleted || run.ReviewsProcessed != 0 || run.ThemesProcessed != 0 {
		t.Fatalf("empty run = %+v", run)
	}
}
