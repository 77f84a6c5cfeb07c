package services_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/repos"
	"github.com/fixloop/fixloop-backend/internal/repos/testutil"
	"github.com/fixloop/fixloop-backend/internal/services"
)

func newFixScoreService(t *testing.T, tx *gorm.DB) services.FixScoreService {
	t.Helper()
	log := testutil.Logger(t)
	return services.NewFixScoreService(
		repos.NewTaskRepo(tx, log),
		repos.NewFixScoreRepo(tx, log),
		repos.NewReviewThemeRepo(tx, log),
		repos.NewReviewScoreRepo(tx, log),
		repos.NewScoreRunRepo(tx, log),
		repos.NewParameterVersionRepo(tx, log),
		services.NewTxRunner(tx, log),
		services.NewRunNotifier("", log),
		log,
	)
}

// seedFixScenario builds a tenant whose WAIT_TIME theme turned around: three
// negative mentions before the task completed, three positive after. All six
// reviews are scored by one COMPLETED run.
func seedFixScenario(t *testing.T, tx *gorm.DB) (*domain.Task, *domain.Theme) {
	t.Helper()
	ctx := context.Background()
	tenant, location := testutil.SeedTenant(t, tx)
	activateSeedConfig(t, tx)
	theme := testutil.SeedTheme(t, tx, tenant.ID, "WAIT_TIME")

	for _, daysAgo := range []int{70, 80, 89} {
		review := testutil.SeedReview(t, tx, tenant.ID, &location.ID, daysAgo, -0.6)
		testutil.SeedMention(t, tx, review.ID, theme.ID, domain.SentimentNegative)
	}
	for _, daysAgo := range []int{10, 25, 40} {
		review := testutil.SeedReview(t, tx, tenant.ID, &location.ID, daysAgo, 0.7)
		testutil.SeedMention(t, tx, review.ID, theme.ID, domain.SentimentPositive)
	}

	runSvc := newScoreRunService(t, tx)
	now := time.Now().UTC()
	run, err := runSvc.Start(ctx, services.StartRunRequest{
		TenantID:    tenant.ID,
		PeriodStart: now.AddDate(0, 0, -200),
		PeriodEnd:   now,
	})
	if err != nil {
		t.Fatalf("score run: %v", err)
	}
	if run.ReviewsProcessed != 6 {
		t.Fatalf("run scored %d reviews, want 6", run.ReviewsProcessed)
	}

	completedAt := now.AddDate(0, 0, -60)
	task := &domain.Task{
		TenantID:    tenant.ID,
		ThemeID:     theme.ID,
		Title:       "Add a second host during weekend rush",
		Status:      domain.TaskStatusCompleted,
		CompletedAt: &completedAt,
	}
	if err := tx.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task, theme
}

func TestFixScoreComputeAndPersist(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newFixScoreService(t, tx)
	ctx := context.Background()

	task, theme := seedFixScenario(t, tx)
	result, err := svc.Compute(ctx, services.ComputeFixScoreRequest{TaskID: task.ID})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.ThemeID != theme.ID {
		t.Fatalf("theme id = %s, want %s", result.ThemeID, theme.ID)
	}
	if result.ReviewCountPre != 3 || result.ReviewCountPost != 3 {
		t.Fatalf("counts = %d/%d, want 3/3", result.ReviewCountPre, result.ReviewCountPost)
	}
	if result.DeltaS == nil || math.Abs(*result.DeltaS-2.0) > 1e-9 {
		t.Fatalf("deltaS = %v, want 2.0 (all-negative to all-positive)", result.DeltaS)
	}
	if result.Score == nil || math.Abs(*result.Score-10.0) > 1e-9 {
		t.Fatalf("score = %v, want 10.0", result.Score)
	}
	if result.ConfidenceLevel != domain.FixConfidenceLow {
		t.Fatalf("confidence = %s, want LOW for min count 3", result.ConfidenceLevel)
	}

	stored, err := svc.GetByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.ReviewCountPre != 3 || stored.ReviewCountPost != 3 {
		t.Fatalf("stored counts = %d/%d", stored.ReviewCountPre, stored.ReviewCountPost)
	}

	history, err := svc.ListByTheme(ctx, theme.ID)
	if err != nil {
		t.Fatalf("list by theme: %v", err)
	}
	if len(history) != 1 || history[0].TaskID != task.ID {
		t.Fatalf("theme history = %+v, want the one stored estimate", history)
	}
}

func TestFixScorePostWindowIncludesEndDate(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newFixScoreService(t, tx)
	ctx := context.Background()

	tenant, location := testutil.SeedTenant(t, tx)
	activateSeedConfig(t, tx)
	theme := testutil.SeedTheme(t, tx, tenant.ID, "AMBIANCE")

	completedAt := time.Now().UTC().AddDate(0, 0, -70).Truncate(time.Microsecond)
	rating := 4
	seed := func(date time.Time, sentiment float64, label string) {
		t.Helper()
		review := &domain.Review{
			TenantID:       tenant.ID,
			LocationID:     &location.ID,
			SourceType:     domain.SourceGoogle,
			ExternalID:     "rev-" + uuid.NewString()[:8],
			Content:        "Dining room got a full refresh.",
			Rating:         &rating,
			ReviewDate:     date,
			TextLength:     31,
			SentimentScore: sentiment,
		}
		if err := tx.Create(review).Error; err != nil {
			t.Fatalf("seed review: %v", err)
		}
		testutil.SeedMention(t, tx, review.ID, theme.ID, label)
	}
	seed(completedAt.AddDate(0, 0, -10), -0.6, domain.SentimentNegative)
	// Dated exactly at completedAt + post window days, the last instant that
	// still belongs to the post window.
	seed(completedAt.AddDate(0, 0, 60), 0.7, domain.SentimentPositive)

	runSvc := newScoreRunService(t, tx)
	if _, err := runSvc.Start(ctx, services.StartRunRequest{TenantID: tenant.ID}); err != nil {
		t.Fatalf("score run: %v", err)
	}

	task := &domain.Task{
		TenantID:    tenant.ID,
		ThemeID:     theme.ID,
		Title:       "Refresh the dining room",
		Status:      domain.TaskStatusCompleted,
		CompletedAt: &completedAt,
	}
	if err := tx.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	result, err := svc.Compute(ctx, services.ComputeFixScoreRequest{TaskID: task.ID})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.ReviewCountPre != 1 || result.ReviewCountPost != 1 {
		t.Fatalf("counts = %d/%d, want 1/1 (boundary review belongs to the post window)", result.ReviewCountPre, result.ReviewCountPost)
	}
	if result.DeltaS == nil || math.Abs(*result.DeltaS-2.0) > 1e-9 {
		t.Fatalf("deltaS = %v, want 2.0", result.DeltaS)
	}
}

func TestFixScorePreviewNotPersisted(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newFixScoreService(t, tx)
	ctx := context.Background()

	task, _ := seedFixScenario(t, tx)
	if _, err := svc.Compute(ctx, services.ComputeFixScoreRequest{TaskID: task.ID}); err != nil {
		t.Fatalf("canonical compute: %v", err)
	}

	pre, post := 30, 30
	preview, err := svc.Compute(ctx, services.ComputeFixScoreRequest{TaskID: task.ID, PreDays: &pre, PostDays: &post})
	if err != nil {
		t.Fatalf("preview compute: %v", err)
	}
	// The 30/30 preview catches only one post-window mention, dropping the
	// min count below the LOW threshold.
	if preview.ConfidenceLevel != domain.FixConfidenceInsufficient {
		t.Fatalf("preview confidence = %s, want INSUFFICIENT", preview.ConfidenceLevel)
	}

	stored, err := svc.GetByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.ConfidenceLevel != domain.FixConfidenceLow {
		t.Fatalf("stored confidence = %s, preview must not overwrite canonical result", stored.ConfidenceLevel)
	}
}

func TestFixScoreInsufficientOnEmptyPost(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newFixScoreService(t, tx)
	ctx := context.Background()

	tenant, location := testutil.SeedTenant(t, tx)
	activateSeedConfig(t, tx)
	theme := testutil.SeedTheme(t, tx, tenant.ID, "VALUE")
	review := testutil.SeedReview(t, tx, tenant.ID, &location.ID, 30, -0.5)
	testutil.SeedMention(t, tx, review.ID, theme.ID, domain.SentimentNegative)

	runSvc := newScoreRunService(t, tx)
	if _, err := runSvc.Start(ctx, services.StartRunRequest{TenantID: tenant.ID}); err != nil {
		t.Fatalf("score run: %v", err)
	}

	now := time.Now().UTC()
	task := &domain.Task{
		TenantID:    tenant.ID,
		ThemeID:     theme.ID,
		Title:       "Reprice lunch menu",
		Status:      domain.TaskStatusCompleted,
		CompletedAt: &now,
	}
	if err := tx.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	result, err := svc.Compute(ctx, services.ComputeFixScoreRequest{TaskID: task.ID})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.ConfidenceLevel != domain.FixConfidenceInsufficient {
		t.Fatalf("confidence = %s, want INSUFFICIENT", result.ConfidenceLevel)
	}
	if result.DeltaS != nil || result.Score != nil {
		t.Fatalf("estimate = (%v, %v), want nils", result.DeltaS, result.Score)
	}
	if result.ReviewCountPre != 1 || result.ReviewCountPost != 0 {
		t.Fatalf("counts = %d/%d, want 1/0", result.ReviewCountPre, result.ReviewCountPost)
	}
	// Persisted, not omitted.
	if _, err := svc.GetByTask(ctx, task.ID); err != nil {
		t.Fatalf("insufficient result not persisted: %v", err)
	}
}

func TestFixScoreRequiresCompletedTask(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newFixScoreService(t, tx)
	ctx := context.Background()

	tenant, _ := testutil.SeedTenant(t, tx)
	activateSeedConfig(t, tx)
	theme := testutil.SeedTheme(t, tx, tenant.ID, "SERVICE")
	task := &domain.Task{
		TenantID: tenant.ID,
		ThemeID:  theme.ID,
		Title:    "Coach new servers",
		Status:   domain.TaskStatusOpen,
	}
	if err := tx.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	if _, err := svc.Compute(ctx, services.ComputeFixScoreRequest{TaskID: task.ID}); !domain.IsCode(err, domain.CodeInvalidState) {
		t.Fatalf("compute err = %v, want invalid_state", err)
	}
}
