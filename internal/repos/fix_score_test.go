package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/repos"
	"github.com/fixloop/fixloop-backend/internal/repos/testutil"
)

func TestFixScoreUpsertReplaces(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	repo := repos.NewFixScoreRepo(testutil.DB(t), log)
	taskRepo := repos.NewTaskRepo(testutil.DB(t), log)
	ctx := context.Background()

	tenant, _ := testutil.SeedTenant(t, tx)
	theme := testutil.SeedTheme(t, tx, tenant.ID, "SERVICE")
	task := &domain.Task{
		TenantID: tenant.ID,
		ThemeID:  theme.ID,
		Title:    "Retrain weekend staff",
		Status:   domain.TaskStatusCompleted,
	}
	if err := taskRepo.Create(ctx, tx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	now := time.Now().UTC()
	delta := 0.25
	score := 1.25
	first := &domain.FixScore{
		TaskID:           task.ID,
		ThemeID:          theme.ID,
		DeltaS:           &delta,
		Score:            &score,
		ConfidenceLevel:  domain.FixConfidenceMedium,
		ReviewCountPre:   8,
		ReviewCountPost:  6,
		MeasurementStart: now.AddDate(0, 0, -90),
		MeasurementEnd:   now.AddDate(0, 0, 60),
		ComputedAt:       now,
	}
	if err := repo.Upsert(ctx, tx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	delta2 := 0.4
	score2 := 2.0
	second := &domain.FixScore{
		TaskID:           task.ID,
		ThemeID:          theme.ID,
		DeltaS:           &delta2,
		Score:            &score2,
		ConfidenceLevel:  domain.FixConfidenceHigh,
		ReviewCountPre:   15,
		ReviewCountPost:  12,
		MeasurementStart: now.AddDate(0, 0, -90),
		MeasurementEnd:   now.AddDate(0, 0, 60),
		ComputedAt:       now.Add(time.Hour),
	}
	if err := repo.Upsert(ctx, tx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByTaskID(ctx, tx, task.ID)
	if err != nil {
		t.Fatalf("get by task: %v", err)
	}
	if got == nil {
		t.Fatal("fix score missing")
	}
	if got.ConfidenceLevel != domain.FixConfidenceHigh || got.ReviewCountPre != 15 {
		t.Fatalf("upsert did not replace: %+v", got)
	}
	if got.DeltaS == nil || *got.DeltaS != 0.4 {
		t.Fatalf("delta_s = %v, want 0.4", got.DeltaS)
	}

	var count int64
	if err := tx.Model(&domain.FixScore{}).Where("task_id = ?", task.ID).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("fix score rows = %d, want 1", count)
	}
}

func TestFixScoreInsufficientNulls(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	repo := repos.NewFixScoreRepo(testutil.DB(t), log)
	ctx := context.Background()

	tenant, _ := testutil.SeedTenant(t, tx)
	theme := testutil.SeedTheme(t, tx, tenant.ID, "WAIT_TIME")
	task := &domain.Task{TenantID: tenant.ID, ThemeID: theme.ID, Title: "Add host stand", Status: domain.TaskStatusCompleted}
	if err := tx.Create(task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}

	now := time.Now().UTC()
	row := &domain.FixScore{
		TaskID:           task.ID,
		ThemeID:          theme.ID,
		ConfidenceLevel:  domain.FixConfidenceInsufficient,
		ReviewCountPre:   0,
		ReviewCountPost:  3,
		MeasurementStart: now.AddDate(0, 0, -90),
		MeasurementEnd:   now.AddDate(0, 0, 60),
		ComputedAt:       now,
	}
	if err := repo.Upsert(ctx, tx, row); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.GetByTaskID(ctx, tx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DeltaS != nil || got.Score != nil {
		t.Fatalf("insufficient row should keep null estimate, got %+v", got)
	}
}
