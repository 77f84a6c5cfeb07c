package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/repos"
	"github.com/fixloop/fixloop-backend/internal/scoring/config"
)

// ComputeFixScoreRequest recomputes the estimate for a completed task.
// PreDays/PostDays override the canonical windows for a quick preview; a
// preview result is returned but never persisted.
type ComputeFixScoreRequest struct {
	TaskID   uuid.UUID
	PreDays  *int
	PostDays *int
}

// FixScoreService estimates the sentiment shift around a completed task by
// comparing signed theme sentiment before and after completion. Sparse data
// is a labeled result (INSUFFICIENT), never an error.
type FixScoreService interface {
	Compute(ctx context.Context, req ComputeFixScoreRequest) (*domain.FixScore, error)
	GetByTask(ctx context.Context, taskID uuid.UUID) (*domain.FixScore, error)
	ListByTheme(ctx context.Context, themeID uuid.UUID) ([]*domain.FixScore, error)
}

type fixScoreService struct {
	taskRepo        repos.TaskRepo
	fixScoreRepo    repos.FixScoreRepo
	reviewThemeRepo repos.ReviewThemeRepo
	reviewScoreRepo repos.ReviewScoreRepo
	runRepo         repos.ScoreRunRepo
	paramRepo       repos.ParameterVersionRepo
	txRunner        TxRunner
	notifier        RunNotifier
	log             *logger.Logger
}

func NewFixScoreService(
	taskRepo repos.TaskRepo,
	fixScoreRepo repos.FixScoreRepo,
	reviewThemeRepo repos.ReviewThemeRepo,
	reviewScoreRepo repos.ReviewScoreRepo,
	runRepo repos.ScoreRunRepo,
	paramRepo repos.ParameterVersionRepo,
	txRunner TxRunner,
	notifier RunNotifier,
	baseLog *logger.Logger,
) FixScoreService {
	return &fixScoreService{
		taskRepo:        taskRepo,
		fixScoreRepo:    fixScoreRepo,
		reviewThemeRepo: reviewThemeRepo,
		reviewScoreRepo: reviewScoreRepo,
		runRepo:         runRepo,
		paramRepo:       paramRepo,
		txRunner:        txRunner,
		notifier:        notifier,
		log:             baseLog.With("service", "FixScoreService"),
	}
}

func (s *fixScoreService) Compute(ctx context.Context, req ComputeFixScoreRequest) (*domain.FixScore, error) {
	const op = "FixScoreService.Compute"

	task, err := s.taskRepo.GetByID(ctx, nil, req.TaskID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if task == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("task %s not found", req.TaskID), nil)
	}
	if task.Status != domain.TaskStatusCompleted || task.CompletedAt == nil {
		return nil, domain.NewError(domain.CodeInvalidState, op, fmt.Sprintf("task %s is %s, fix score requires a COMPLETED task", task.ID, task.Status), nil)
	}

	paramVersion, err := s.paramRepo.GetActive(ctx, nil, domain.DefaultLineage)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if paramVersion == nil {
		return nil, domain.NewError(domain.CodeMissingConfig, op, "no ACTIVE parameter set version", nil)
	}
	params, err := config.ParseParameters(paramVersion.Payload)
	if err != nil {
		return nil, err
	}

	preDays := params.FixScore.PreWindowDays
	postDays := params.FixScore.PostWindowDays
	preview := false
	if req.PreDays != nil {
		if *req.PreDays <= 0 {
			return nil, domain.NewError(domain.CodeValidation, op, "pre_days override must be > 0", nil)
		}
		preDays = *req.PreDays
		preview = true
	}
	if req.PostDays != nil {
		if *req.PostDays <= 0 {
			return nil, domain.NewError(domain.CodeValidation, op, "post_days override must be > 0", nil)
		}
		postDays = *req.PostDays
		preview = true
	}

	completedAt := task.CompletedAt.UTC()
	preStart := completedAt.AddDate(0, 0, -preDays)
	postEnd := completedAt.AddDate(0, 0, postDays)

	scored, err := s.scoredReviewSet(ctx, task.TenantID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}

	// The pre window ends just before completion; a review dated exactly at
	// completedAt belongs to the post window, and one dated exactly at
	// postEnd still counts.
	preSentiments, err := s.windowSentiments(ctx, task, preStart, completedAt, false, scored)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	postSentiments, err := s.windowSentiments(ctx, task, completedAt, postEnd, true, scored)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}

	deltaS, score, level := estimateFix(preSentiments, postSentiments, params.FixScore.ConfidenceThresholds)
	result := &domain.FixScore{
		TaskID:           task.ID,
		ThemeID:          task.ThemeID,
		DeltaS:           deltaS,
		Score:            score,
		ConfidenceLevel:  level,
		ReviewCountPre:   len(preSentiments),
		ReviewCountPost:  len(postSentiments),
		MeasurementStart: preStart,
		MeasurementEnd:   postEnd,
		ComputedAt:       time.Now().UTC(),
	}

	if preview {
		return result, nil
	}

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		return s.fixScoreRepo.Upsert(ctx, tx, result)
	})
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	s.notifier.Publish(ctx, RunEvent{Event: EventFixScoreRecomputed, TenantID: task.TenantID, TaskID: task.ID})
	s.log.Info("Fix score computed", "task_id", task.ID, "level", level, "pre", len(preSentiments), "post", len(postSentiments))
	return result, nil
}

// scoredReviewSet returns the ids of reviews scored in the tenant's most
// recent COMPLETED run. Reviews outside this set do not count toward the
// estimate. An empty set is valid and simply yields INSUFFICIENT.
func (s *fixScoreService) scoredReviewSet(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]bool, error) {
	latest, err := s.runRepo.GetLatestCompleted(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return map[uuid.UUID]bool{}, nil
	}
	scores, err := s.reviewScoreRepo.ListByRun(ctx, nil, latest.ID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(scores))
	for _, score := range scores {
		set[score.ReviewID] = true
	}
	return set, nil
}

func (s *fixScoreService) windowSentiments(ctx context.Context, task *domain.Task, start, end time.Time, includeEnd bool, scored map[uuid.UUID]bool) ([]float64, error) {
	mentions, err := s.reviewThemeRepo.ListMentionsInWindow(ctx, nil, task.TenantID, task.ThemeID, start, end, includeEnd)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(mentions))
	for _, mention := range mentions {
		if !scored[mention.ReviewID] {
			continue
		}
		out = append(out, signedSentiment(mention.Sentiment))
	}
	return out, nil
}

// estimateFix computes deltaS = avg(post) - avg(pre) and its 0-10-convention
// rescale (5 * deltaS). Either window empty yields INSUFFICIENT with nil
// estimates; otherwise confidence comes from the smaller window count.
func estimateFix(pre, post []float64, thresholds config.FixScoreThresholds) (*float64, *float64, string) {
	if len(pre) == 0 || len(post) == 0 {
		return nil, nil, domain.FixConfidenceInsufficient
	}
	delta := mean(post) - mean(pre)
	score := 5.0 * delta

	minCount := len(pre)
	if len(post) < minCount {
		minCount = len(post)
	}
	level := domain.FixConfidenceInsufficient
	switch {
	case minCount >= thresholds.High:
		level = domain.FixConfidenceHigh
	case minCount >= thresholds.Medium:
		level = domain.FixConfidenceMedium
	case minCount >= thresholds.Low:
		level = domain.FixConfidenceLow
	}
	return &delta, &score, level
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// signedSentiment maps mention labels onto the [-1,1] axis used everywhere
// else. Unknown labels count as neutral.
func signedSentiment(label string) float64 {
	switch label {
	case domain.SentimentPositive:
		return 1.0
	case domain.SentimentNegative:
		return -1.0
	default:
		return 0.0
	}
}

func (s *fixScoreService) GetByTask(ctx context.Context, taskID uuid.UUID) (*domain.FixScore, error) {
	const op = "FixScoreService.GetByTask"
	row, err := s.fixScoreRepo.GetByTaskID(ctx, nil, taskID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if row == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("no fix score for task %s", taskID), nil)
	}
	return row, nil
}

// ListByTheme returns the fix history for a theme, newest estimate first.
func (s *fixScoreService) ListByTheme(ctx context.Context, themeID uuid.UUID) ([]*domain.FixScore, error) {
	const op = "FixScoreService.ListByTheme"
	rows, err := s.fixScoreRepo.ListByTheme(ctx, nil, themeID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return rows, nil
}
