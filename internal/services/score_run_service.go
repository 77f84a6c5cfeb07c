package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/repos"
	"github.com/fixloop/fixloop-backend/internal/scoring"
	"github.com/fixloop/fixloop-backend/internal/scoring/config"
)

// StartRunRequest describes one batch scoring request. Zero-value period
// fields default to the trailing 90 days ending at the reference time; a
// zero reference time defaults to now.
type StartRunRequest struct {
	TenantID      uuid.UUID
	PeriodStart   time.Time
	PeriodEnd     time.Time
	ReferenceTime time.Time
}

// ScoreRunService orchestrates batch scoring: claim the per-tenant run slot,
// resolve the ACTIVE config versions, score every review in the period in
// parallel, aggregate per theme, and persist all outputs in one transaction.
type ScoreRunService interface {
	Start(ctx context.Context, req StartRunRequest) (*domain.ScoreRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.ScoreRun, error)
	ListRuns(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.ScoreRun, error)
	ListReviewScores(ctx context.Context, runID uuid.UUID) ([]*domain.ReviewScore, error)
	ListThemeScores(ctx context.Context, runID uuid.UUID) ([]*domain.ThemeScore, error)
}

type scoreRunService struct {
	runRepo         repos.ScoreRunRepo
	tenantRepo      repos.TenantRepo
	reviewRepo      repos.ReviewRepo
	reviewThemeRepo repos.ReviewThemeRepo
	reviewScoreRepo repos.ReviewScoreRepo
	themeScoreRepo  repos.ThemeScoreRepo
	paramRepo       repos.ParameterVersionRepo
	ruleRepo        repos.RuleSetVersionRepo
	txRunner        TxRunner
	notifier        RunNotifier
	workers         int
	log             *logger.Logger
}

func NewScoreRunService(
	runRepo repos.ScoreRunRepo,
	tenantRepo repos.TenantRepo,
	reviewRepo repos.ReviewRepo,
	reviewThemeRepo repos.ReviewThemeRepo,
	reviewScoreRepo repos.ReviewScoreRepo,
	themeScoreRepo repos.ThemeScoreRepo,
	paramRepo repos.ParameterVersionRepo,
	ruleRepo repos.RuleSetVersionRepo,
	txRunner TxRunner,
	notifier RunNotifier,
	workers int,
	baseLog *logger.Logger,
) ScoreRunService {
	if workers <= 0 {
		workers = 8
	}
	return &scoreRunService{
		runRepo:         runRepo,
		tenantRepo:      tenantRepo,
		reviewRepo:      reviewRepo,
		reviewThemeRepo: reviewThemeRepo,
		reviewScoreRepo: reviewScoreRepo,
		themeScoreRepo:  themeScoreRepo,
		paramRepo:       paramRepo,
		ruleRepo:        ruleRepo,
		txRunner:        txRunner,
		notifier:        notifier,
		workers:         workers,
		log:             baseLog.With("service", "ScoreRunService"),
	}
}

// Start claims the run slot and executes the batch synchronously. The run
// row is born RUNNING inside the guard transaction; any later failure
// transitions it to FAILED rather than deleting it.
func (s *scoreRunService) Start(ctx context.Context, req StartRunRequest) (*domain.ScoreRun, error) {
	const op = "ScoreRunService.Start"
	if req.TenantID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "tenant id required", nil)
	}
	if req.ReferenceTime.IsZero() {
		req.ReferenceTime = time.Now().UTC()
	}
	if req.PeriodEnd.IsZero() {
		req.PeriodEnd = req.ReferenceTime
	}
	if req.PeriodStart.IsZero() {
		req.PeriodStart = req.PeriodEnd.AddDate(0, 0, -90)
	}
	if !req.PeriodStart.Before(req.PeriodEnd) {
		return nil, domain.NewError(domain.CodeValidation, op, "period_start must precede period_end", nil)
	}
	tenant, err := s.tenantRepo.GetByID(ctx, nil, req.TenantID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if tenant == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("tenant %s not found", req.TenantID), nil)
	}

	var (
		run     *domain.ScoreRun
		params  *config.ScoringParameters
		ruleSet *config.RuleSet
	)
	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.runRepo.LockTenantRuns(ctx, tx, req.TenantID); err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		running, err := s.runRepo.CountRunning(ctx, tx, req.TenantID)
		if err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		if running > 0 {
			return domain.NewError(domain.CodeConflict, op, fmt.Sprintf("tenant %s already has a RUNNING score run", req.TenantID), nil)
		}

		paramVersion, err := s.paramRepo.GetActive(ctx, tx, domain.DefaultLineage)
		if err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		if paramVersion == nil {
			return domain.NewError(domain.CodeMissingConfig, op, "no ACTIVE parameter set version", nil)
		}
		ruleVersion, err := s.ruleRepo.GetActive(ctx, tx, domain.DefaultLineage)
		if err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		if ruleVersion == nil {
			return domain.NewError(domain.CodeMissingConfig, op, "no ACTIVE rule set version", nil)
		}
		params, err = config.ParseParameters(paramVersion.Payload)
		if err != nil {
			return err
		}
		ruleSet, err = config.ParseRuleSet(ruleVersion.Payload)
		if err != nil {
			return err
		}

		run = &domain.ScoreRun{
			TenantID:           req.TenantID,
			PeriodStart:        req.PeriodStart,
			PeriodEnd:          req.PeriodEnd,
			ReferenceTime:      req.ReferenceTime,
			ParameterVersionID: paramVersion.ID,
			RuleSetVersionID:   ruleVersion.ID,
			Status:             domain.RunStatusRunning,
		}
		if err := s.runRepo.Create(ctx, tx, run); err != nil {
			return domain.Wrap(domain.CodeInternal, op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, RunEvent{Event: EventRunStarted, TenantID: req.TenantID, RunID: run.ID})
	if pending, err := s.reviewRepo.CountForPeriod(ctx, nil, req.TenantID, req.PeriodStart, req.PeriodEnd); err == nil {
		s.log.Info("Score run started", "run_id", run.ID, "tenant_id", req.TenantID, "reviews_in_period", pending)
	}

	if err := s.execute(ctx, run, params, ruleSet); err != nil {
		s.log.Error("Score run failed", "run_id", run.ID, "error", err)
		if markErr := s.runRepo.MarkFailed(ctx, nil, run.ID, err.Error()); markErr != nil {
			s.log.Error("Mark run failed errored", "run_id", run.ID, "error", markErr)
		}
		s.notifier.Publish(ctx, RunEvent{Event: EventRunFailed, TenantID: req.TenantID, RunID: run.ID, Error: err.Error()})
		return nil, err
	}

	s.notifier.Publish(ctx, RunEvent{Event: EventRunCompleted, TenantID: req.TenantID, RunID: run.ID})
	return s.GetRun(ctx, run.ID)
}

func (s *scoreRunService) execute(ctx context.Context, run *domain.ScoreRun, params *config.ScoringParameters, ruleSet *config.RuleSet) error {
	const op = "ScoreRunService.execute"

	reviews, err := s.reviewRepo.ListForPeriod(ctx, nil, run.TenantID, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, op, err)
	}

	// Per-review scoring is pure and order-free; fan out with a bounded
	// group and join before aggregation so every score is visible to it.
	reviewScores := make([]*domain.ReviewScore, len(reviews))
	impactByReview := make(map[uuid.UUID]float64, len(reviews))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, review := range reviews {
		i, review := i, review
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			breakdown := scoring.ScoreReview(params, ruleSet, scoring.ReviewInput{
				SentimentScore: review.SentimentScore,
				Rating:         review.Rating,
				ReviewDate:     review.ReviewDate,
				Source:         review.SourceType,
				LikesCount:     review.LikesCount,
				RepliesCount:   review.RepliesCount,
				HelpfulCount:   review.HelpfulCount,
				TextLength:     review.TextLength,
			}, run.ReferenceTime)
			components, err := json.Marshal(breakdown)
			if err != nil {
				return domain.Wrap(domain.CodeComputation, op, err)
			}
			reviewScores[i] = &domain.ReviewScore{
				RunID:             run.ID,
				ReviewID:          review.ID,
				BaseSentiment:     breakdown.BaseSentiment,
				TimeWeight:        breakdown.TimeWeight,
				SourceWeight:      breakdown.SourceWeight,
				EngagementWeight:  breakdown.EngagementWeight,
				ConfidenceWeight:  breakdown.ConfidenceWeight,
				WeightedImpact:    breakdown.WeightedImpact,
				ConfidenceReason:  breakdown.ConfidenceReason,
				SufficiencyLevel:  breakdown.SufficiencyLevel,
				SufficiencyReason: breakdown.SufficiencyReason,
				Components:        datatypes.JSON(components),
			}
			mu.Lock()
			impactByReview[review.ID] = breakdown.WeightedImpact
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	reviewIDs := make([]uuid.UUID, 0, len(reviews))
	for _, review := range reviews {
		reviewIDs = append(reviewIDs, review.ID)
	}
	mentions, err := s.reviewThemeRepo.ListByReviewIDs(ctx, nil, reviewIDs)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, op, err)
	}
	impactsByTheme := make(map[uuid.UUID][]float64)
	for _, mention := range mentions {
		impact, ok := impactByReview[mention.ReviewID]
		if !ok {
			continue
		}
		impactsByTheme[mention.ThemeID] = append(impactsByTheme[mention.ThemeID], impact)
	}

	themeScores := make([]*domain.ThemeScore, 0, len(impactsByTheme))
	for themeID, impacts := range impactsByTheme {
		agg, ok := scoring.AggregateTheme(impacts)
		if !ok {
			continue
		}
		themeScores = append(themeScores, &domain.ThemeScore{
			RunID:          run.ID,
			ThemeID:        themeID,
			ThemeSentiment: agg.ThemeSentiment,
			ThemeScore010:  agg.Score010,
			MentionCount:   agg.MentionCount,
			Severity:       agg.Severity,
		})
	}

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.reviewScoreRepo.CreateBatch(ctx, tx, reviewScores); err != nil {
			return err
		}
		if err := s.themeScoreRepo.CreateBatch(ctx, tx, themeScores); err != nil {
			return err
		}
		return s.runRepo.MarkCompleted(ctx, tx, run.ID, len(reviewScores), len(themeScores))
	})
	if err != nil {
		return domain.Wrap(domain.CodeInternal, op, err)
	}
	s.log.Info("Score run completed", "run_id", run.ID, "reviews", len(reviewScores), "themes", len(themeScores))
	return nil
}

func (s *scoreRunService) GetRun(ctx context.Context, id uuid.UUID) (*domain.ScoreRun, error) {
	const op = "ScoreRunService.GetRun"
	run, err := s.runRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if run == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("score run %s not found", id), nil)
	}
	return run, nil
}

func (s *scoreRunService) ListRuns(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.ScoreRun, error) {
	const op = "ScoreRunService.ListRuns"
	runs, err := s.runRepo.ListByTenant(ctx, nil, tenantID, limit)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return runs, nil
}

func (s *scoreRunService) ListReviewScores(ctx context.Context, runID uuid.UUID) ([]*domain.ReviewScore, error) {
	const op = "ScoreRunService.ListReviewScores"
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.reviewScoreRepo.ListByRun(ctx, nil, runID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return rows, nil
}

func (s *scoreRunService) ListThemeScores(ctx context.Context, runID uuid.UUID) ([]*domain.ThemeScore, error) {
	const op = "ScoreRunService.ListThemeScores"
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.themeScoreRepo.ListByRunBySeverity(ctx, nil, runID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return rows, nil
}
