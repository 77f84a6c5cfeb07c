package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/repos"
)

// CreateTaskRequest opens a remediation task against a theme.
type CreateTaskRequest struct {
	TenantID    uuid.UUID
	ThemeID     uuid.UUID
	Title       string
	Description string
}

// TaskService covers the task subset the fix-score loop needs: create,
// complete, get, list. Completing a task kicks off the estimator with the
// canonical windows; the estimate failing does not fail the completion.
type TaskService interface {
	Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error)
	Complete(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, tenantID uuid.UUID, status string) ([]*domain.Task, error)
}

type taskService struct {
	taskRepo  repos.TaskRepo
	themeRepo repos.ThemeRepo
	fixScores FixScoreService
	log       *logger.Logger
}

func NewTaskService(taskRepo repos.TaskRepo, themeRepo repos.ThemeRepo, fixScores FixScoreService, baseLog *logger.Logger) TaskService {
	return &taskService{
		taskRepo:  taskRepo,
		themeRepo: themeRepo,
		fixScores: fixScores,
		log:       baseLog.With("service", "TaskService"),
	}
}

func (s *taskService) Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	const op = "TaskService.Create"
	if req.TenantID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "tenant id required", nil)
	}
	if req.Title == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "title required", nil)
	}
	theme, err := s.themeRepo.GetByID(ctx, nil, req.ThemeID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if theme == nil || theme.TenantID != req.TenantID {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("theme %s not found for tenant", req.ThemeID), nil)
	}
	task := &domain.Task{
		TenantID:    req.TenantID,
		ThemeID:     req.ThemeID,
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatusOpen,
	}
	if err := s.taskRepo.Create(ctx, nil, task); err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return task, nil
}

func (s *taskService) Complete(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	const op = "TaskService.Complete"
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch task.Status {
	case domain.TaskStatusCompleted:
		return nil, domain.NewError(domain.CodeInvalidState, op, fmt.Sprintf("task %s is already COMPLETED", id), nil)
	case domain.TaskStatusCancelled:
		return nil, domain.NewError(domain.CodeInvalidState, op, fmt.Sprintf("task %s is CANCELLED", id), nil)
	}
	now := time.Now().UTC()
	if err := s.taskRepo.SetStatus(ctx, nil, id, domain.TaskStatusCompleted, &now); err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}

	if _, err := s.fixScores.Compute(ctx, ComputeFixScoreRequest{TaskID: id}); err != nil {
		s.log.Warn("Initial fix score after completion failed", "task_id", id, "error", err)
	}
	return s.Get(ctx, id)
}

func (s *taskService) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	const op = "TaskService.Get"
	task, err := s.taskRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if task == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("task %s not found", id), nil)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, tenantID uuid.UUID, status string) ([]*domain.Task, error) {
	const op = "TaskService.List"
	tasks, err := s.taskRepo.ListByTenant(ctx, nil, tenantID, status)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return tasks, nil
}
