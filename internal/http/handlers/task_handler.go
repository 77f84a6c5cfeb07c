package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/http/response"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/services"
)

type TaskHandler struct {
	tasks     services.TaskService
	fixScores services.FixScoreService
	log       *logger.Logger
}

func NewTaskHandler(tasks services.TaskService, fixScores services.FixScoreService, baseLog *logger.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, fixScores: fixScores, log: baseLog.With("handler", "TaskHandler")}
}

func (h *TaskHandler) Register(r *gin.RouterGroup) {
	r.POST("/tenants/:tenantId/tasks", h.create)
	r.GET("/tenants/:tenantId/tasks", h.listByTenant)
	r.GET("/tasks/:id", h.get)
	r.POST("/tasks/:id/complete", h.complete)
	r.POST("/tasks/:id/fix-score", h.recomputeFixScore)
	r.GET("/tasks/:id/fix-score", h.getFixScore)
	r.GET("/themes/:themeId/fix-scores", h.listFixScoresByTheme)
}

type createTaskRequest struct {
	ThemeID     uuid.UUID `json:"theme_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

func (h *TaskHandler) create(c *gin.Context) {
	const op = "TaskHandler.create"
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "invalid tenant id", err))
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "malformed request body", err))
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), services.CreateTaskRequest{
		TenantID:    tenantID,
		ThemeID:     req.ThemeID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, task)
}

func (h *TaskHandler) listByTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TaskHandler.listByTenant", "invalid tenant id", err))
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), tenantID, c.Query("status"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, tasks)
}

func (h *TaskHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TaskHandler.get", "invalid task id", err))
		return
	}
	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, task)
}

func (h *TaskHandler) complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TaskHandler.complete", "invalid task id", err))
		return
	}
	task, err := h.tasks.Complete(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, task)
}

type recomputeFixScoreRequest struct {
	PreDays  *int `json:"pre_days"`
	PostDays *int `json:"post_days"`
}

func (h *TaskHandler) recomputeFixScore(c *gin.Context) {
	const op = "TaskHandler.recomputeFixScore"
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "invalid task id", err))
		return
	}
	var req recomputeFixScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "malformed request body", err))
		return
	}
	result, err := h.fixScores.Compute(c.Request.Context(), services.ComputeFixScoreRequest{
		TaskID:   id,
		PreDays:  req.PreDays,
		PostDays: req.PostDays,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, result)
}

func (h *TaskHandler) listFixScoresByTheme(c *gin.Context) {
	themeID, err := uuid.Parse(c.Param("themeId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TaskHandler.listFixScoresByTheme", "invalid theme id", err))
		return
	}
	rows, err := h.fixScores.ListByTheme(c.Request.Context(), themeID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, rows)
}

func (h *TaskHandler) getFixScore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TaskHandler.getFixScore", "invalid task id", err))
		return
	}
	row, err := h.fixScores.GetByTask(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, row)
}
