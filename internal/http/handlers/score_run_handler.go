package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/http/response"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/services"
)

type ScoreRunHandler struct {
	runs services.ScoreRunService
	log  *logger.Logger
}

func NewScoreRunHandler(runs services.ScoreRunService, baseLog *logger.Logger) *ScoreRunHandler {
	return &ScoreRunHandler{runs: runs, log: baseLog.With("handler", "ScoreRunHandler")}
}

func (h *ScoreRunHandler) Register(r *gin.RouterGroup) {
	r.POST("/tenants/:tenantId/score-runs", h.start)
	r.GET("/tenants/:tenantId/score-runs", h.listByTenant)
	r.GET("/score-runs/:id", h.get)
	r.GET("/score-runs/:id/review-scores", h.reviewScores)
	r.GET("/score-runs/:id/theme-scores", h.themeScores)
}

type startRunRequest struct {
	PeriodStart   *time.Time `json:"period_start"`
	PeriodEnd     *time.Time `json:"period_end"`
	ReferenceTime *time.Time `json:"reference_time"`
}

func (h *ScoreRunHandler) start(c *gin.Context) {
	const op = "ScoreRunHandler.start"
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "invalid tenant id", err))
		return
	}
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "malformed request body", err))
		return
	}
	startReq := services.StartRunRequest{TenantID: tenantID}
	if req.PeriodStart != nil {
		startReq.PeriodStart = *req.PeriodStart
	}
	if req.PeriodEnd != nil {
		startReq.PeriodEnd = *req.PeriodEnd
	}
	if req.ReferenceTime != nil {
		startReq.ReferenceTime = *req.ReferenceTime
	}
	run, err := h.runs.Start(c.Request.Context(), startReq)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, run)
}

func (h *ScoreRunHandler) listByTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ScoreRunHandler.listByTenant", "invalid tenant id", err))
		return
	}
	runs, err := h.runs.ListRuns(c.Request.Context(), tenantID, 50)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, runs)
}

func (h *ScoreRunHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ScoreRunHandler.get", "invalid run id", err))
		return
	}
	run, err := h.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, run)
}

func (h *ScoreRunHandler) reviewScores(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ScoreRunHandler.reviewScores", "invalid run id", err))
		return
	}
	scores, err := h.runs.ListReviewScores(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, scores)
}

func (h *ScoreRunHandler) themeScores(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ScoreRunHandler.themeScores", "invalid run id", err))
		return
	}
	scores, err := h.runs.ListThemeScores(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, scores)
}
