package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fixloop/fixloop-backend/internal/domain"
	"github.com/fixloop/fixloop-backend/internal/http/response"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/services"
)

type ConfigHandler struct {
	configs services.ConfigService
	log     *logger.Logger
}

func NewConfigHandler(configs services.ConfigService, baseLog *logger.Logger) *ConfigHandler {
	return &ConfigHandler{configs: configs, log: baseLog.With("handler", "ConfigHandler")}
}

func (h *ConfigHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/config/:category")
	g.POST("/drafts", h.createDraft)
	g.PUT("/drafts/:id", h.updateDraft)
	g.DELETE("/drafts/:id", h.deleteDraft)
	g.POST("/versions/:id/activate", h.activate)
	g.GET("/versions", h.list)
	g.GET("/versions/:id", h.get)
	g.GET("/diff", h.diff)
}

type createDraftRequest struct {
	Name          string     `json:"name"`
	BaseVersionID *uuid.UUID `json:"base_version_id"`
}

func (h *ConfigHandler) createDraft(c *gin.Context) {
	var req createDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ConfigHandler.createDraft", "malformed request body", err))
		return
	}
	version, err := h.configs.CreateDraft(c.Request.Context(), c.Param("category"), req.Name, req.BaseVersionID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, version)
}

type updateDraftRequest struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

func (h *ConfigHandler) updateDraft(c *gin.Context) {
	const op = "ConfigHandler.updateDraft"
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "invalid version id", err))
		return
	}
	var req updateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "malformed request body", err))
		return
	}
	if len(req.Payload) == 0 {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "payload required", nil))
		return
	}
	version, err := h.configs.UpdateDraft(c.Request.Context(), c.Param("category"), id, req.Name, req.Payload)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, version)
}

func (h *ConfigHandler) deleteDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ConfigHandler.deleteDraft", "invalid version id", err))
		return
	}
	if err := h.configs.DeleteDraft(c.Request.Context(), c.Param("category"), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *ConfigHandler) activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ConfigHandler.activate", "invalid version id", err))
		return
	}
	result, err := h.configs.Activate(c.Request.Context(), c.Param("category"), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, result)
}

func (h *ConfigHandler) list(c *gin.Context) {
	versions, err := h.configs.List(c.Request.Context(), c.Param("category"), c.Query("status"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, versions)
}

func (h *ConfigHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "ConfigHandler.get", "invalid version id", err))
		return
	}
	version, err := h.configs.Get(c.Request.Context(), c.Param("category"), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, version)
}

func (h *ConfigHandler) diff(c *gin.Context) {
	const op = "ConfigHandler.diff"
	aID, err := uuid.Parse(c.Query("a"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "query param a must be a version id", err))
		return
	}
	bID, err := uuid.Parse(c.Query("b"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "query param b must be a version id", err))
		return
	}
	changes, err := h.configs.Diff(c.Request.Context(), c.Param("category"), aID, bID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, gin.H{"changes": changes})
}
