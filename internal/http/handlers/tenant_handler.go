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

type TenantHandler struct {
	tenants services.TenantService
	log     *logger.Logger
}

func NewTenantHandler(tenants services.TenantService, baseLog *logger.Logger) *TenantHandler {
	return &TenantHandler{tenants: tenants, log: baseLog.With("handler", "TenantHandler")}
}

func (h *TenantHandler) Register(r *gin.RouterGroup) {
	r.POST("/tenants", h.create)
	r.GET("/tenants/:tenantId", h.get)
	r.POST("/tenants/:tenantId/locations", h.addLocation)
	r.GET("/tenants/:tenantId/locations", h.listLocations)
	r.POST("/tenants/:tenantId/themes", h.addTheme)
	r.GET("/tenants/:tenantId/themes", h.listThemes)
}

type createTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *TenantHandler) create(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TenantHandler.create", "malformed request body", err))
		return
	}
	tenant, err := h.tenants.Create(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, tenant)
}

func (h *TenantHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TenantHandler.get", "invalid tenant id", err))
		return
	}
	tenant, err := h.tenants.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, tenant)
}

type addLocationRequest struct {
	Name            string `json:"name"`
	City            string `json:"city"`
	ExternalPlaceID string `json:"external_place_id"`
}

func (h *TenantHandler) addLocation(c *gin.Context) {
	const op = "TenantHandler.addLocation"
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "invalid tenant id", err))
		return
	}
	var req addLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "malformed request body", err))
		return
	}
	location, err := h.tenants.AddLocation(c.Request.Context(), tenantID, req.Name, req.City, req.ExternalPlaceID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, location)
}

func (h *TenantHandler) listLocations(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TenantHandler.listLocations", "invalid tenant id", err))
		return
	}
	locations, err := h.tenants.ListLocations(c.Request.Context(), tenantID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, locations)
}

type addThemeRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func (h *TenantHandler) addTheme(c *gin.Context) {
	const op = "TenantHandler.addTheme"
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "invalid tenant id", err))
		return
	}
	var req addThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, op, "malformed request body", err))
		return
	}
	theme, err := h.tenants.AddTheme(c.Request.Context(), tenantID, req.Key, req.Name)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, theme)
}

func (h *TenantHandler) listThemes(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		response.RespondError(c, domain.NewError(domain.CodeValidation, "TenantHandler.listThemes", "invalid tenant id", err))
		return
	}
	themes, err := h.tenants.ListThemes(c.Request.Context(), tenantID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, themes)
}
