package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mealcoach-backend/internal/http/response"
	"github.com/yungbote/mealcoach-backend/internal/pkg/ctxutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
	"github.com/yungbote/mealcoach-backend/internal/services"
)

type ProfileHandler struct {
	log     *logger.Logger
	service services.HealthService
}

func NewProfileHandler(log *logger.Logger, service services.HealthService) *ProfileHandler {
	return &ProfileHandler{log: log.With("handler", "ProfileHandler"), service: service}
}

// PUT /health/profile
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var req services.HealthProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.service.UpsertProfile(c.Request.Context(), ctxutil.UserID(c.Request.Context()), req)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// GET /health/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p, err := h.service.GetProfile(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// POST /health/analysis
func (h *ProfileHandler) Analyze(c *gin.Context) {
	a, err := h.service.Analyze(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"analysis": a})
}

// GET /health/analysis
func (h *ProfileHandler) GetAnalysis(c *gin.Context) {
	a, err := h.service.GetAnalysis(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"analysis": a})
}
