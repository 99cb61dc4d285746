package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/mealcoach-backend/internal/http/response"
	"github.com/yungbote/mealcoach-backend/internal/pkg/ctxutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
	"github.com/yungbote/mealcoach-backend/internal/services"
)

type MealPlanHandler struct {
	log     *logger.Logger
	service services.MealPlanService
}

func NewMealPlanHandler(log *logger.Logger, service services.MealPlanService) *MealPlanHandler {
	return &MealPlanHandler{log: log.With("handler", "MealPlanHandler"), service: service}
}

// POST /meal-plan
func (h *MealPlanHandler) Generate(c *gin.Context) {
	view, err := h.service.Generate(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"plan": view})
}

// POST /meal-plan/regenerate
func (h *MealPlanHandler) Regenerate(c *gin.Context) {
	view, err := h.service.Regenerate(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"plan": view})
}

// POST /meal-plan/extend
func (h *MealPlanHandler) Extend(c *gin.Context) {
	view, err := h.service.Extend(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"plan": view})
}

// GET /meal-plan
func (h *MealPlanHandler) Get(c *gin.Context) {
	view, err := h.service.GetPlan(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	if view == nil {
		response.RespondNoContent(c)
		return
	}
	response.RespondOK(c, gin.H{"plan": view})
}
