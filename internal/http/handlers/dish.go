package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/mealcoach-backend/internal/http/response"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
	"github.com/yungbote/mealcoach-backend/internal/services"
)

type DishHandler struct {
	log     *logger.Logger
	service services.DishService
}

func NewDishHandler(log *logger.Logger, service services.DishService) *DishHandler {
	return &DishHandler{log: log.With("handler", "DishHandler"), service: service}
}

// GET /dishes?category=lunch
func (h *DishHandler) List(c *gin.Context) {
	dishes, err := h.service.ListCatalog(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"dishes": dishes})
}
