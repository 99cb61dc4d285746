package app

import (
	"github.com/yungbote/mealcoach-backend/internal/http"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.CORSOrigins,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		ProfileHandler:  handlers.Profile,
		DishHandler:     handlers.Dish,
		MealPlanHandler: handlers.MealPlan,
		MealLogHandler:  handlers.MealLog,
	})
}
