package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/mealcoach-backend/internal/http/handlers"
	httpMW "github.com/yungbote/mealcoach-backend/internal/http/middleware"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

const serviceName = "mealcoach"

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	ProfileHandler  *httpH.ProfileHandler
	DishHandler     *httpH.DishHandler
	MealPlanHandler *httpH.MealPlanHandler
	MealLogHandler  *httpH.MealLogHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Health profile + analysis
		if cfg.ProfileHandler != nil {
			protected.PUT("/health/profile", cfg.ProfileHandler.UpsertProfile)
			protected.GET("/health/profile", cfg.ProfileHandler.GetProfile)
			protected.POST("/health/analysis", cfg.ProfileHandler.Analyze)
			protected.GET("/health/analysis", cfg.ProfileHandler.GetAnalysis)
		}

		// Dish catalog
		if cfg.DishHandler != nil {
			protected.GET("/dishes", cfg.DishHandler.List)
		}

		// Meal plan
		if cfg.MealPlanHandler != nil {
			protected.POST("/meal-plan", cfg.MealPlanHandler.Generate)
			protected.POST("/meal-plan/regenerate", cfg.MealPlanHandler.Regenerate)
			protected.POST("/meal-plan/extend", cfg.MealPlanHandler.Extend)
			protected.GET("/meal-plan", cfg.MealPlanHandler.Get)
		}

		// Meal logs
		if cfg.MealLogHandler != nil {
			protected.POST("/meal-logs/check-in", cfg.MealLogHandler.CheckIn)
			protected.POST("/meal-logs/analyze", cfg.MealLogHandler.Analyze)
		}
	}

	return r
}
