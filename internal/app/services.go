package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/data/aggregates"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
	"github.com/yungbote/mealcoach-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Entitlements services.EntitlementService
	Health       services.HealthService
	Dishes       services.DishService
	MealPlan     services.MealPlanService
	MealLog      services.MealLogService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	var locker services.UserLocker = services.NewLocalUserLocker(cfg.LockWait)
	if clients.RedisLocker != nil {
		locker = clients.RedisLocker
	}
	tx := aggregates.NewGormTxRunner(db)
	entitlements := services.NewEntitlementService(log, repos.User)

	return Services{
		Auth:         services.NewAuthService(log, cfg.JWTSecretKey),
		Entitlements: entitlements,
		Health:       services.NewHealthService(log, clients.OpenAI, repos.HealthProfile, repos.HealthAnalysis),
		Dishes:       services.NewDishService(log, repos.Dish),
		MealPlan: services.NewMealPlanService(services.MealPlanServiceDeps{
			Log:          log,
			AI:           clients.OpenAI,
			Tx:           tx,
			Locker:       locker,
			Entitlements: entitlements,
			Profiles:     repos.HealthProfile,
			Analyses:     repos.HealthAnalysis,
			Dishes:       repos.Dish,
			Plans:        repos.MealPlan,
			PlannedMeals: repos.PlannedMeal,
			MealLogs:     repos.MealLog,
			Metrics:      metrics,
			Settings:     cfg.MealPlan,
		}),
		MealLog: services.NewMealLogService(services.MealLogServiceDeps{
			Log:          log,
			Vision:       clients.OpenAI,
			Photos:       clients.Photos,
			Labels:       clients.Labels,
			Locker:       locker,
			Plans:        repos.MealPlan,
			PlannedMeals: repos.PlannedMeal,
			MealLogs:     repos.MealLog,
			Metrics:      metrics,
		}),
	}
}
