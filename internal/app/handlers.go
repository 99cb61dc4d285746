package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/mealcoach-backend/internal/http/handlers"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Profile  *httpH.ProfileHandler
	Dish     *httpH.DishHandler
	MealPlan *httpH.MealPlanHandler
	MealLog  *httpH.MealLogHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:   httpH.NewHealthHandler(pinger),
		Profile:  httpH.NewProfileHandler(log, services.Health),
		Dish:     httpH.NewDishHandler(log, services.Dishes),
		MealPlan: httpH.NewMealPlanHandler(log, services.MealPlan),
		MealLog:  httpH.NewMealLogHandler(log, services.MealLog),
	}
}
