package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type Repos struct {
	User           repos.UserRepo
	HealthProfile  repos.HealthProfileRepo
	HealthAnalysis repos.HealthAnalysisRepo
	Dish           repos.DishRepo
	MealPlan       repos.MealPlanRepo
	PlannedMeal    repos.PlannedMealRepo
	MealLog        repos.MealLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		HealthProfile:  repos.NewHealthProfileRepo(db, log),
		HealthAnalysis: repos.NewHealthAnalysisRepo(db, log),
		Dish:           repos.NewDishRepo(db, log),
		MealPlan:       repos.NewMealPlanRepo(db, log),
		PlannedMeal:    repos.NewPlannedMealRepo(db, log),
		MealLog:        repos.NewMealLogRepo(db, log),
	}
}
