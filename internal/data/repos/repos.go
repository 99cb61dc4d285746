package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/data/repos/catalog"
	"github.com/yungbote/mealcoach-backend/internal/data/repos/health"
	"github.com/yungbote/mealcoach-backend/internal/data/repos/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/data/repos/user"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type UserRepo = user.UserRepo

type HealthProfileRepo = health.HealthProfileRepo
type HealthAnalysisRepo = health.HealthAnalysisRepo

type DishRepo = catalog.DishRepo

type MealPlanRepo = mealplan.MealPlanRepo
type PlannedMealRepo = mealplan.PlannedMealRepo
type MealLogRepo = mealplan.MealLogRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewHealthProfileRepo(db *gorm.DB, baseLog *logger.Logger) HealthProfileRepo {
	return health.NewHealthProfileRepo(db, baseLog)
}
func NewHealthAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) HealthAnalysisRepo {
	return health.NewHealthAnalysisRepo(db, baseLog)
}

func NewDishRepo(db *gorm.DB, baseLog *logger.Logger) DishRepo {
	return catalog.NewDishRepo(db, baseLog)
}

func NewMealPlanRepo(db *gorm.DB, baseLog *logger.Logger) MealPlanRepo {
	return mealplan.NewMealPlanRepo(db, baseLog)
}
func NewPlannedMealRepo(db *gorm.DB, baseLog *logger.Logger) PlannedMealRepo {
	return mealplan.NewPlannedMealRepo(db, baseLog)
}
func NewMealLogRepo(db *gorm.DB, baseLog *logger.Logger) MealLogRepo {
	return mealplan.NewMealLogRepo(db, baseLog)
}
