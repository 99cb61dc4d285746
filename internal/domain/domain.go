package domain

import (
	"github.com/yungbote/mealcoach-backend/internal/domain/catalog"
	"github.com/yungbote/mealcoach-backend/internal/domain/health"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/domain/user"
)

type User = user.User

type HealthProfile = health.HealthProfile
type HealthAnalysis = health.HealthAnalysis

type Dish = catalog.Dish

type MealPlan = mealplan.MealPlan
type PlannedMeal = mealplan.PlannedMeal
type UserMealLog = mealplan.UserMealLog
type PlanStatus = mealplan.PlanStatus
type Category = mealplan.Category

type PlanView = mealplan.PlanView
type DaySummary = mealplan.DaySummary
type MealSlot = mealplan.MealSlot

const (
	CategoryBreakfast = mealplan.CategoryBreakfast
	CategoryLunch     = mealplan.CategoryLunch
	CategoryDinner    = mealplan.CategoryDinner
	CategorySnack     = mealplan.CategorySnack

	PlanStatusGenerating = mealplan.PlanStatusGenerating
	PlanStatusActive     = mealplan.PlanStatusActive
	PlanStatusPartial    = mealplan.PlanStatusPartial
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&User{},
		&HealthProfile{},
		&HealthAnalysis{},
		&Dish{},
		&MealPlan{},
		&PlannedMeal{},
		&UserMealLog{},
	}
}
