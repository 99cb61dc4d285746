package mealplan

import (
	"time"

	"github.com/google/uuid"
)

// UserMealLog is the per-slot record of what a user ate. Rows synced from a plan carry
// MealPlanID/PlannedMealID as plain nullable ids; standalone check-ins leave
// PlannedMealID nil.
type UserMealLog struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index:idx_meal_log_user_logged,priority:1" json:"user_id"`
	MealPlanID      *uint     `gorm:"column:meal_plan_id;index" json:"meal_plan_id,omitempty"`
	PlannedMealID   *uint     `gorm:"column:planned_meal_id;index" json:"planned_meal_id,omitempty"`
	DayNumber       int       `gorm:"column:day_number;not null" json:"day_number"`
	Category        Category  `gorm:"column:category;not null" json:"category"`
	FoodName        string    `gorm:"column:food_name;not null" json:"food_name"`
	Calories        float64   `gorm:"column:calories;not null;default:0" json:"calories"`
	ImageURL        string    `gorm:"column:image_url" json:"image_url,omitempty"`
	NutritionDetail string    `gorm:"column:nutrition_detail;type:text" json:"nutrition_detail,omitempty"`
	CheckedIn       bool      `gorm:"column:checked_in;not null;default:false" json:"checked_in"`
	PlanCompliant   bool      `gorm:"column:plan_compliant;not null;default:false" json:"plan_compliant"`
	LoggedAt        time.Time `gorm:"column:logged_at;not null;index:idx_meal_log_user_logged,priority:2" json:"logged_at"`
	Version         int       `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (UserMealLog) TableName() string { return "user_meal_log" }

// SyncedLogFor builds the generation-time log row mirroring a planned meal.
func SyncedLogFor(userID uuid.UUID, plan *MealPlan, pm *PlannedMeal) *UserMealLog {
	planID := plan.ID
	pmID := pm.ID
	return &UserMealLog{
		UserID:        userID,
		MealPlanID:    &planID,
		PlannedMealID: &pmID,
		DayNumber:     pm.DayNumber,
		Category:      pm.Category,
		FoodName:      pm.MealName,
		Calories:      pm.Calories,
		CheckedIn:     false,
		PlanCompliant: true,
		LoggedAt:      plan.DayDate(pm.DayNumber),
		Version:       1,
	}
}
