package mealplan

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlanStatus string

const (
	// PlanStatusGenerating is set while chunks are still being generated.
	PlanStatusGenerating PlanStatus = "generating"
	PlanStatusActive     PlanStatus = "active"
	// PlanStatusPartial marks a plan whose later chunks failed after earlier ones were stored.
	PlanStatusPartial PlanStatus = "partial"
)

// MealPlan is the single active plan header of a user.
type MealPlan struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_meal_plan_user" json:"user_id"`
	StartDate     time.Time      `gorm:"column:start_date;not null" json:"start_date"`
	TotalDays     int            `gorm:"column:total_days;not null" json:"total_days"`
	GeneratedDays int            `gorm:"column:generated_days;not null;default:0" json:"generated_days"`
	Status        PlanStatus     `gorm:"column:status;not null;default:'generating'" json:"status"`
	Meta          datatypes.JSON `gorm:"column:meta" json:"meta,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (MealPlan) TableName() string { return "meal_plan" }

// DayDate is the calendar date of a 1-based plan day.
func (p *MealPlan) DayDate(day int) time.Time {
	if day < 1 {
		day = 1
	}
	return p.StartDate.AddDate(0, 0, day-1)
}

// DayAt returns the 1-based plan day containing t, clamped to at least 1.
func (p *MealPlan) DayAt(t time.Time) int {
	start := time.Date(p.StartDate.Year(), p.StartDate.Month(), p.StartDate.Day(), 0, 0, 0, 0, p.StartDate.Location())
	at := t.In(p.StartDate.Location())
	cur := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	day := int(cur.Sub(start).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	return day
}

// PlannedMeal is one scheduled meal slot of a plan. DishID is nil for meals the
// catalog could not ground.
type PlannedMeal struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MealPlanID uint      `gorm:"column:meal_plan_id;not null;index:idx_planned_meal_plan_day,priority:1" json:"meal_plan_id"`
	DayNumber  int       `gorm:"column:day_number;not null;index:idx_planned_meal_plan_day,priority:2" json:"day_number"`
	Category   Category  `gorm:"column:category;not null" json:"category"`
	DishID     *uint     `gorm:"column:dish_id;index" json:"dish_id,omitempty"`
	MealName   string    `gorm:"column:meal_name;not null" json:"meal_name"`
	Quantity   string    `gorm:"column:quantity" json:"quantity,omitempty"`
	Calories   float64   `gorm:"column:calories;not null;default:0" json:"calories"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (PlannedMeal) TableName() string { return "planned_meal" }
