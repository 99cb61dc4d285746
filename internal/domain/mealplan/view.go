package mealplan

import "time"

const (
	// UnnamedDishLabel replaces a meal name that neither the model nor the catalog supplied.
	UnnamedDishLabel = "Món chưa đặt tên"
	// EmptySlotLabel fills a category slot without any logged meal.
	EmptySlotLabel = "Chưa có món"
	// FoodNameSeparator joins several meals logged into the same slot.
	FoodNameSeparator = ", "
)

// MealSlot is one category cell of a plan day.
type MealSlot struct {
	Category       Category `json:"category"`
	Label          string   `json:"label"`
	FoodName       string   `json:"food_name"`
	Calories       float64  `json:"calories"`
	CheckedIn      bool     `json:"checked_in"`
	Empty          bool     `json:"empty"`
	LogIDs         []uint   `json:"log_ids,omitempty"`
	PlannedMealIDs []uint   `json:"planned_meal_ids,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
}

type DaySummary struct {
	DayNumber     int        `json:"day_number"`
	Date          time.Time  `json:"date"`
	Slots         []MealSlot `json:"slots"`
	TotalCalories float64    `json:"total_calories"`
}

// PlanView is the read model returned to clients.
type PlanView struct {
	PlanID        uint         `json:"plan_id"`
	StartDate     time.Time    `json:"start_date"`
	TotalDays     int          `json:"total_days"`
	GeneratedDays int          `json:"generated_days"`
	Status        PlanStatus   `json:"status"`
	Days          []DaySummary `json:"days"`
}

// Day returns the summary for a plan day, or nil.
func (v *PlanView) Day(n int) *DaySummary {
	if v == nil {
		return nil
	}
	for i := range v.Days {
		if v.Days[i].DayNumber == n {
			return &v.Days[i]
		}
	}
	return nil
}

// Slot returns the slot for c, or nil.
func (d *DaySummary) Slot(c Category) *MealSlot {
	if d == nil {
		return nil
	}
	for i := range d.Slots {
		if d.Slots[i].Category == c {
			return &d.Slots[i]
		}
	}
	return nil
}
