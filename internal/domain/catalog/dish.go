package catalog

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
)

// Dish is a canonical catalog entry used to ground generated meals.
type Dish struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string            `gorm:"column:name;not null;uniqueIndex:idx_dish_name" json:"name"`
	Category     mealplan.Category `gorm:"column:category;not null;index" json:"category"`
	BaseCalories float64           `gorm:"column:base_calories;not null;default:0" json:"base_calories"`
	Unit         string            `gorm:"column:unit" json:"unit"`
	Description  string            `gorm:"column:description;type:text" json:"description,omitempty"`
	Verified     bool              `gorm:"column:verified;not null;default:false;index" json:"verified"`
	Public       bool              `gorm:"column:public;not null;default:true" json:"public"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (Dish) TableName() string { return "dish" }

// Usable reports whether the dish may ground a freshly generated plan.
func (d *Dish) Usable() bool {
	return d != nil && d.Verified && !d.DeletedAt.Valid
}
