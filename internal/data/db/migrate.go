package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureMealLogIndexes(db)
}

// EnsureMealLogIndexes adds the lookup index used by check-in find-or-update.
func EnsureMealLogIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_meal_log_user_planned_meal
		ON user_meal_log (user_id, planned_meal_id, id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_meal_log_user_planned_meal: %w", err)
	}
	return nil
}
