package seed

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

//go:embed dishes.yaml
var dishesYAML []byte

type dishEntry struct {
	Name         string  `yaml:"name"`
	Category     string  `yaml:"category"`
	BaseCalories float64 `yaml:"base_calories"`
	Unit         string  `yaml:"unit"`
	Description  string  `yaml:"description"`
}

// Dishes decodes the embedded catalog. Seeded dishes are verified and public.
func Dishes() ([]*types.Dish, error) {
	return decode(dishesYAML)
}

func decode(raw []byte) ([]*types.Dish, error) {
	var entries []dishEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode dish catalog: %w", err)
	}
	out := make([]*types.Dish, 0, len(entries))
	seen := map[string]bool{}
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("dish catalog entry %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("dish catalog has duplicate %q", name)
		}
		seen[name] = true
		out = append(out, &types.Dish{
			Name:         name,
			Category:     mealplan.NormalizeCategory(e.Category),
			BaseCalories: e.BaseCalories,
			Unit:         strings.TrimSpace(e.Unit),
			Description:  strings.TrimSpace(e.Description),
			Verified:     true,
			Public:       true,
		})
	}
	return out, nil
}

// Apply upserts the embedded catalog by dish name.
func Apply(ctx context.Context, db *gorm.DB, dishRepo repos.DishRepo, log *logger.Logger) error {
	dishes, err := Dishes()
	if err != nil {
		return err
	}
	if err := dishRepo.Upsert(ctx, db, dishes); err != nil {
		return fmt.Errorf("seed dishes: %w", err)
	}
	log.Info("Dish catalog seeded", "count", len(dishes))
	return nil
}
