package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, premium bool) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:        id,
		Email:     fmt.Sprintf("%s@example.com", id.String()[:8]),
		FirstName: "A",
		LastName:  "B",
		Premium:   premium,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.HealthProfile {
	tb.Helper()
	p := &types.HealthProfile{
		UserID:        userID,
		Age:           30,
		Gender:        "female",
		HeightCM:      160,
		WeightKG:      55,
		ActivityLevel: "moderate",
		Goal:          "maintain",
		Conditions:    datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedAnalysis(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.HealthAnalysis {
	tb.Helper()
	a := &types.HealthAnalysis{
		UserID:  userID,
		Result:  datatypes.JSON([]byte(`{"bmi":21.5,"tdee":1900,"recommendations":["more vegetables"]}`)),
		Summary: "balanced",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed analysis: %v", err)
	}
	return a
}

func SeedDish(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, category types.Category, kcal float64, verified bool) *types.Dish {
	tb.Helper()
	d := &types.Dish{
		Name:         name,
		Category:     category,
		BaseCalories: kcal,
		Unit:         "bowl",
		Verified:     verified,
		Public:       true,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed dish: %v", err)
	}
	return d
}

func SeedPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, start time.Time, totalDays int) *types.MealPlan {
	tb.Helper()
	p := &types.MealPlan{
		UserID:        userID,
		StartDate:     start,
		TotalDays:     totalDays,
		GeneratedDays: totalDays,
		Status:        types.PlanStatusActive,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedPlannedMeal(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uint, day int, category types.Category, name string, kcal float64) *types.PlannedMeal {
	tb.Helper()
	pm := &types.PlannedMeal{
		MealPlanID: planID,
		DayNumber:  day,
		Category:   category,
		MealName:   name,
		Calories:   kcal,
	}
	if err := tx.WithContext(ctx).Create(pm).Error; err != nil {
		tb.Fatalf("seed planned meal: %v", err)
	}
	return pm
}
