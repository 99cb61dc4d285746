package mealplan

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	"github.com/yungbote/mealcoach-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/dbctx"
)

func floatPtr(v float64) *float64 { return &v }

func TestResolveMeal_Fallbacks(t *testing.T) {
	dish := &types.Dish{ID: 4, Name: "Phở bò", Category: types.CategoryBreakfast, BaseCalories: 500, Unit: "tô", Verified: true}

	cases := []struct {
		name     string
		meal     ParsedMeal
		dish     *types.Dish
		wantName string
		wantKcal float64
		wantCat  types.Category
		wantQty  string
		wantDish bool
	}{
		{
			name:     "model_values_win",
			meal:     ParsedMeal{DishID: uintPtr(4), Name: "Phở gà", Category: "Trưa", Calories: floatPtr(300), Quantity: "1 bát"},
			dish:     dish,
			wantName: "Phở gà", wantKcal: 300, wantCat: types.CategoryLunch, wantQty: "1 bát", wantDish: true,
		},
		{
			name:     "catalog_fills_gaps",
			meal:     ParsedMeal{DishID: uintPtr(4)},
			dish:     dish,
			wantName: "Phở bò", wantKcal: 500, wantCat: types.CategoryBreakfast, wantQty: "1 tô", wantDish: true,
		},
		{
			name:     "negative_calories_use_catalog",
			meal:     ParsedMeal{DishID: uintPtr(4), Type: "dinner", Calories: floatPtr(-1)},
			dish:     dish,
			wantName: "Phở bò", wantKcal: 500, wantCat: types.CategoryDinner, wantQty: "1 tô", wantDish: true,
		},
		{
			name:     "free_text",
			meal:     ParsedMeal{Name: "Gỏi cuốn", Category: "weird"},
			wantName: "Gỏi cuốn", wantKcal: 0, wantCat: types.CategorySnack,
		},
		{
			name:     "unresolved_reference",
			meal:     ParsedMeal{DishRef: "99", DishID: uintPtr(99)},
			wantName: mealplan.UnnamedDishLabel, wantKcal: 0, wantCat: types.CategorySnack,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pm := ResolveMeal(11, 2, tc.meal, tc.dish)
			if pm.MealPlanID != 11 || pm.DayNumber != 2 {
				t.Fatalf("unexpected ids: %+v", pm)
			}
			if pm.MealName != tc.wantName || pm.Calories != tc.wantKcal || pm.Category != tc.wantCat || pm.Quantity != tc.wantQty {
				t.Fatalf("got name=%q kcal=%v cat=%s qty=%q", pm.MealName, pm.Calories, pm.Category, pm.Quantity)
			}
			if (pm.DishID != nil) != tc.wantDish {
				t.Fatalf("dish id presence: %v", pm.DishID)
			}
		})
	}
}

func TestReconcile_PersistsMealsAndSyncedLogs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	u := testutil.SeedUser(t, ctx, tx, true)
	verified := testutil.SeedDish(t, ctx, tx, "Bánh mì", types.CategoryBreakfast, 350, true)
	unverified := testutil.SeedDish(t, ctx, tx, "Món thử", types.CategoryLunch, 800, false)
	plan := testutil.SeedPlan(t, ctx, tx, u.ID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 7)

	deps := ReconcileDeps{
		Log:          log,
		Plans:        repos.NewMealPlanRepo(db, log),
		Dishes:       repos.NewDishRepo(db, log),
		PlannedMeals: repos.NewPlannedMealRepo(db, log),
		MealLogs:     repos.NewMealLogRepo(db, log),
	}
	parsed := &ParsedPlan{
		Days: []ParsedDay{
			{DayNumber: 1, Meals: []ParsedMeal{
				{DishID: &verified.ID, Category: "breakfast"},
				{DishID: &unverified.ID, Name: "Cơm sườn", Category: "lunch", Calories: floatPtr(650)},
				{Name: "Canh", Category: "Tối"},
			}},
			{DayNumber: 9, Meals: []ParsedMeal{{Name: "beyond plan"}}},
		},
		Skipped: []SkippedEntry{{DayNumber: 1, Reason: "meal has neither dish id nor name", Fragment: "{}"}},
	}

	out, err := Reconcile(dbctx.Context{Ctx: ctx, Tx: tx}, deps, ReconcileInput{Plan: plan, Parsed: parsed})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(out.PlannedMeals) != 3 || len(out.Logs) != 3 {
		t.Fatalf("expected 3 meals and logs, got %d/%d", len(out.PlannedMeals), len(out.Logs))
	}
	if out.Grounded != 1 || out.FreeText != 2 || out.Skipped != 2 {
		t.Fatalf("unexpected counters: %+v", out)
	}
	if out.PlannedMeals[0].Calories != 350 || out.PlannedMeals[0].MealName != "Bánh mì" {
		t.Fatalf("grounded meal not filled from catalog: %+v", out.PlannedMeals[0])
	}
	if out.PlannedMeals[1].DishID != nil {
		t.Fatalf("unverified dish must not ground a fresh plan: %+v", out.PlannedMeals[1])
	}

	stored, err := deps.MealLogs.ListByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored logs, got %d", len(stored))
	}
	for _, l := range stored {
		if l.PlannedMealID == nil || l.MealPlanID == nil || *l.MealPlanID != plan.ID {
			t.Fatalf("synced log not linked: %+v", l)
		}
		if l.CheckedIn || !l.PlanCompliant || l.DayNumber != 1 {
			t.Fatalf("unexpected synced log state: %+v", l)
		}
	}

	view := Project(plan, stored)
	if got := view.Day(1).TotalCalories; got != 350+650 {
		t.Fatalf("day 1 total=%v", got)
	}
}

func TestReconcile_RequiresPlan(t *testing.T) {
	_, err := Reconcile(dbctx.Context{Ctx: context.Background()}, ReconcileDeps{}, ReconcileInput{})
	if err == nil {
		t.Fatalf("expected error without plan header")
	}
}
