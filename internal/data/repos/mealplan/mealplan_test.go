package mealplan

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/mealcoach-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
)

func TestMealPlanRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	u := testutil.SeedUser(t, ctx, tx, true)
	repo := NewMealPlanRepo(db, log)

	none, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID empty: %v", err)
	}
	if none != nil {
		t.Fatalf("GetByUserID empty: expected nil, got %+v", none)
	}

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	plan, err := repo.Create(ctx, tx, &types.MealPlan{UserID: u.ID, StartDate: start, TotalDays: 7})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if plan.ID == 0 || plan.Status != types.PlanStatusGenerating {
		t.Fatalf("Create: unexpected plan %+v", plan)
	}

	if err := repo.UpdateFields(ctx, tx, plan.ID, map[string]any{
		"generated_days": 7,
		"status":         types.PlanStatusActive,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got == nil || got.GeneratedDays != 7 || got.Status != types.PlanStatusActive {
		t.Fatalf("GetByUserID: unexpected plan %+v", got)
	}

	if err := repo.DeleteByID(ctx, tx, plan.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	got, err = repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("GetByUserID after delete: expected nil, got %+v", got)
	}
}

func TestPlannedMealRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	u := testutil.SeedUser(t, ctx, tx, true)
	plan := testutil.SeedPlan(t, ctx, tx, u.ID, time.Now().UTC(), 7)
	repo := NewPlannedMealRepo(db, log)

	created, err := repo.Create(ctx, tx, []*types.PlannedMeal{
		{MealPlanID: plan.ID, DayNumber: 2, Category: types.CategoryLunch, MealName: "Cơm gà", Calories: 550},
		{MealPlanID: plan.ID, DayNumber: 1, Category: types.CategoryBreakfast, MealName: "Phở bò", Calories: 450},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 2 || created[0].ID == 0 {
		t.Fatalf("Create: unexpected result %+v", created)
	}

	list, err := repo.ListByPlanID(ctx, tx, plan.ID)
	if err != nil {
		t.Fatalf("ListByPlanID: %v", err)
	}
	if len(list) != 2 || list[0].DayNumber != 1 || list[1].DayNumber != 2 {
		t.Fatalf("ListByPlanID: expected day order 1,2 got %+v", list)
	}

	one, err := repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if one == nil || one.MealName != "Cơm gà" {
		t.Fatalf("GetByID: unexpected %+v", one)
	}

	if err := repo.DeleteByPlanID(ctx, tx, plan.ID); err != nil {
		t.Fatalf("DeleteByPlanID: %v", err)
	}
	list, err = repo.ListByPlanID(ctx, tx, plan.ID)
	if err != nil {
		t.Fatalf("ListByPlanID after delete: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("ListByPlanID after delete: expected empty, got %d", len(list))
	}
}

func TestMealLogRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	u := testutil.SeedUser(t, ctx, tx, true)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	plan := testutil.SeedPlan(t, ctx, tx, u.ID, start, 7)
	pm := testutil.SeedPlannedMeal(t, ctx, tx, plan.ID, 2, types.CategoryDinner, "Canh chua", 320)
	repo := NewMealLogRepo(db, log)

	synced := types.SyncedLogFor(u.ID, plan, pm)
	standalone := &types.UserMealLog{
		UserID:    u.ID,
		DayNumber: 1,
		Category:  types.CategorySnack,
		FoodName:  "Chuối",
		Calories:  90,
		CheckedIn: true,
		LoggedAt:  start,
	}
	if _, err := repo.Create(ctx, tx, []*types.UserMealLog{synced, standalone}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !synced.LoggedAt.Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("synced LoggedAt: want=%v got=%v", start.AddDate(0, 0, 1), synced.LoggedAt)
	}

	list, err := repo.ListByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(list) != 2 || list[0].FoodName != "Chuối" {
		t.Fatalf("ListByUserID: expected logged_at order, got %+v", list)
	}

	latest, err := repo.GetLatestByPlannedMeal(ctx, tx, u.ID, pm.ID)
	if err != nil {
		t.Fatalf("GetLatestByPlannedMeal: %v", err)
	}
	if latest == nil || latest.ID != synced.ID || latest.Version != 1 {
		t.Fatalf("GetLatestByPlannedMeal: unexpected %+v", latest)
	}

	ok, err := repo.UpdateFields(ctx, tx, latest.ID, latest.Version, map[string]any{"checked_in": true})
	if err != nil || !ok {
		t.Fatalf("UpdateFields: ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateFields(ctx, tx, latest.ID, latest.Version, map[string]any{"checked_in": false})
	if err != nil {
		t.Fatalf("UpdateFields stale: %v", err)
	}
	if ok {
		t.Fatalf("UpdateFields stale: expected version conflict")
	}
	latest, _ = repo.GetLatestByPlannedMeal(ctx, tx, u.ID, pm.ID)
	if !latest.CheckedIn || latest.Version != 2 {
		t.Fatalf("after update: want checked_in=true version=2 got %+v", latest)
	}

	if err := repo.DeleteByPlanID(ctx, tx, plan.ID); err != nil {
		t.Fatalf("DeleteByPlanID: %v", err)
	}
	list, _ = repo.ListByUserID(ctx, tx, u.ID)
	if len(list) != 1 || list[0].PlannedMealID != nil {
		t.Fatalf("DeleteByPlanID: expected only the standalone row, got %+v", list)
	}
}
