package services

import (
	"context"
	"errors"
	"testing"
	"time"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	planmod "github.com/yungbote/mealcoach-backend/internal/modules/mealplan"
)

func TestMealPlanService_GenerateEndToEnd(t *testing.T) {
	f := newFixture(t, planmod.Settings{InitialDays: 7, ChunkDays: 7}, true)
	f.seedPrerequisites(t)
	f.ai.text = func(call int, user string) (string, error) { return f.planJSON(1, 2), nil }

	view, err := f.plans.Generate(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := f.count(t, &types.MealPlan{}); got != 1 {
		t.Fatalf("meal plans: want=1 got=%d", got)
	}
	if got := f.count(t, &types.PlannedMeal{}); got != 8 {
		t.Fatalf("planned meals: want=8 got=%d", got)
	}
	if got := f.count(t, &types.UserMealLog{}); got != 8 {
		t.Fatalf("meal logs: want=8 got=%d", got)
	}

	if view.TotalDays != 7 || len(view.Days) != 7 || view.Status != types.PlanStatusActive {
		t.Fatalf("unexpected view: total=%d days=%d status=%s", view.TotalDays, len(view.Days), view.Status)
	}
	day1 := view.Day(1)
	// 250 from the model, then catalog values for lunch (300), dinner (400), snack (500).
	if day1.TotalCalories != 250+300+400+500 {
		t.Fatalf("day 1 total: want=%v got=%v", 250+300+400+500, day1.TotalCalories)
	}
	if s := day1.Slot(types.CategoryDinner); s.FoodName != "Canh chua cá" || s.Empty {
		t.Fatalf("dinner slot: %+v", s)
	}
	for _, d := range view.Days[2:] {
		for _, s := range d.Slots {
			if !s.Empty {
				t.Fatalf("day %d should be padding only: %+v", d.DayNumber, s)
			}
		}
	}
	if f.metrics.PlanChunkCount("ok") != 1 {
		t.Fatalf("chunk metric: want=1 got=%v", f.metrics.PlanChunkCount("ok"))
	}
}

func TestMealPlanService_RegenerateIsIdempotent(t *testing.T) {
	f := newFixture(t, planmod.Settings{InitialDays: 7, ChunkDays: 7}, true)
	f.seedPrerequisites(t)
	f.ai.text = func(call int, user string) (string, error) { return f.planJSON(1, 2), nil }
	ctx := context.Background()

	first, err := f.plans.Generate(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := f.plans.Regenerate(ctx, f.user.ID); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	second, err := f.plans.Regenerate(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Regenerate again: %v", err)
	}

	if got := f.count(t, &types.MealPlan{}); got != 1 {
		t.Fatalf("meal plans: want=1 got=%d", got)
	}
	if got := f.count(t, &types.PlannedMeal{}); got != 8 {
		t.Fatalf("planned meals: want=8 got=%d", got)
	}
	if got := f.count(t, &types.UserMealLog{}); got != 8 {
		t.Fatalf("meal logs: want=8 got=%d", got)
	}
	if first.PlanID == second.PlanID {
		t.Fatalf("regeneration should create a new plan header")
	}
	for i := range first.Days {
		a, b := first.Days[i], second.Days[i]
		if a.TotalCalories != b.TotalCalories {
			t.Fatalf("day %d total differs: %v vs %v", a.DayNumber, a.TotalCalories, b.TotalCalories)
		}
		for j := range a.Slots {
			if a.Slots[j].FoodName != b.Slots[j].FoodName {
				t.Fatalf("day %d slot %d differs", a.DayNumber, j)
			}
		}
	}
}

func TestMealPlanService_Entitlement(t *testing.T) {
	f := newFixture(t, planmod.Settings{}, false)
	f.seedPrerequisites(t)
	f.ai.text = func(int, string) (string, error) {
		t.Fatalf("model must not be called without entitlement")
		return "", nil
	}

	_, err := f.plans.Generate(context.Background(), f.user.ID)
	var ent *mealplan.EntitlementRequiredError
	if !errors.As(err, &ent) {
		t.Fatalf("want EntitlementRequiredError, got %v", err)
	}

	expired := time.Now().Add(-time.Hour)
	if err := f.userRepo.SetPremium(context.Background(), nil, f.user.ID, true, &expired); err != nil {
		t.Fatalf("SetPremium: %v", err)
	}
	if _, err := f.plans.Generate(context.Background(), f.user.ID); !errors.As(err, &ent) {
		t.Fatalf("expired premium: want EntitlementRequiredError, got %v", err)
	}
}

func TestMealPlanService_PrerequisiteMissing(t *testing.T) {
	f := newFixture(t, planmod.Settings{}, true)
	ctx := context.Background()

	_, err := f.plans.Generate(ctx, f.user.ID)
	var pre *mealplan.PrerequisiteMissingError
	if !errors.As(err, &pre) || pre.Missing != "health profile" {
		t.Fatalf("want missing profile, got %v", err)
	}
	seedProfileOnly(t, f)
	_, err = f.plans.Generate(ctx, f.user.ID)
	if !errors.As(err, &pre) || pre.Missing != "health analysis" {
		t.Fatalf("want missing analysis, got %v", err)
	}
}

func TestMealPlanService_FailureKindsAndPartialPlan(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind mealplan.FailureKind
	}{
		{"rate_limited", statusErr(429), mealplan.FailureRateLimited},
		{"upstream", statusErr(502), mealplan.FailureUpstream},
		{"timeout", context.DeadlineExceeded, mealplan.FailureTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, planmod.Settings{InitialDays: 4, ChunkDays: 2}, true)
			f.seedPrerequisites(t)
			f.ai.text = func(call int, user string) (string, error) {
				if call == 1 {
					return f.planJSON(1, 2), nil
				}
				return "", tc.err
			}

			_, err := f.plans.Generate(context.Background(), f.user.ID)
			var gf *mealplan.GenerationFailedError
			if !errors.As(err, &gf) {
				t.Fatalf("want GenerationFailedError, got %v", err)
			}
			if gf.Kind != tc.kind || gf.FromDay != 3 || gf.ToDay != 4 {
				t.Fatalf("unexpected failure: %+v", gf)
			}

			view, err := f.plans.GetPlan(context.Background(), f.user.ID)
			if err != nil || view == nil {
				t.Fatalf("GetPlan after failure: %v", err)
			}
			if view.Status != types.PlanStatusPartial || view.GeneratedDays != 2 || view.TotalDays != 4 {
				t.Fatalf("unexpected partial plan: status=%s generated=%d total=%d", view.Status, view.GeneratedDays, view.TotalDays)
			}
			if got := f.count(t, &types.PlannedMeal{}); got != 8 {
				t.Fatalf("earlier chunk should stay stored: planned meals=%d", got)
			}
		})
	}
}

func TestMealPlanService_Extend(t *testing.T) {
	f := newFixture(t, planmod.Settings{InitialDays: 2, ChunkDays: 2, ExtendDays: 3}, true)
	f.seedPrerequisites(t)
	ctx := context.Background()

	if _, err := f.plans.Extend(ctx, f.user.ID); !mealplan.IsNotFound(err) {
		t.Fatalf("extend without plan: want NotFoundError, got %v", err)
	}

	f.ai.text = func(call int, user string) (string, error) {
		switch call {
		case 1:
			return f.planJSON(1, 2), nil
		case 2:
			return f.planJSON(3, 4), nil
		default:
			// chunk-relative numbering for the last single-day chunk
			return f.planJSON(1, 1), nil
		}
	}
	if _, err := f.plans.Generate(ctx, f.user.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	view, err := f.plans.Extend(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if view.TotalDays != 5 || view.GeneratedDays != 5 || view.Status != types.PlanStatusActive || len(view.Days) != 5 {
		t.Fatalf("unexpected extended view: %+v", view)
	}
	if view.Day(5).Slot(types.CategoryLunch).Empty {
		t.Fatalf("day 5 should have been generated")
	}
	if got := f.count(t, &types.PlannedMeal{}); got != 20 {
		t.Fatalf("planned meals: want=20 got=%d", got)
	}
}

func TestMealPlanService_GetPlanWithoutPlan(t *testing.T) {
	f := newFixture(t, planmod.Settings{}, true)
	view, err := f.plans.GetPlan(context.Background(), f.user.ID)
	if err != nil || view != nil {
		t.Fatalf("want nil view, got %+v err=%v", view, err)
	}
}

func TestMealPlanService_BusyUser(t *testing.T) {
	f := newFixture(t, planmod.Settings{}, true)
	f.seedPrerequisites(t)
	f.ai.text = func(int, string) (string, error) { return f.planJSON(1, 1), nil }

	release, err := f.locker.Acquire(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	if _, err := f.plans.Generate(context.Background(), f.user.ID); !errors.Is(err, mealplan.ErrUserBusy) {
		t.Fatalf("want ErrUserBusy, got %v", err)
	}
	if f.ai.Calls() != 0 {
		t.Fatalf("model called while user busy")
	}
}

func seedProfileOnly(t *testing.T, f *fixture) {
	t.Helper()
	in := HealthProfileInput{Age: 30, Gender: "MALE", Height: 175, Weight: 80, ActivityLevel: "moderate", Goal: "lose"}
	if _, err := f.health.UpsertProfile(context.Background(), f.user.ID, in); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
}
