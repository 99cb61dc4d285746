package mealplan

import (
	"fmt"
	"strings"

	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/dbctx"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type ReconcileDeps struct {
	Log          *logger.Logger
	Plans        repos.MealPlanRepo
	Dishes       repos.DishRepo
	PlannedMeals repos.PlannedMealRepo
	MealLogs     repos.MealLogRepo
}

type ReconcileInput struct {
	Plan   *types.MealPlan
	Parsed *ParsedPlan
}

type ReconcileOutput struct {
	PlannedMeals []*types.PlannedMeal
	Logs         []*types.UserMealLog
	Grounded     int
	FreeText     int
	Skipped      int
}

// Reconcile grounds parsed meals against the catalog and writes one planned meal
// plus one synced log row per entry. Run it inside the chunk's transaction; it
// returns mealplan.ErrPlanSuperseded when the plan is no longer the user's current one.
func Reconcile(dbc dbctx.Context, deps ReconcileDeps, in ReconcileInput) (ReconcileOutput, error) {
	out := ReconcileOutput{}
	if in.Plan == nil || in.Plan.ID == 0 {
		return out, fmt.Errorf("reconcile: plan header required")
	}
	if in.Parsed == nil {
		return out, nil
	}
	log := deps.Log.With("user_id", in.Plan.UserID, "meal_plan_id", in.Plan.ID)

	if deps.Plans != nil {
		current, err := deps.Plans.GetByUserID(dbc.Ctx, dbc.Tx, in.Plan.UserID)
		if err != nil {
			return out, fmt.Errorf("load plan header: %w", err)
		}
		if current == nil || current.ID != in.Plan.ID {
			log.Warn("meal plan superseded before chunk was stored")
			return out, mealplan.ErrPlanSuperseded
		}
	}

	for _, s := range in.Parsed.Skipped {
		log.Warn("meal plan entry skipped", "day", s.DayNumber, "reason", s.Reason, "fragment", s.Fragment)
		out.Skipped++
	}

	dishes, err := loadUsableDishes(dbc, deps.Dishes, in.Parsed)
	if err != nil {
		return out, err
	}

	var meals []*types.PlannedMeal
	for _, day := range in.Parsed.Days {
		if day.DayNumber < 1 || day.DayNumber > in.Plan.TotalDays {
			log.Warn("meal plan day outside plan", "day", day.DayNumber, "total_days", in.Plan.TotalDays)
			out.Skipped += len(day.Meals)
			continue
		}
		for _, m := range day.Meals {
			var dish *types.Dish
			if m.DishID != nil {
				dish = dishes[*m.DishID]
				if dish == nil {
					log.Debug("dish reference not in catalog", "day", day.DayNumber, "dish_ref", m.DishRef)
				}
			}
			pm := ResolveMeal(in.Plan.ID, day.DayNumber, m, dish)
			if pm.DishID != nil {
				out.Grounded++
			} else {
				out.FreeText++
			}
			meals = append(meals, pm)
		}
	}
	if len(meals) == 0 {
		return out, nil
	}

	created, err := deps.PlannedMeals.Create(dbc.Ctx, dbc.Tx, meals)
	if err != nil {
		return out, fmt.Errorf("create planned meals: %w", err)
	}
	logs := make([]*types.UserMealLog, 0, len(created))
	for _, pm := range created {
		logs = append(logs, mealplan.SyncedLogFor(in.Plan.UserID, in.Plan, pm))
	}
	createdLogs, err := deps.MealLogs.Create(dbc.Ctx, dbc.Tx, logs)
	if err != nil {
		return out, fmt.Errorf("create synced meal logs: %w", err)
	}
	out.PlannedMeals = created
	out.Logs = createdLogs
	return out, nil
}

// ResolveMeal applies the catalog fallbacks to one parsed entry. dish is nil when
// the reference did not resolve to a usable catalog dish.
func ResolveMeal(planID uint, day int, m ParsedMeal, dish *types.Dish) *types.PlannedMeal {
	pm := &types.PlannedMeal{
		MealPlanID: planID,
		DayNumber:  day,
		Quantity:   strings.TrimSpace(m.Quantity),
	}
	if dish != nil {
		id := dish.ID
		pm.DishID = &id
	}

	switch {
	case strings.TrimSpace(m.Name) != "":
		pm.MealName = strings.TrimSpace(m.Name)
	case dish != nil && strings.TrimSpace(dish.Name) != "":
		pm.MealName = dish.Name
	default:
		pm.MealName = mealplan.UnnamedDishLabel
	}

	switch {
	case m.Calories != nil && *m.Calories >= 0:
		pm.Calories = *m.Calories
	case dish != nil:
		pm.Calories = dish.BaseCalories
	default:
		pm.Calories = 0
	}

	if raw := m.RawCategory(); strings.TrimSpace(raw) != "" || dish == nil {
		pm.Category = mealplan.NormalizeCategory(raw)
	} else {
		pm.Category = dish.Category
	}

	if pm.Quantity == "" && dish != nil && dish.Unit != "" {
		pm.Quantity = "1 " + dish.Unit
	}
	return pm
}

func loadUsableDishes(dbc dbctx.Context, dishRepo repos.DishRepo, parsed *ParsedPlan) (map[uint]*types.Dish, error) {
	seen := map[uint]bool{}
	var ids []uint
	for _, d := range parsed.Days {
		for _, m := range d.Meals {
			if m.DishID != nil && !seen[*m.DishID] {
				seen[*m.DishID] = true
				ids = append(ids, *m.DishID)
			}
		}
	}
	out := make(map[uint]*types.Dish, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := dishRepo.GetByIDs(dbc.Ctx, dbc.Tx, ids)
	if err != nil {
		return nil, fmt.Errorf("load dishes: %w", err)
	}
	for _, d := range rows {
		if d.Usable() {
			out[d.ID] = d
		}
	}
	return out, nil
}
