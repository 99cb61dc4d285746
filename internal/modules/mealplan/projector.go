package mealplan

import (
	"sort"
	"strings"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
)

// Project builds the client view of a plan from the user's log rows. Every day in
// 1..TotalDays, and any later day that has logs, gets exactly one slot per category.
func Project(plan *types.MealPlan, logs []*types.UserMealLog) *types.PlanView {
	if plan == nil {
		return nil
	}

	ordered := make([]*types.UserMealLog, 0, len(logs))
	for _, l := range logs {
		if l != nil && l.DayNumber >= 1 {
			ordered = append(ordered, l)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].LoggedAt.Equal(ordered[j].LoggedAt) {
			return ordered[i].LoggedAt.Before(ordered[j].LoggedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	byDay := map[int]map[types.Category][]*types.UserMealLog{}
	for _, l := range ordered {
		cat := mealplan.NormalizeCategory(string(l.Category))
		if byDay[l.DayNumber] == nil {
			byDay[l.DayNumber] = map[types.Category][]*types.UserMealLog{}
		}
		byDay[l.DayNumber][cat] = append(byDay[l.DayNumber][cat], l)
	}

	dayNumbers := make([]int, 0, plan.TotalDays+len(byDay))
	for d := 1; d <= plan.TotalDays; d++ {
		dayNumbers = append(dayNumbers, d)
	}
	for d := range byDay {
		if d > plan.TotalDays {
			dayNumbers = append(dayNumbers, d)
		}
	}
	sort.Ints(dayNumbers)

	view := &types.PlanView{
		PlanID:        plan.ID,
		StartDate:     plan.StartDate,
		TotalDays:     plan.TotalDays,
		GeneratedDays: plan.GeneratedDays,
		Status:        plan.Status,
		Days:          make([]types.DaySummary, 0, len(dayNumbers)),
	}
	for _, d := range dayNumbers {
		view.Days = append(view.Days, projectDay(plan, d, byDay[d]))
	}
	return view
}

func projectDay(plan *types.MealPlan, day int, rows map[types.Category][]*types.UserMealLog) types.DaySummary {
	summary := types.DaySummary{
		DayNumber: day,
		Date:      plan.DayDate(day),
		Slots:     make([]types.MealSlot, 0, len(mealplan.Categories)),
	}
	for _, c := range mealplan.Categories {
		slot := mergeSlot(c, rows[c])
		summary.TotalCalories += slot.Calories
		summary.Slots = append(summary.Slots, slot)
	}
	return summary
}

func mergeSlot(c types.Category, rows []*types.UserMealLog) types.MealSlot {
	slot := types.MealSlot{Category: c, Label: c.Label()}
	if len(rows) == 0 {
		slot.FoodName = mealplan.EmptySlotLabel
		slot.Empty = true
		return slot
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if n := strings.TrimSpace(r.FoodName); n != "" {
			names = append(names, n)
		}
		slot.Calories += r.Calories
		slot.CheckedIn = slot.CheckedIn || r.CheckedIn
		slot.LogIDs = append(slot.LogIDs, r.ID)
		if r.PlannedMealID != nil {
			slot.PlannedMealIDs = append(slot.PlannedMealIDs, *r.PlannedMealID)
		}
		if r.ImageURL != "" {
			slot.ImageURL = r.ImageURL
		}
	}
	if len(names) == 0 {
		names = append(names, mealplan.UnnamedDishLabel)
	}
	slot.FoodName = strings.Join(names, mealplan.FoodNameSeparator)
	return slot
}
