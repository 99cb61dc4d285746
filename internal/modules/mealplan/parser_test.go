package mealplan

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
)

const twoDayPlan = `{"days":[
 {"day":1,"meals":[
  {"dish_id":3,"category":"breakfast","name":"Phở bò","calories":450},
  {"dish_id":null,"category":"lunch","name":"Cơm gà","quantity":"1 đĩa","calories":"600 kcal"}
 ]},
 {"day":2,"meals":[
  {"dish_id":"7","type":"Tối","calories":500}
 ]}
]}`

func TestParsePlanResponse_FencedMatchesBare(t *testing.T) {
	r := DayRange{From: 1, To: 7}
	bare, err := ParsePlanResponse(twoDayPlan, r)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	fenced, err := ParsePlanResponse("```json\n"+twoDayPlan+"\n```", r)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	prose, err := ParsePlanResponse("Here is your plan:\n"+twoDayPlan+"\nEnjoy!", r)
	if err != nil {
		t.Fatalf("prose: %v", err)
	}
	if !reflect.DeepEqual(bare, fenced) || !reflect.DeepEqual(bare, prose) {
		t.Fatalf("wrapped responses decoded differently:\nbare=%+v\nfenced=%+v\nprose=%+v", bare, fenced, prose)
	}

	// The same days as a top-level array, bare and fenced.
	dayArray := twoDayPlan[len(`{"days":`) : len(twoDayPlan)-1]
	for name, raw := range map[string]string{
		"array":        dayArray,
		"fenced array": "```json\n" + dayArray + "\n```",
		"prose array":  "Plan:\n" + dayArray + "\nDone.",
	} {
		got, err := ParsePlanResponse(raw, r)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !reflect.DeepEqual(bare, got) {
			t.Fatalf("%s decoded differently:\nbare=%+v\ngot=%+v", name, bare, got)
		}
	}

	if len(bare.Days) != 2 || bare.MealCount() != 3 {
		t.Fatalf("unexpected shape: days=%d meals=%d", len(bare.Days), bare.MealCount())
	}
	m := bare.Days[0].Meals[0]
	if m.DishID == nil || *m.DishID != 3 || m.Name != "Phở bò" || m.Calories == nil || *m.Calories != 450 {
		t.Fatalf("unexpected first meal: %+v", m)
	}
	lunch := bare.Days[0].Meals[1]
	if lunch.DishID != nil || lunch.Quantity != "1 đĩa" || lunch.Calories == nil || *lunch.Calories != 600 {
		t.Fatalf("unexpected lunch: %+v", lunch)
	}
	dinner := bare.Days[1].Meals[0]
	if dinner.DishID == nil || *dinner.DishID != 7 || dinner.RawCategory() != "Tối" || dinner.Name != "" {
		t.Fatalf("unexpected dinner: %+v", dinner)
	}
}

func TestParsePlanResponse_Garbage(t *testing.T) {
	for _, raw := range []string{"", "I cannot help with that.", `{"days": [`, `"just a string"`, `{"foo": 1}`} {
		_, err := ParsePlanResponse(raw, DayRange{From: 1, To: 7})
		var pe *mealplan.PlanParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%q: expected PlanParseError, got %v", raw, err)
		}
		if !IsParseError(err) {
			t.Fatalf("%q: IsParseError=false", raw)
		}
	}
}

func TestParsePlanResponse_EmptyDayList(t *testing.T) {
	parsed, err := ParsePlanResponse(`{"days":[]}`, DayRange{From: 1, To: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Days) != 0 || parsed.MealCount() != 0 || len(parsed.Skipped) != 0 {
		t.Fatalf("expected empty plan, got %+v", parsed)
	}
}

func TestParsePlanResponse_AlternateKeys(t *testing.T) {
	cases := map[string]string{
		"top_level_array": `[{"day":1,"meals":[{"name":"Xôi"}]}]`,
		"plan_key":        `{"plan":[{"day":1,"meals":[{"name":"Xôi"}]}]}`,
		"nested":          `{"mealPlan":{"days":[{"day":1,"meals":[{"name":"Xôi"}]}]}}`,
		"meal_plans":      `{"meal_plans":[{"dayNumber":1,"items":[{"mealName":"Xôi"}]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParsePlanResponse(raw, DayRange{From: 1, To: 3})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(parsed.Days) != 1 || parsed.Days[0].DayNumber != 1 || parsed.MealCount() != 1 || parsed.Days[0].Meals[0].Name != "Xôi" {
				t.Fatalf("unexpected result: %+v", parsed)
			}
		})
	}
}

func TestParsePlanResponse_ChunkRelativeDays(t *testing.T) {
	raw := `{"days":[{"day":1,"meals":[{"name":"A"}]},{"day":2,"meals":[{"name":"B"}]}]}`
	parsed, err := ParsePlanResponse(raw, DayRange{From: 8, To: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Days) != 2 || parsed.Days[0].DayNumber != 8 || parsed.Days[1].DayNumber != 9 {
		t.Fatalf("expected days shifted to 8,9, got %+v", parsed.Days)
	}

	outside := `{"days":[{"day":8,"meals":[{"name":"A"}]},{"day":30,"meals":[{"name":"B"}]}]}`
	parsed, err = ParsePlanResponse(outside, DayRange{From: 8, To: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Days) != 1 || parsed.Days[0].DayNumber != 8 {
		t.Fatalf("expected only day 8, got %+v", parsed.Days)
	}
	if len(parsed.Skipped) != 1 || parsed.Skipped[0].DayNumber != 30 {
		t.Fatalf("expected day 30 skipped, got %+v", parsed.Skipped)
	}
}

func TestParsePlanResponse_MissingDayUsesPosition(t *testing.T) {
	raw := `{"days":[{"meals":[{"name":"A"}]},{"meals":[{"name":"B"}]}]}`
	parsed, err := ParsePlanResponse(raw, DayRange{From: 1, To: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Days) != 2 || parsed.Days[0].DayNumber != 1 || parsed.Days[1].DayNumber != 2 {
		t.Fatalf("unexpected days: %+v", parsed.Days)
	}
}

func TestParsePlanResponse_MalformedEntriesSkipped(t *testing.T) {
	raw := `{"days":[
	  "not a day",
	  {"day":1,"meals":[
	    {"category":"lunch","calories":300},
	    42,
	    {"name":"Bún chả","category":"lunch"}
	  ]}
	]}`
	parsed, err := ParsePlanResponse(raw, DayRange{From: 1, To: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.MealCount() != 1 || parsed.Days[0].Meals[0].Name != "Bún chả" {
		t.Fatalf("expected only the named meal, got %+v", parsed.Days)
	}
	if len(parsed.Skipped) != 3 {
		t.Fatalf("expected 3 skipped entries, got %+v", parsed.Skipped)
	}
	for _, s := range parsed.Skipped {
		if s.Reason == "" || s.Fragment == "" {
			t.Fatalf("skipped entry missing detail: %+v", s)
		}
	}
}

func TestParsePlanResponse_CategoryKeyedMeals(t *testing.T) {
	raw := `{"days":[{"day":1,"meals":{
	  "Bữa sáng": {"name":"Bánh mì"},
	  "dinner": [{"name":"Canh chua"},{"name":"Cơm"}],
	  "notes": {"name":"ignored"}
	}}]}`
	parsed, err := ParsePlanResponse(raw, DayRange{From: 1, To: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meals := parsed.Days[0].Meals
	if len(meals) != 3 {
		t.Fatalf("expected 3 meals, got %+v", meals)
	}
	if mealplan.NormalizeCategory(meals[0].RawCategory()) != mealplan.CategoryBreakfast {
		t.Fatalf("first meal should be breakfast: %+v", meals[0])
	}
	for _, m := range meals[1:] {
		if mealplan.NormalizeCategory(m.RawCategory()) != mealplan.CategoryDinner {
			t.Fatalf("expected dinner: %+v", m)
		}
	}
}

func TestParsedMeal_RawCategoryPrefersCategory(t *testing.T) {
	m := ParsedMeal{Category: "Trưa", Type: "dinner"}
	if got := m.RawCategory(); got != "Trưa" {
		t.Fatalf("RawCategory=%q", got)
	}
	m = ParsedMeal{Category: "  ", Type: "dinner"}
	if got := m.RawCategory(); got != "dinner" {
		t.Fatalf("RawCategory=%q", got)
	}
}

func TestLeadingNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"350", 350, true},
		{"350 kcal", 350, true},
		{"1,250 kcal", 1250, true},
		{"12.5g", 12.5, true},
		{"about 300", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := leadingNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("leadingNumber(%q)=(%v,%v) want (%v,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
