package mealplan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// ParsedMeal is one meal entry as the model described it. Missing fields stay
// zero; the reconciler fills them from the catalog.
type ParsedMeal struct {
	DishRef  string   // raw dish identifier as sent, "" when absent
	DishID   *uint    // DishRef when it is a positive integer
	Category string   // raw "category" field
	Type     string   // raw "type" field
	Name     string
	Quantity string
	Calories *float64
}

// RawCategory prefers "category" over "type".
func (m ParsedMeal) RawCategory() string {
	if strings.TrimSpace(m.Category) != "" {
		return m.Category
	}
	return m.Type
}

type ParsedDay struct {
	DayNumber int
	Meals     []ParsedMeal
}

// SkippedEntry is a day or meal the parser dropped.
type SkippedEntry struct {
	DayNumber int
	Reason    string
	Fragment  string
}

type ParsedPlan struct {
	Days    []ParsedDay
	Skipped []SkippedEntry
}

func (p *ParsedPlan) MealCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, d := range p.Days {
		n += len(d.Meals)
	}
	return n
}

// DayRange is an inclusive span of 1-based plan days.
type DayRange struct {
	From int
	To   int
}

func (r DayRange) Len() int {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

func (r DayRange) Contains(day int) bool {
	return day >= r.From && day <= r.To
}

var dayListKeys = []string{"days", "plan", "mealPlan", "meal_plan", "meal_plans"}

// ParsePlanResponse decodes model output for the days in r. Day numbers outside r
// but inside 1..r.Len() are read as chunk-relative and shifted; others are skipped.
// Shape failures return *mealplan.PlanParseError.
func ParsePlanResponse(raw string, r DayRange) (*ParsedPlan, error) {
	tree, err := DecodeJSONTree(raw)
	if err != nil {
		return nil, err
	}

	var days []any
	switch v := tree.(type) {
	case []any:
		days = v
	case map[string]any:
		list, ok := lookupDayList(v)
		if !ok {
			return nil, &mealplan.PlanParseError{
				Reason:   "missing day list",
				Fragment: logger.Truncate(raw),
			}
		}
		days = list
	default:
		return nil, &mealplan.PlanParseError{
			Reason:   fmt.Sprintf("unexpected top-level %T", tree),
			Fragment: logger.Truncate(raw),
		}
	}

	out := &ParsedPlan{}
	byDay := map[int]int{}
	for i, item := range days {
		obj, ok := item.(map[string]any)
		if !ok {
			out.Skipped = append(out.Skipped, SkippedEntry{Reason: "day entry is not an object", Fragment: fragment(item)})
			continue
		}
		day, ok := intField(obj, "day", "dayNumber", "day_number", "dayIndex")
		if !ok {
			day = i + 1
		}
		day, ok = placeDay(day, r)
		if !ok {
			out.Skipped = append(out.Skipped, SkippedEntry{DayNumber: day, Reason: "day outside requested range", Fragment: fragment(obj)})
			continue
		}

		meals, skipped := parseMeals(obj, day)
		out.Skipped = append(out.Skipped, skipped...)

		if idx, seen := byDay[day]; seen {
			out.Days[idx].Meals = append(out.Days[idx].Meals, meals...)
			continue
		}
		byDay[day] = len(out.Days)
		out.Days = append(out.Days, ParsedDay{DayNumber: day, Meals: meals})
	}
	return out, nil
}

func placeDay(day int, r DayRange) (int, bool) {
	if r.Len() == 0 {
		return day, day >= 1
	}
	if r.Contains(day) {
		return day, true
	}
	if day >= 1 && day <= r.Len() {
		return r.From + day - 1, true
	}
	return day, false
}

func lookupDayList(obj map[string]any) ([]any, bool) {
	for _, k := range dayListKeys {
		if v, ok := obj[k]; ok {
			switch t := v.(type) {
			case []any:
				return t, true
			case map[string]any:
				// {"plan": {"days": [...]}}
				if inner, ok := lookupDayList(t); ok {
					return inner, true
				}
			}
		}
	}
	return nil, false
}

func parseMeals(day map[string]any, dayNumber int) ([]ParsedMeal, []SkippedEntry) {
	var entries []any
	var implied []string
	switch v := firstPresent(day, "meals", "items", "menu").(type) {
	case []any:
		entries = v
	case map[string]any:
		// {"breakfast": {...}, "lunch": [{...}]}
		for _, c := range mealplan.Categories {
			for key, val := range v {
				if kc, ok := mealplan.LookupCategory(key); !ok || kc != c {
					continue
				}
				switch t := val.(type) {
				case []any:
					for _, e := range t {
						entries = append(entries, e)
						implied = append(implied, key)
					}
				default:
					entries = append(entries, t)
					implied = append(implied, key)
				}
			}
		}
	}

	var meals []ParsedMeal
	var skipped []SkippedEntry
	for i, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			skipped = append(skipped, SkippedEntry{DayNumber: dayNumber, Reason: "meal entry is not an object", Fragment: fragment(e)})
			continue
		}
		m := ParsedMeal{
			DishRef:  stringField(obj, "dishId", "dish_id", "id"),
			Category: stringField(obj, "category"),
			Type:     stringField(obj, "type", "mealType", "meal_type"),
			Name:     stringField(obj, "name", "mealName", "meal_name", "dishName", "dish_name"),
			Quantity: stringField(obj, "quantity", "portion", "amount"),
		}
		if m.Category == "" && m.Type == "" && i < len(implied) {
			m.Category = implied[i]
		}
		if id, err := strconv.ParseUint(m.DishRef, 10, 64); err == nil && id > 0 {
			u := uint(id)
			m.DishID = &u
		}
		if kcal, ok := floatField(obj, "calories", "kcal", "calo", "energy"); ok {
			m.Calories = &kcal
		}
		if m.DishRef == "" && m.Name == "" {
			skipped = append(skipped, SkippedEntry{DayNumber: dayNumber, Reason: "meal has neither dish id nor name", Fragment: fragment(obj)})
			continue
		}
		meals = append(meals, m)
	}
	return meals, skipped
}

// DecodeJSONTree strips fences or prose around a JSON value and decodes it into
// map[string]any / []any with json.Number leaves.
func DecodeJSONTree(raw string) (any, error) {
	text := ExtractJSON(raw)
	if text == "" {
		return nil, &mealplan.PlanParseError{Reason: "empty response", Fragment: logger.Truncate(raw)}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, &mealplan.PlanParseError{Reason: "invalid json", Fragment: logger.Truncate(text), Err: err}
	}
	if dec.More() {
		return nil, &mealplan.PlanParseError{Reason: "trailing data after json", Fragment: logger.Truncate(text)}
	}
	return tree, nil
}

// DecodeJSONObject is DecodeJSONTree for responses that must be a single object.
func DecodeJSONObject(raw string) (map[string]any, error) {
	tree, err := DecodeJSONTree(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil, &mealplan.PlanParseError{Reason: fmt.Sprintf("expected object, got %T", tree), Fragment: logger.Truncate(raw)}
	}
	return obj, nil
}

// ExtractJSON returns the JSON payload of a model response. A leading code fence
// is stripped first; surrounding prose is cut at whichever of '{' or '[' opens
// first and its last matching closer.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = stripMarkdownCodeFences(s)
	}
	if s == "" {
		return ""
	}
	if (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) || (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) {
		return s
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(s, closer); end > start {
		return s[start : end+1]
	}
	return s
}

func stripMarkdownCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return ""
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "```" {
		return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
	}
	return strings.TrimSpace(strings.Join(lines[1:], "\n"))
}

// IsParseError reports whether err came from decoding model output.
func IsParseError(err error) bool {
	var pe *mealplan.PlanParseError
	return errors.As(err, &pe)
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(obj map[string]any, keys ...string) string {
	switch v := firstPresent(obj, keys...).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func intField(obj map[string]any, keys ...string) (int, bool) {
	f, ok := floatField(obj, keys...)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// floatField accepts numbers and numeric strings such as "350" or "350 kcal".
func floatField(obj map[string]any, keys ...string) (float64, bool) {
	switch v := firstPresent(obj, keys...).(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case float64:
		return v, true
	case string:
		return leadingNumber(v)
	default:
		return 0, false
	}
}

func leadingNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	return f, err == nil
}

func fragment(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return logger.Truncate(fmt.Sprint(v))
	}
	return logger.Truncate(string(b))
}
