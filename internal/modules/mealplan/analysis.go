package mealplan

import (
	"encoding/json"
	"strings"

	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// FoodAnalysis is the model's estimate for one meal photo.
type FoodAnalysis struct {
	FoodName string  `json:"food_name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Detail   string  `json:"detail"`
}

// NutritionDetail is the text stored on the log row.
func (f FoodAnalysis) NutritionDetail() string {
	b, _ := json.Marshal(struct {
		Protein float64 `json:"protein"`
		Carbs   float64 `json:"carbs"`
		Fat     float64 `json:"fat"`
		Detail  string  `json:"detail,omitempty"`
	}{f.Protein, f.Carbs, f.Fat, f.Detail})
	return string(b)
}

// ParseFoodAnalysis decodes a photo analysis. A response without a food name is
// a parse error; missing numbers stay zero.
func ParseFoodAnalysis(raw string) (*FoodAnalysis, error) {
	obj, err := DecodeJSONObject(raw)
	if err != nil {
		return nil, err
	}
	out := &FoodAnalysis{
		FoodName: stringField(obj, "food_name", "foodName", "name", "dish"),
		Detail:   stringField(obj, "detail", "details", "description", "note"),
	}
	if out.FoodName == "" {
		return nil, &mealplan.PlanParseError{Reason: "food analysis has no food name", Fragment: logger.Truncate(raw)}
	}
	out.Calories = nonNegative(obj, "calories", "kcal", "calo")
	out.Protein = nonNegative(obj, "protein")
	out.Carbs = nonNegative(obj, "carbs", "carbohydrates")
	out.Fat = nonNegative(obj, "fat")
	return out, nil
}

// HealthAnalysisResult is the decoded analysis. Raw keeps the model's object
// verbatim for storage.
type HealthAnalysisResult struct {
	Summary        string
	TargetCalories float64
	Raw            json.RawMessage
}

// ParseHealthAnalysis decodes a health analysis response. The summary falls back
// to the first recommendation when the model omitted it.
func ParseHealthAnalysis(raw string) (*HealthAnalysisResult, error) {
	obj, err := DecodeJSONObject(raw)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, &mealplan.PlanParseError{Reason: "re-encode analysis", Fragment: logger.Truncate(raw), Err: err}
	}
	out := &HealthAnalysisResult{
		Summary: stringField(obj, "summary", "overview"),
		Raw:     b,
	}
	if out.Summary == "" {
		if recs, ok := obj["recommendations"].([]any); ok {
			for _, r := range recs {
				if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
					out.Summary = strings.TrimSpace(s)
					break
				}
			}
		}
	}
	if v, ok := floatField(obj, "target_calories", "targetCalories"); ok && v > 0 {
		out.TargetCalories = v
	} else if v, ok := floatField(obj, "tdee"); ok && v > 0 {
		out.TargetCalories = v
	}
	return out, nil
}

func nonNegative(obj map[string]any, keys ...string) float64 {
	v, ok := floatField(obj, keys...)
	if !ok || v < 0 {
		return 0
	}
	return v
}
