package mealplan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	types "github.com/yungbote/mealcoach-backend/internal/domain"
)

// Prompt is a rendered system/user pair for the model.
type Prompt struct {
	System string
	User   string
}

type promptSpec struct {
	name   string
	system string
	user   *template.Template
}

func mustSpec(name, system, user string) promptSpec {
	return promptSpec{
		name:   name,
		system: strings.TrimSpace(system),
		user:   template.Must(template.New(name).Option("missingkey=zero").Parse(strings.TrimSpace(user))),
	}
}

func (p promptSpec) render(in any) (Prompt, error) {
	var buf bytes.Buffer
	if err := p.user.Execute(&buf, in); err != nil {
		return Prompt{}, fmt.Errorf("render %s prompt: %w", p.name, err)
	}
	return Prompt{System: p.system, User: buf.String()}, nil
}

var planChunkPrompt = mustSpec("meal_plan_chunk", `
Bạn là chuyên gia dinh dưỡng lập thực đơn cá nhân hóa cho người Việt.
You build day-by-day meal plans grounded in a fixed dish catalog.
Prefer dishes from the catalog and reference them by dish_id.
Every day has exactly four meals: breakfast, lunch, dinner, snack.
Return JSON only. No markdown, no commentary.`, `
HEALTH PROFILE:
{{.ProfileJSON}}

LATEST HEALTH ANALYSIS:
{{.AnalysisJSON}}

DISH CATALOG (dish_id | name | category | kcal per unit):
{{.CatalogLines}}

Plan days {{.FromDay}} to {{.ToDay}} (day 1 is {{.StartDate}}).

Output schema:
{"days":[{"day":<int {{.FromDay}}..{{.ToDay}}>,"meals":[{"dish_id":<int or null>,"category":"breakfast|lunch|dinner|snack","name":"<dish name>","quantity":"<portion>","calories":<number>}]}]}

Rules:
- One object per day, days {{.FromDay}}..{{.ToDay}} in order.
- Use dish_id from the catalog when the dish exists there; otherwise set dish_id null and give a name.
- Keep daily calories close to the analysis target{{if .TargetCalories}} ({{.TargetCalories}} kcal){{end}}.
- Vary dishes across days.`)

var healthAnalysisPrompt = mustSpec("health_analysis", `
You are a clinical nutrition assistant. Analyse the user's self-reported health profile.
Compute BMI, BMR (Mifflin-St Jeor) and TDEE from the profile.
Answer in Vietnamese inside the JSON string fields.
Return JSON only.`, `
HEALTH PROFILE:
{{.ProfileJSON}}

Output schema:
{"bmi":<number>,"bmi_category":"<string>","bmr":<number>,"tdee":<number>,"target_calories":<number>,"summary":"<2-4 sentences>","recommendations":["<string>"],"risks":["<string>"]}`)

var foodAnalysisPrompt = mustSpec("food_analysis", `
You recognise Vietnamese and international dishes from photos and estimate nutrition.
Estimate for the portion visible in the photo.
Return JSON only.`, `
{{if .Category}}The user says this is their {{.Category}} meal.
{{end}}{{if .PlannedMealName}}The planned meal for this slot was: {{.PlannedMealName}}.
{{end}}{{if .LabelHints}}Image labels detected: {{.LabelHints}}.
{{end}}
Output schema:
{"food_name":"<dish name>","calories":<number>,"protein":<grams>,"carbs":<grams>,"fat":<grams>,"detail":"<short nutrition note>"}`)

// PlanPromptInput carries the context of one generation chunk.
type PlanPromptInput struct {
	Profile  *types.HealthProfile
	Analysis *types.HealthAnalysis
	Dishes   []*types.Dish
	Range    DayRange
	Start    time.Time
}

func BuildPlanChunkPrompt(in PlanPromptInput) (Prompt, error) {
	if in.Range.Len() == 0 {
		return Prompt{}, fmt.Errorf("empty day range %d-%d", in.Range.From, in.Range.To)
	}
	data := struct {
		ProfileJSON    string
		AnalysisJSON   string
		CatalogLines   string
		FromDay        int
		ToDay          int
		StartDate      string
		TargetCalories int
	}{
		ProfileJSON:    profileJSON(in.Profile),
		AnalysisJSON:   analysisJSON(in.Analysis),
		CatalogLines:   catalogLines(in.Dishes),
		FromDay:        in.Range.From,
		ToDay:          in.Range.To,
		StartDate:      in.Start.Format("2006-01-02"),
		TargetCalories: targetCalories(in.Analysis),
	}
	return planChunkPrompt.render(data)
}

func BuildHealthAnalysisPrompt(profile *types.HealthProfile) (Prompt, error) {
	return healthAnalysisPrompt.render(struct{ ProfileJSON string }{profileJSON(profile)})
}

type FoodPromptInput struct {
	Category        types.Category
	PlannedMealName string
	LabelHints      []string
}

func BuildFoodAnalysisPrompt(in FoodPromptInput) (Prompt, error) {
	data := struct {
		Category        string
		PlannedMealName string
		LabelHints      string
	}{
		PlannedMealName: in.PlannedMealName,
		LabelHints:      strings.Join(in.LabelHints, ", "),
	}
	if in.Category != "" {
		data.Category = string(in.Category)
	}
	return foodAnalysisPrompt.render(data)
}

func profileJSON(p *types.HealthProfile) string {
	if p == nil {
		return "{}"
	}
	view := map[string]any{
		"age":            p.Age,
		"gender":         p.Gender,
		"height_cm":      p.HeightCM,
		"weight_kg":      p.WeightKG,
		"activity_level": p.ActivityLevel,
		"stress_level":   p.StressLevel,
		"sleep_hours":    p.SleepHours,
		"goal":           p.Goal,
	}
	if len(p.Conditions) > 0 {
		view["conditions"] = json.RawMessage(p.Conditions)
	}
	b, _ := json.Marshal(view)
	return string(b)
}

func analysisJSON(a *types.HealthAnalysis) string {
	if a == nil || len(a.Result) == 0 {
		return "{}"
	}
	return string(a.Result)
}

func targetCalories(a *types.HealthAnalysis) int {
	if a == nil || len(a.Result) == 0 {
		return 0
	}
	var v struct {
		Target float64 `json:"target_calories"`
		TDEE   float64 `json:"tdee"`
	}
	if err := json.Unmarshal(a.Result, &v); err != nil {
		return 0
	}
	if v.Target > 0 {
		return int(v.Target + 0.5)
	}
	return int(v.TDEE + 0.5)
}

func catalogLines(dishes []*types.Dish) string {
	var b strings.Builder
	for _, d := range dishes {
		if d == nil {
			continue
		}
		unit := d.Unit
		if unit == "" {
			unit = "phần"
		}
		fmt.Fprintf(&b, "%d | %s | %s | %.0f/%s\n", d.ID, d.Name, d.Category, d.BaseCalories, unit)
	}
	if b.Len() == 0 {
		return "(empty: invent suitable dishes with dish_id null)"
	}
	return strings.TrimRight(b.String(), "\n")
}
