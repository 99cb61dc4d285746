package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mealcoach-backend/internal/clients/gcp"
	"github.com/yungbote/mealcoach-backend/internal/clients/openai"
	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	planmod "github.com/yungbote/mealcoach-backend/internal/modules/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
	"github.com/yungbote/mealcoach-backend/internal/pkg/pointers"
)

// CheckInInput is a check-in payload. With PlannedMealID it checks in that slot,
// otherwise it records a standalone meal.
type CheckInInput struct {
	PlannedMealID   *uint    `json:"planned_meal_id"`
	DayNumber       *int     `json:"day_number"`
	Category        *string  `json:"category"`
	FoodName        *string  `json:"food_name"`
	Calories        *float64 `json:"calories"`
	ImageURL        *string  `json:"image_url"`
	NutritionDetail *string  `json:"nutrition_detail"`
}

// AnalyzeInput carries either raw image bytes or a reachable image URL.
type AnalyzeInput struct {
	ImageBytes    []byte
	ImageURL      string
	ContentType   string
	PlannedMealID *uint
	Category      *string
}

type AnalysisResult struct {
	FoodName        string             `json:"food_name"`
	Calories        float64            `json:"calories"`
	NutritionDetail string             `json:"nutrition_detail"`
	Log             *types.UserMealLog `json:"log"`
}

// VisionGenerator is the multimodal part of the model client.
type VisionGenerator interface {
	GenerateTextWithImages(ctx context.Context, system string, user string, images []openai.ImageInput) (string, error)
}

type MealLogService interface {
	RecordCheckIn(ctx context.Context, userID uuid.UUID, in CheckInInput) (*types.UserMealLog, error)
	AnalyzeAndLog(ctx context.Context, userID uuid.UUID, in AnalyzeInput) (*AnalysisResult, error)
}

type MealLogServiceDeps struct {
	Log          *logger.Logger
	Vision       VisionGenerator
	Photos       gcp.PhotoStore    // optional
	Labels       gcp.LabelDetector // optional
	Locker       UserLocker
	Plans        repos.MealPlanRepo
	PlannedMeals repos.PlannedMealRepo
	MealLogs     repos.MealLogRepo
	Metrics      *observability.Metrics
}

type mealLogService struct {
	log  *logger.Logger
	deps MealLogServiceDeps
	now  func() time.Time
}

func NewMealLogService(deps MealLogServiceDeps) MealLogService {
	return &mealLogService{
		log:  deps.Log.With("service", "MealLogService"),
		deps: deps,
		now:  time.Now,
	}
}

func (s *mealLogService) RecordCheckIn(ctx context.Context, userID uuid.UUID, in CheckInInput) (*types.UserMealLog, error) {
	if in.Calories != nil && *in.Calories < 0 {
		return nil, &mealplan.ValidationError{Field: "calories", Reason: "must not be negative"}
	}
	release, err := acquireUserLock(ctx, s.deps.Locker, s.deps.Metrics, s.log, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	plan, err := s.deps.Plans.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if in.PlannedMealID != nil {
		return s.checkInPlanned(ctx, userID, plan, *in.PlannedMealID, in)
	}
	return s.checkInStandalone(ctx, userID, plan, in)
}

func (s *mealLogService) checkInPlanned(ctx context.Context, userID uuid.UUID, plan *types.MealPlan, plannedMealID uint, in CheckInInput) (*types.UserMealLog, error) {
	pm, err := s.deps.PlannedMeals.GetByID(ctx, nil, plannedMealID)
	if err != nil {
		return nil, err
	}
	if pm == nil || plan == nil || pm.MealPlanID != plan.ID {
		return nil, &mealplan.NotFoundError{Entity: "planned meal", ID: plannedMealID}
	}

	foodName := pm.MealName
	compliant := true
	if in.FoodName != nil && strings.TrimSpace(*in.FoodName) != "" {
		foodName = strings.TrimSpace(*in.FoodName)
		compliant = strings.EqualFold(foodName, strings.TrimSpace(pm.MealName))
	}
	calories := pointers.Deref(in.Calories, pm.Calories)

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.deps.MealLogs.GetLatestByPlannedMeal(ctx, nil, userID, pm.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			row := mealplan.SyncedLogFor(userID, plan, pm)
			row.FoodName = foodName
			row.Calories = calories
			row.CheckedIn = true
			row.PlanCompliant = compliant
			row.LoggedAt = s.now().UTC()
			applyOptional(row, in)
			created, err := s.deps.MealLogs.Create(ctx, nil, []*types.UserMealLog{row})
			if err != nil {
				return nil, fmt.Errorf("create meal log: %w", err)
			}
			s.deps.Metrics.IncCheckIn("planned_insert")
			s.log.Info("planned meal checked in", "user_id", userID, "planned_meal_id", pm.ID, "meal_log_id", created[0].ID)
			return created[0], nil
		}

		updates := map[string]any{
			"checked_in":     true,
			"food_name":      foodName,
			"calories":       calories,
			"plan_compliant": compliant,
			"day_number":     pm.DayNumber,
			"category":       pm.Category,
		}
		if in.ImageURL != nil {
			updates["image_url"] = strings.TrimSpace(*in.ImageURL)
		}
		if in.NutritionDetail != nil {
			updates["nutrition_detail"] = *in.NutritionDetail
		}
		ok, err := s.deps.MealLogs.UpdateFields(ctx, nil, existing.ID, existing.Version, updates)
		if err != nil {
			return nil, fmt.Errorf("update meal log: %w", err)
		}
		if ok {
			s.deps.Metrics.IncCheckIn("planned_update")
			s.log.Info("planned meal checked in", "user_id", userID, "planned_meal_id", pm.ID, "meal_log_id", existing.ID)
			return s.deps.MealLogs.GetLatestByPlannedMeal(ctx, nil, userID, pm.ID)
		}
		s.log.Warn("meal log changed concurrently, retrying", "user_id", userID, "meal_log_id", existing.ID, "version", existing.Version)
	}
	return nil, fmt.Errorf("check in planned meal %d: %w", pm.ID, mealplan.ErrUserBusy)
}

func (s *mealLogService) checkInStandalone(ctx context.Context, userID uuid.UUID, plan *types.MealPlan, in CheckInInput) (*types.UserMealLog, error) {
	if in.FoodName == nil || strings.TrimSpace(*in.FoodName) == "" {
		return nil, &mealplan.ValidationError{Field: "food_name", Reason: "required without planned_meal_id"}
	}
	now := s.now()
	day := 1
	switch {
	case in.DayNumber != nil && *in.DayNumber >= 1:
		day = *in.DayNumber
	case plan != nil:
		day = plan.DayAt(now)
	}

	row := &types.UserMealLog{
		UserID:        userID,
		DayNumber:     day,
		Category:      mealplan.NormalizeCategoryPtr(in.Category),
		FoodName:      strings.TrimSpace(*in.FoodName),
		CheckedIn:     true,
		PlanCompliant: false,
		LoggedAt:      now.UTC(),
	}
	row.Calories = pointers.Deref(in.Calories, 0)
	if plan != nil {
		row.MealPlanID = pointers.Uint(plan.ID)
	}
	applyOptional(row, in)

	created, err := s.deps.MealLogs.Create(ctx, nil, []*types.UserMealLog{row})
	if err != nil {
		return nil, fmt.Errorf("create meal log: %w", err)
	}
	s.deps.Metrics.IncCheckIn("standalone")
	s.log.Info("standalone meal logged", "user_id", userID, "meal_log_id", created[0].ID, "day", day, "category", row.Category)
	return created[0], nil
}

func applyOptional(row *types.UserMealLog, in CheckInInput) {
	if in.ImageURL != nil {
		row.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.NutritionDetail != nil {
		row.NutritionDetail = *in.NutritionDetail
	}
}

func (s *mealLogService) AnalyzeAndLog(ctx context.Context, userID uuid.UUID, in AnalyzeInput) (res *AnalysisResult, err error) {
	ctx, span := observability.StartSpan(ctx, "meallog.analyze")
	defer func() { observability.EndSpan(span, err) }()

	if len(in.ImageBytes) == 0 && strings.TrimSpace(in.ImageURL) == "" {
		return nil, &mealplan.ValidationError{Field: "image", Reason: "image bytes or image_url required"}
	}

	var planned *types.PlannedMeal
	if in.PlannedMealID != nil {
		if planned, err = s.ownedPlannedMeal(ctx, userID, *in.PlannedMealID); err != nil {
			return nil, err
		}
	}

	modelURL, storedURL, err := s.imageURLs(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	promptIn := planmod.FoodPromptInput{}
	if in.Category != nil && strings.TrimSpace(*in.Category) != "" {
		promptIn.Category = mealplan.NormalizeCategory(*in.Category)
	}
	if planned != nil {
		promptIn.PlannedMealName = planned.MealName
		if promptIn.Category == "" {
			promptIn.Category = planned.Category
		}
	}
	if s.deps.Labels != nil && len(in.ImageBytes) > 0 {
		labels, err := s.deps.Labels.DetectLabels(ctx, in.ImageBytes)
		if err != nil {
			s.log.Warn("label detection failed, continuing without hints", "user_id", userID, "error", err)
		}
		promptIn.LabelHints = labels
	}

	prompt, err := planmod.BuildFoodAnalysisPrompt(promptIn)
	if err != nil {
		return nil, err
	}
	raw, err := s.deps.Vision.GenerateTextWithImages(ctx, prompt.System, prompt.User, []openai.ImageInput{{ImageURL: modelURL, Detail: "low"}})
	if err != nil {
		s.log.Warn("food analysis call failed", "user_id", userID, "error", err)
		return nil, &mealplan.GenerationFailedError{Kind: planmod.ClassifyFailure(err), UserID: userID, Err: err}
	}
	food, err := planmod.ParseFoodAnalysis(raw)
	if err != nil {
		s.log.Warn("food analysis unparseable", "user_id", userID, "fragment", logger.Truncate(raw))
		return nil, err
	}

	detail := food.NutritionDetail()
	checkIn := CheckInInput{
		PlannedMealID:   in.PlannedMealID,
		Category:        in.Category,
		FoodName:        &food.FoodName,
		Calories:        &food.Calories,
		NutritionDetail: &detail,
	}
	if storedURL != "" {
		checkIn.ImageURL = &storedURL
	}
	row, err := s.RecordCheckIn(ctx, userID, checkIn)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		FoodName:        food.FoodName,
		Calories:        food.Calories,
		NutritionDetail: detail,
		Log:             row,
	}, nil
}

// ownedPlannedMeal returns the planned meal if it belongs to the user's current
// plan, else a NotFoundError.
func (s *mealLogService) ownedPlannedMeal(ctx context.Context, userID uuid.UUID, plannedMealID uint) (*types.PlannedMeal, error) {
	plan, err := s.deps.Plans.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	pm, err := s.deps.PlannedMeals.GetByID(ctx, nil, plannedMealID)
	if err != nil {
		return nil, err
	}
	if pm == nil || plan == nil || pm.MealPlanID != plan.ID {
		return nil, &mealplan.NotFoundError{Entity: "planned meal", ID: plannedMealID}
	}
	return pm, nil
}

// imageURLs returns the URL handed to the model and the URL stored on the log
// row. Uploaded bytes get a store URL; without a store they are inlined as a
// data URL and nothing is stored.
func (s *mealLogService) imageURLs(ctx context.Context, userID uuid.UUID, in AnalyzeInput) (string, string, error) {
	if len(in.ImageBytes) == 0 {
		u := strings.TrimSpace(in.ImageURL)
		if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
			return "", "", &mealplan.ValidationError{Field: "image_url", Reason: "must be an http(s) URL"}
		}
		return u, u, nil
	}
	ct := strings.TrimSpace(in.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(in.ImageBytes)
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", "", &mealplan.ValidationError{Field: "image", Reason: "unsupported content type " + ct}
	}
	if s.deps.Photos != nil {
		u, err := s.deps.Photos.Upload(ctx, userID, ct, bytes.NewReader(in.ImageBytes))
		if err == nil {
			return u, u, nil
		}
		if errors.Is(err, context.Canceled) {
			return "", "", err
		}
		s.log.Warn("meal photo upload failed, inlining image", "user_id", userID, "error", err)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(in.ImageBytes), "", nil
}
