package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	planmod "github.com/yungbote/mealcoach-backend/internal/modules/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// HealthProfileInput is the self-reported profile as submitted by the client.
type HealthProfileInput struct {
	Age           int      `json:"age"`
	Gender        string   `json:"gender"`
	Height        float64  `json:"height"`
	Weight        float64  `json:"weight"`
	ActivityLevel string   `json:"activity_level"`
	StressLevel   string   `json:"stress_level"`
	SleepHours    float64  `json:"sleep_hours"`
	Goal          string   `json:"goal"`
	Conditions    []string `json:"conditions"`
}

func (in HealthProfileInput) validate() error {
	switch {
	case in.Age <= 0 || in.Age > 120:
		return &mealplan.ValidationError{Field: "age", Reason: "must be between 1 and 120"}
	case in.Height <= 0 || in.Height > 300:
		return &mealplan.ValidationError{Field: "height", Reason: "must be in centimetres"}
	case in.Weight <= 0 || in.Weight > 500:
		return &mealplan.ValidationError{Field: "weight", Reason: "must be in kilograms"}
	case in.SleepHours < 0 || in.SleepHours > 24:
		return &mealplan.ValidationError{Field: "sleep_hours", Reason: "must be between 0 and 24"}
	}
	return nil
}

type HealthService interface {
	UpsertProfile(ctx context.Context, userID uuid.UUID, in HealthProfileInput) (*types.HealthProfile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.HealthProfile, error)
	// Analyze replaces the stored analysis with a fresh one from the model.
	Analyze(ctx context.Context, userID uuid.UUID) (*types.HealthAnalysis, error)
	GetAnalysis(ctx context.Context, userID uuid.UUID) (*types.HealthAnalysis, error)
}

type healthService struct {
	log          *logger.Logger
	ai           planmod.TextGenerator
	profileRepo  repos.HealthProfileRepo
	analysisRepo repos.HealthAnalysisRepo
}

func NewHealthService(log *logger.Logger, ai planmod.TextGenerator, profileRepo repos.HealthProfileRepo, analysisRepo repos.HealthAnalysisRepo) HealthService {
	return &healthService{
		log:          log.With("service", "HealthService"),
		ai:           ai,
		profileRepo:  profileRepo,
		analysisRepo: analysisRepo,
	}
}

func (s *healthService) UpsertProfile(ctx context.Context, userID uuid.UUID, in HealthProfileInput) (*types.HealthProfile, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	conditions := make([]string, 0, len(in.Conditions))
	for _, c := range in.Conditions {
		if c = strings.TrimSpace(c); c != "" {
			conditions = append(conditions, c)
		}
	}
	condJSON, err := json.Marshal(conditions)
	if err != nil {
		return nil, err
	}
	p := &types.HealthProfile{
		UserID:        userID,
		Age:           in.Age,
		Gender:        strings.ToLower(strings.TrimSpace(in.Gender)),
		HeightCM:      in.Height,
		WeightKG:      in.Weight,
		ActivityLevel: strings.TrimSpace(in.ActivityLevel),
		StressLevel:   strings.TrimSpace(in.StressLevel),
		SleepHours:    in.SleepHours,
		Goal:          strings.TrimSpace(in.Goal),
		Conditions:    datatypes.JSON(condJSON),
	}
	if err := s.profileRepo.Upsert(ctx, nil, p); err != nil {
		s.log.Error("health profile upsert failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("upsert health profile: %w", err)
	}
	return s.profileRepo.GetByUserID(ctx, nil, userID)
}

func (s *healthService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.HealthProfile, error) {
	p, err := s.profileRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &mealplan.NotFoundError{Entity: "health profile", ID: userID}
	}
	return p, nil
}

func (s *healthService) Analyze(ctx context.Context, userID uuid.UUID) (a *types.HealthAnalysis, err error) {
	ctx, span := observability.StartSpan(ctx, "health.analyze")
	defer func() { observability.EndSpan(span, err) }()

	profile, err := s.profileRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &mealplan.PrerequisiteMissingError{
			UserID:  userID,
			Missing: "health profile",
			Hint:    "complete the health profile first",
		}
	}

	prompt, err := planmod.BuildHealthAnalysisPrompt(profile)
	if err != nil {
		return nil, err
	}
	raw, err := s.ai.GenerateText(ctx, prompt.System, prompt.User)
	if err != nil {
		s.log.Warn("health analysis call failed", "user_id", userID, "error", err)
		return nil, &mealplan.GenerationFailedError{Kind: planmod.ClassifyFailure(err), UserID: userID, Err: err}
	}
	result, err := planmod.ParseHealthAnalysis(raw)
	if err != nil {
		s.log.Warn("health analysis unparseable", "user_id", userID, "fragment", logger.Truncate(raw))
		return nil, err
	}

	a = &types.HealthAnalysis{
		UserID:  userID,
		Result:  datatypes.JSON(result.Raw),
		Summary: result.Summary,
	}
	if err := s.analysisRepo.Upsert(ctx, nil, a); err != nil {
		return nil, fmt.Errorf("store health analysis: %w", err)
	}
	s.log.Info("health analysis stored", "user_id", userID, "target_calories", result.TargetCalories)
	return s.analysisRepo.GetLatest(ctx, nil, userID)
}

func (s *healthService) GetAnalysis(ctx context.Context, userID uuid.UUID) (*types.HealthAnalysis, error) {
	a, err := s.analysisRepo.GetLatest(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &mealplan.NotFoundError{Entity: "health analysis", ID: userID}
	}
	return a, nil
}
