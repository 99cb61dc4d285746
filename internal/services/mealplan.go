package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/mealcoach-backend/internal/data/aggregates"
	"github.com/yungbote/mealcoach-backend/internal/data/repos"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	planmod "github.com/yungbote/mealcoach-backend/internal/modules/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/dbctx"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

type MealPlanService interface {
	// Generate replaces any existing plan with a fresh one.
	Generate(ctx context.Context, userID uuid.UUID) (*types.PlanView, error)
	Regenerate(ctx context.Context, userID uuid.UUID) (*types.PlanView, error)
	// Extend appends Settings.ExtendDays days after the current plan end.
	Extend(ctx context.Context, userID uuid.UUID) (*types.PlanView, error)
	// GetPlan returns nil without error when the user has no plan.
	GetPlan(ctx context.Context, userID uuid.UUID) (*types.PlanView, error)
}

type MealPlanServiceDeps struct {
	Log          *logger.Logger
	AI           planmod.TextGenerator
	Tx           aggregates.TxRunner
	Locker       UserLocker
	Entitlements EntitlementService
	Profiles     repos.HealthProfileRepo
	Analyses     repos.HealthAnalysisRepo
	Dishes       repos.DishRepo
	Plans        repos.MealPlanRepo
	PlannedMeals repos.PlannedMealRepo
	MealLogs     repos.MealLogRepo
	Metrics      *observability.Metrics
	Settings     planmod.Settings
}

type mealPlanService struct {
	log      *logger.Logger
	deps     MealPlanServiceDeps
	settings planmod.Settings
	flight   singleflight.Group
	now      func() time.Time
}

func NewMealPlanService(deps MealPlanServiceDeps) MealPlanService {
	return &mealPlanService{
		log:      deps.Log.With("service", "MealPlanService"),
		deps:     deps,
		settings: deps.Settings.WithDefaults(),
		now:      time.Now,
	}
}

// generationContext is everything a chunk prompt needs, loaded once per call.
type generationContext struct {
	profile  *types.HealthProfile
	analysis *types.HealthAnalysis
	dishes   []*types.Dish
}

func (s *mealPlanService) Generate(ctx context.Context, userID uuid.UUID) (*types.PlanView, error) {
	v, err, shared := s.flight.Do("generate:"+userID.String(), func() (any, error) {
		return s.generate(ctx, userID)
	})
	if shared {
		s.log.Debug("generation shared with in-flight call", "user_id", userID)
	}
	if err != nil {
		return nil, err
	}
	return v.(*types.PlanView), nil
}

func (s *mealPlanService) Regenerate(ctx context.Context, userID uuid.UUID) (*types.PlanView, error) {
	return s.Generate(ctx, userID)
}

func (s *mealPlanService) generate(ctx context.Context, userID uuid.UUID) (view *types.PlanView, err error) {
	ctx, span := observability.StartSpan(ctx, "mealplan.generate", attribute.String("user_id", userID.String()))
	defer func() { observability.EndSpan(span, err) }()

	gc, err := s.prepare(ctx, userID)
	if err != nil {
		return nil, err
	}
	release, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var plan *types.MealPlan
	err = s.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		existing, err := s.deps.Plans.GetByUserID(dbc.Ctx, dbc.Tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := s.deletePlan(dbc, existing); err != nil {
				return err
			}
		}
		plan, err = s.deps.Plans.Create(dbc.Ctx, dbc.Tx, &types.MealPlan{
			UserID:    userID,
			StartDate: startOfDay(s.now()),
			TotalDays: s.settings.InitialDays,
			Status:    types.PlanStatusGenerating,
		})
		return err
	})
	if err != nil {
		return nil, aggregates.MapError("reset_meal_plan", err)
	}
	s.log.Info("meal plan header created", "user_id", userID, "meal_plan_id", plan.ID, "total_days", plan.TotalDays)

	acc, genErr := s.runChunks(ctx, planmod.NewPlanAccumulator(plan), gc, 1, plan.TotalDays)
	if err := s.finish(ctx, acc, genErr, false); err != nil {
		return nil, err
	}
	if genErr != nil {
		return nil, genErr
	}
	return s.GetPlan(ctx, userID)
}

// deletePlan removes a plan and its rows child-first.
func (s *mealPlanService) deletePlan(dbc dbctx.Context, plan *types.MealPlan) error {
	if err := s.deps.MealLogs.DeleteByPlanID(dbc.Ctx, dbc.Tx, plan.ID); err != nil {
		return fmt.Errorf("delete meal logs: %w", err)
	}
	if err := s.deps.PlannedMeals.DeleteByPlanID(dbc.Ctx, dbc.Tx, plan.ID); err != nil {
		return fmt.Errorf("delete planned meals: %w", err)
	}
	if err := s.deps.Plans.DeleteByID(dbc.Ctx, dbc.Tx, plan.ID); err != nil {
		return fmt.Errorf("delete meal plan: %w", err)
	}
	s.log.Info("previous meal plan deleted", "user_id", plan.UserID, "meal_plan_id", plan.ID)
	return nil
}

func (s *mealPlanService) Extend(ctx context.Context, userID uuid.UUID) (view *types.PlanView, err error) {
	ctx, span := observability.StartSpan(ctx, "mealplan.extend", attribute.String("user_id", userID.String()))
	defer func() { observability.EndSpan(span, err) }()

	gc, err := s.prepare(ctx, userID)
	if err != nil {
		return nil, err
	}
	release, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	plan, err := s.deps.Plans.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, &mealplan.NotFoundError{Entity: "meal plan", ID: userID}
	}

	from := plan.TotalDays + 1
	to := plan.TotalDays + s.settings.ExtendDays
	wasPartial := plan.Status == types.PlanStatusPartial
	if err := s.deps.Plans.UpdateFields(ctx, nil, plan.ID, map[string]any{
		"total_days": to,
		"status":     types.PlanStatusGenerating,
	}); err != nil {
		return nil, fmt.Errorf("extend meal plan: %w", err)
	}
	plan.TotalDays = to
	s.log.Info("meal plan extended", "user_id", userID, "meal_plan_id", plan.ID, "from_day", from, "to_day", to)

	acc, genErr := s.runChunks(ctx, planmod.NewPlanAccumulator(plan), gc, from, to)
	if err := s.finish(ctx, acc, genErr, wasPartial); err != nil {
		return nil, err
	}
	if genErr != nil {
		return nil, genErr
	}
	return s.GetPlan(ctx, userID)
}

// prepare checks entitlement and prerequisites and loads the prompt context.
func (s *mealPlanService) prepare(ctx context.Context, userID uuid.UUID) (*generationContext, error) {
	if err := s.deps.Entitlements.RequireDetailedPlan(ctx, userID); err != nil {
		return nil, err
	}
	profile, err := s.deps.Profiles.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &mealplan.PrerequisiteMissingError{UserID: userID, Missing: "health profile", Hint: "complete the health profile first"}
	}
	analysis, err := s.deps.Analyses.GetLatest(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, &mealplan.PrerequisiteMissingError{UserID: userID, Missing: "health analysis", Hint: "run the health analysis first"}
	}
	dishes, err := s.deps.Dishes.ListVerifiedActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load dish catalog: %w", err)
	}
	return &generationContext{profile: profile, analysis: analysis, dishes: dishes}, nil
}

func (s *mealPlanService) runChunks(ctx context.Context, acc planmod.PlanAccumulator, gc *generationContext, from, to int) (planmod.PlanAccumulator, error) {
	deps := planmod.ChunkDeps{
		Log: s.log,
		AI:  s.deps.AI,
		Tx:  s.deps.Tx,
		Reconcile: planmod.ReconcileDeps{
			Log:          s.log,
			Plans:        s.deps.Plans,
			Dishes:       s.deps.Dishes,
			PlannedMeals: s.deps.PlannedMeals,
			MealLogs:     s.deps.MealLogs,
		},
		Metrics: s.deps.Metrics,
	}
	for _, r := range planmod.SplitDays(from, to, s.settings.ChunkDays) {
		out, err := planmod.GenerateChunk(ctx, deps, planmod.ChunkInput{
			Plan:          acc.Plan,
			Range:         r,
			Profile:       gc.profile,
			Analysis:      gc.analysis,
			Dishes:        gc.dishes,
			Timeout:       s.settings.ChunkTimeout,
			ParseAttempts: s.settings.ParseAttempts,
		})
		if err != nil {
			s.log.Warn("meal plan chunk failed",
				"user_id", acc.Plan.UserID,
				"meal_plan_id", acc.Plan.ID,
				"from_day", r.From,
				"to_day", r.To,
				"kind", mealplan.FailureKindOf(err),
				"error", err,
			)
			return acc, err
		}
		acc = acc.Add(r, out)
	}
	return acc, nil
}

// finish records how far generation got. A failed chunk leaves earlier days in
// place and marks the plan partial.
func (s *mealPlanService) finish(ctx context.Context, acc planmod.PlanAccumulator, genErr error, wasPartial bool) error {
	status := types.PlanStatusActive
	if genErr != nil || wasPartial || acc.GeneratedTo < acc.Plan.TotalDays {
		status = types.PlanStatusPartial
	}
	err := s.deps.Plans.UpdateFields(context.WithoutCancel(ctx), nil, acc.Plan.ID, map[string]any{
		"generated_days": acc.GeneratedTo,
		"status":         status,
	})
	if err != nil {
		s.log.Error("meal plan status update failed", "user_id", acc.Plan.UserID, "meal_plan_id", acc.Plan.ID, "error", err)
		if genErr != nil {
			return errors.Join(genErr, err)
		}
		return fmt.Errorf("finish meal plan: %w", err)
	}
	acc.Plan.GeneratedDays = acc.GeneratedTo
	acc.Plan.Status = status
	s.log.Info("meal plan generation finished",
		"user_id", acc.Plan.UserID,
		"meal_plan_id", acc.Plan.ID,
		"status", status,
		"generated_days", acc.GeneratedTo,
		"planned_meals", acc.PlannedMeals,
		"skipped", acc.Skipped,
	)
	return nil
}

func (s *mealPlanService) GetPlan(ctx context.Context, userID uuid.UUID) (*types.PlanView, error) {
	var (
		plan *types.MealPlan
		logs []*types.UserMealLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plan, err = s.deps.Plans.GetByUserID(gctx, nil, userID)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.deps.MealLogs.ListByUserID(gctx, nil, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load meal plan: %w", err)
	}
	if plan == nil {
		return nil, nil
	}
	return planmod.Project(plan, logs), nil
}

func (s *mealPlanService) lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	return acquireUserLock(ctx, s.deps.Locker, s.deps.Metrics, s.log, userID)
}

func acquireUserLock(ctx context.Context, locker UserLocker, m *observability.Metrics, log *logger.Logger, userID uuid.UUID) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	release, err := locker.Acquire(ctx, userID)
	switch {
	case err == nil:
		m.IncLockAcquire("acquired")
		return release, nil
	case errors.Is(err, mealplan.ErrUserBusy):
		m.IncLockAcquire("busy")
		log.Warn("user lock busy", "user_id", userID)
		return nil, err
	default:
		m.IncLockAcquire("error")
		return nil, fmt.Errorf("acquire user lock: %w", err)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
