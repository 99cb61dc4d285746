package mealplan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/mealcoach-backend/internal/data/aggregates"
	types "github.com/yungbote/mealcoach-backend/internal/domain"
	"github.com/yungbote/mealcoach-backend/internal/domain/mealplan"
	"github.com/yungbote/mealcoach-backend/internal/observability"
	"github.com/yungbote/mealcoach-backend/internal/pkg/dbctx"
	"github.com/yungbote/mealcoach-backend/internal/pkg/httpx"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// TextGenerator is the part of the model client plan generation needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type ChunkDeps struct {
	Log       *logger.Logger
	AI        TextGenerator
	Tx        aggregates.TxRunner
	Reconcile ReconcileDeps
	Metrics   *observability.Metrics
}

type ChunkInput struct {
	Plan          *types.MealPlan
	Range         DayRange
	Profile       *types.HealthProfile
	Analysis      *types.HealthAnalysis
	Dishes        []*types.Dish
	Timeout       time.Duration
	ParseAttempts int
}

// GenerateChunk asks the model for one day range and reconciles the answer in a
// single transaction. Failures come back as *mealplan.GenerationFailedError.
func GenerateChunk(ctx context.Context, deps ChunkDeps, in ChunkInput) (out ReconcileOutput, err error) {
	userID := in.Plan.UserID
	ctx, span := observability.StartSpan(ctx, "mealplan.generate_chunk",
		attribute.Int("mealplan.from_day", in.Range.From),
		attribute.Int("mealplan.to_day", in.Range.To),
		attribute.Int64("mealplan.plan_id", int64(in.Plan.ID)),
	)
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(mealplan.FailureKindOf(err))
		}
		deps.Metrics.ObservePlanChunk(outcome, time.Since(start))
		deps.Metrics.AddPlannedMeals(out.Grounded, out.FreeText, out.Skipped)
		observability.EndSpan(span, err)
	}()

	prompt, err := BuildPlanChunkPrompt(PlanPromptInput{
		Profile:  in.Profile,
		Analysis: in.Analysis,
		Dishes:   in.Dishes,
		Range:    in.Range,
		Start:    in.Plan.StartDate,
	})
	if err != nil {
		return out, fail(mealplan.FailureUpstream, userID, in.Range, err)
	}

	parsed, err := requestPlan(ctx, deps, in, prompt)
	if err != nil {
		return out, fail(ClassifyFailure(err), userID, in.Range, err)
	}

	err = deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		var rerr error
		out, rerr = Reconcile(dbc, deps.Reconcile, ReconcileInput{Plan: in.Plan, Parsed: parsed})
		return rerr
	})
	if err != nil {
		return ReconcileOutput{}, fail(mealplan.FailureStore, userID, in.Range, aggregates.MapError("persist chunk", err))
	}
	deps.Log.Info("meal plan chunk stored",
		"user_id", userID,
		"from_day", in.Range.From,
		"to_day", in.Range.To,
		"planned_meals", len(out.PlannedMeals),
		"grounded", out.Grounded,
		"skipped", out.Skipped,
	)
	return out, nil
}

func requestPlan(ctx context.Context, deps ChunkDeps, in ChunkInput, prompt Prompt) (*ParsedPlan, error) {
	attempts := in.ParseAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := callWithTimeout(ctx, deps.AI, prompt, in.Timeout)
		if err != nil {
			return nil, err
		}
		parsed, err := ParsePlanResponse(raw, in.Range)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
		var pe *mealplan.PlanParseError
		if errors.As(err, &pe) {
			deps.Log.Warn("meal plan response unparseable",
				"user_id", in.Plan.UserID,
				"attempt", attempt,
				"from_day", in.Range.From,
				"to_day", in.Range.To,
				"reason", pe.Reason,
				"fragment", pe.Fragment,
			)
		}
	}
	return nil, lastErr
}

func callWithTimeout(ctx context.Context, ai TextGenerator, p Prompt, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ai.GenerateText(ctx, p.System, p.User)
}

// ClassifyFailure maps an error from the model call or decoding to a failure kind.
func ClassifyFailure(err error) mealplan.FailureKind {
	switch {
	case err == nil:
		return ""
	case httpx.IsRateLimited(err):
		return mealplan.FailureRateLimited
	case httpx.IsTimeout(err):
		return mealplan.FailureTimeout
	case IsParseError(err):
		return mealplan.FailureParse
	default:
		return mealplan.FailureUpstream
	}
}

func fail(kind mealplan.FailureKind, userID uuid.UUID, r DayRange, err error) error {
	return &mealplan.GenerationFailedError{
		Kind:    kind,
		UserID:  userID,
		FromDay: r.From,
		ToDay:   r.To,
		Err:     err,
	}
}

// PlanAccumulator threads chunk results through a generation run. The plan
// header is fixed before the first chunk.
type PlanAccumulator struct {
	Plan         *types.MealPlan
	GeneratedTo  int
	PlannedMeals int
	Logs         int
	Skipped      int
}

func NewPlanAccumulator(plan *types.MealPlan) PlanAccumulator {
	return PlanAccumulator{Plan: plan, GeneratedTo: plan.GeneratedDays}
}

// Add returns the accumulator advanced past r.
func (a PlanAccumulator) Add(r DayRange, out ReconcileOutput) PlanAccumulator {
	if r.To > a.GeneratedTo {
		a.GeneratedTo = r.To
	}
	a.PlannedMeals += len(out.PlannedMeals)
	a.Logs += len(out.Logs)
	a.Skipped += out.Skipped
	return a
}
