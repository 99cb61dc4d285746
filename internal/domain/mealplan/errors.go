package mealplan

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUserBusy is returned when another plan or log write for the same user holds
// the serialization point past the wait budget.
var ErrUserBusy = errors.New("another meal plan operation is in progress for this user")

// ErrPlanSuperseded is returned when a chunk's plan header was deleted or replaced
// before the chunk could be stored.
var ErrPlanSuperseded = errors.New("meal plan was replaced while generating")

// EntitlementRequiredError means the user lacks the tier required for detailed plans.
type EntitlementRequiredError struct {
	UserID      uuid.UUID
	Entitlement string
}

func (e *EntitlementRequiredError) Error() string {
	return fmt.Sprintf("entitlement %q required for user %s", e.Entitlement, e.UserID)
}

// PrerequisiteMissingError means a step the user must complete first is absent.
type PrerequisiteMissingError struct {
	UserID  uuid.UUID
	Missing string
	Hint    string
}

func (e *PrerequisiteMissingError) Error() string {
	return fmt.Sprintf("%s missing for user %s", e.Missing, e.UserID)
}

// PlanParseError reports model output that could not be decoded into a plan.
// Fragment is already truncated and safe to show.
type PlanParseError struct {
	Reason   string
	Fragment string
	Err      error
}

func (e *PlanParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan parse: %s: %v", e.Reason, e.Err)
	}
	return "plan parse: " + e.Reason
}

func (e *PlanParseError) Unwrap() error { return e.Err }

type FailureKind string

const (
	FailureRateLimited FailureKind = "rate_limited"
	FailureUpstream    FailureKind = "upstream_failure"
	FailureTimeout     FailureKind = "timeout"
	FailureParse       FailureKind = "parse_failure"
	FailureStore       FailureKind = "store_failure"
)

// GenerationFailedError aborts a generation call. Days stored by earlier chunks stay
// in place; FromDay/ToDay name the chunk that failed.
type GenerationFailedError struct {
	Kind    FailureKind
	UserID  uuid.UUID
	FromDay int
	ToDay   int
	Err     error
}

func (e *GenerationFailedError) Error() string {
	msg := fmt.Sprintf("meal plan generation failed (%s) for days %d-%d", e.Kind, e.FromDay, e.ToDay)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// Retryable reports whether an immediate retry makes sense. Rate limiting asks for back-off.
func (e *GenerationFailedError) Retryable() bool {
	return e.Kind != FailureRateLimited
}

// NotFoundError reports a missing plan, planned meal, dish or log row.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// FailureKindOf returns the kind of a wrapped GenerationFailedError, or "".
func FailureKindOf(err error) FailureKind {
	var gf *GenerationFailedError
	if errors.As(err, &gf) {
		return gf.Kind
	}
	return ""
}

// ValidationError rejects caller input before any work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
