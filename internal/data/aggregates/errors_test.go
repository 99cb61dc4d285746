package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{name: "not_found", err: gorm.ErrRecordNotFound, want: CodeNotFound},
		{name: "pg_unique", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: CodeConflict},
		{name: "pg_fk", err: &pgconn.PgError{Code: "23503"}, want: CodePreconditionFailed},
		{name: "pg_not_null", err: &pgconn.PgError{Code: "23502"}, want: CodeValidation},
		{name: "sqlite_unique", err: errors.New("UNIQUE constraint failed: meal_plan.user_id"), want: CodeConflict},
		{name: "sqlite_not_null", err: errors.New("NOT NULL constraint failed: planned_meal.meal_name"), want: CodeValidation},
		{name: "sqlite_locked", err: errors.New("database is locked"), want: CodeRetryable},
		{name: "deadline", err: context.DeadlineExceeded, want: CodeRetryable},
		{name: "missing_db", err: errMissingDB, want: CodeInternal},
		{name: "other", err: errors.New("boom"), want: CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("op", tc.err)
			if !IsCode(got, tc.want) {
				t.Fatalf("MapError: want=%q got=%q (%v)", tc.want, CodeOf(got), got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("MapError must wrap the cause")
			}
		})
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	in := MapError("reset_meal_plan", errors.New("database is locked"))
	if out := MapError("outer", fmt.Errorf("wrapped: %w", in)); CodeOf(out) != CodeRetryable {
		t.Fatalf("expected classified error to pass through, got %v", out)
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil must map to nil")
	}
	if IsCode(nil, "") {
		t.Fatalf("nil error has no code")
	}
}
