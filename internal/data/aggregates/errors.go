package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Code classifies a storage failure independently of the driver.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodePreconditionFailed Code = "precondition_failed"
	CodeRetryable          Code = "retryable"
	CodeInternal           Code = "internal"
)

// StoreError carries the code and the operation that failed.
type StoreError struct {
	Code Code
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", e.Op, e.Code)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Code, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// CodeOf returns the code of a wrapped StoreError, or "".
func CodeOf(err error) Code {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func IsCode(err error, code Code) bool { return err != nil && CodeOf(err) == code }

var errMissingDB = errors.New("no db or transaction available")

// MapError classifies err for op. Already-classified errors pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Code: classify(err), Op: op, Err: err}
}

func classify(err error) Code {
	switch {
	case errors.Is(err, errMissingDB):
		return CodeInternal
	case errors.Is(err, gorm.ErrRecordNotFound):
		return CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return CodeConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation
			return CodeConflict
		case "23503": // foreign_key_violation
			return CodePreconditionFailed
		case "23502", "23514", "22P02": // not_null, check, invalid_text_representation
			return CodeValidation
		case "40001", "40P01", "55P03":
			return CodeRetryable
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"), strings.Contains(msg, "duplicate key"):
		return CodeConflict
	case strings.Contains(msg, "not null constraint failed"), strings.Contains(msg, "check constraint failed"):
		return CodeValidation
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "deadlock"):
		return CodeRetryable
	}
	return CodeInternal
}
