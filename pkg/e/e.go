package e

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func Wrap(message string, err error) error {
	return fmt.Errorf("%s: %w", message, err)
}

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInternal               = errors.New("internal error")
	ErrDeadline               = errors.New("deadline exceeded")
	ErrCanceled               = errors.New("context canceled")
	ErrUniqueViolation        = errors.New("unique violation")
	ErrInvalidCoordinates     = errors.New("invalid coordinates")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrIntegrityViolation     = errors.New("integrity violation")
	ErrTransient              = errors.New("transient dependency failure")
	ErrQueueEmpty             = errors.New("notification queue is empty")
)

// ErrValidation is the name the request lifecycle uses for malformed input.
var ErrValidation = ErrInvalidInput

// Invalid wraps ErrInvalidInput with a human readable reason.
func Invalid(op, reason string) error {
	return fmt.Errorf("%s: %s: %w", op, reason, ErrInvalidInput)
}

// Kind returns the short taxonomy name of err, "internal" when it is not classified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidCoordinates):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrIntegrityViolation):
		return "integrity_violation"
	case errors.Is(err, ErrConflict), errors.Is(err, ErrUniqueViolation):
		return "conflict"
	case errors.Is(err, ErrTransient), errors.Is(err, ErrDeadline):
		return "transient"
	default:
		return "internal"
	}
}

func WrapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrDeadline)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, ErrCanceled)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, ErrUniqueViolation)
		case "23503", "23514":
			return fmt.Errorf("%s: %w", op, ErrInvalidInput)
		case "40001", "40P01":
			return fmt.Errorf("%s: %w", op, ErrConflict)
		default:
			return fmt.Errorf("%s: pg error %s: %w", op, pgErr.Code, ErrInternal)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, ErrInternal)
}
