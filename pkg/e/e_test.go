package e

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"deadline", context.DeadlineExceeded, ErrDeadline},
		{"canceled", context.Canceled, ErrCanceled},
		{"no_rows", pgx.ErrNoRows, ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrUniqueViolation},
		{"fk", &pgconn.PgError{Code: "23503"}, ErrInvalidInput},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrConflict},
		{"other_pg", &pgconn.PgError{Code: "XX000"}, ErrInternal},
		{"plain", errors.New("boom"), ErrInternal},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got := WrapError(ctx, "op", c.in)
			if !errors.Is(got, c.want) {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}

	if WrapError(ctx, "op", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{Invalid("op", "bad"), "validation"},
		{fmt.Errorf("x: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("x: %w", ErrInvalidStateTransition), "invalid_state_transition"},
		{fmt.Errorf("x: %w", ErrPermissionDenied), "permission_denied"},
		{fmt.Errorf("x: %w", ErrIntegrityViolation), "integrity_violation"},
		{fmt.Errorf("x: %w", ErrTransient), "transient"},
		{errors.New("unclassified"), "internal"},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Fatalf("Kind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
