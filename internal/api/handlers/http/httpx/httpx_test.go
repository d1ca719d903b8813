package httpx

import (
	"fmt"
	"net/http"
	"testing"

	"camwatch/pkg/e"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{e.Invalid("op", "bad"), http.StatusBadRequest},
		{fmt.Errorf("op: %w", e.ErrInvalidCoordinates), http.StatusBadRequest},
		{fmt.Errorf("op: %w", e.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("op: %w", e.ErrPermissionDenied), http.StatusForbidden},
		{fmt.Errorf("op: %w", e.ErrInvalidStateTransition), http.StatusConflict},
		{fmt.Errorf("op: %w", e.ErrConflict), http.StatusConflict},
		{fmt.Errorf("op: %w", e.ErrIntegrityViolation), http.StatusUnprocessableEntity},
		{fmt.Errorf("op: %w", e.ErrTransient), http.StatusServiceUnavailable},
		{fmt.Errorf("op: %w: %w", e.ErrTransient, &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := Status(c.err); got != c.want {
			t.Fatalf("Status(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
