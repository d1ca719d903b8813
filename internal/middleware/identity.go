package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"camwatch/internal/domain"
)

// Identity headers are set by the upstream gateway after it authenticates the caller.
const (
	UserIDHeader       = "X-User-ID"
	UserRoleHeader     = "X-User-Role"
	UserVerifiedHeader = "X-User-Verified"
)

type viewerKey struct{}

func WithViewer(ctx context.Context, v domain.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFrom returns the viewer stored by Identity.
func ViewerFrom(ctx context.Context) (domain.Viewer, bool) {
	v, ok := ctx.Value(viewerKey{}).(domain.Viewer)
	return v, ok
}

func Identity(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" || len(userID) > 128 {
				writeError(w, http.StatusUnauthorized, "missing user identity")
				return
			}

			role, err := domain.ParseRole(r.Header.Get(UserRoleHeader))
			if err != nil {
				logger.Warn("unknown role header", slog.String("role", r.Header.Get(UserRoleHeader)))
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			verified := false
			if raw := r.Header.Get(UserVerifiedHeader); raw != "" {
				verified, err = strconv.ParseBool(raw)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid "+UserVerifiedHeader+" header")
					return
				}
			}

			v := domain.Viewer{UserID: userID, Role: role, Verified: verified}
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), v)))
		})
	}
}
