// Package httpx holds the JSON and error presentation shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/middleware"
	"camwatch/pkg/e"
)

// Log returns logger tagged with chi's request id when one is set.
func Log(logger *slog.Logger, r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode failed", slog.Any("error", err))
	}
}

// Status maps an error from the service layer onto an HTTP status.
func Status(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, e.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, e.ErrInvalidStateTransition), errors.Is(err, e.ErrConflict), errors.Is(err, e.ErrUniqueViolation):
		return http.StatusConflict
	case errors.Is(err, e.ErrIntegrityViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, e.ErrTransient), errors.Is(err, e.ErrDeadline), errors.Is(err, e.ErrCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs err and writes {"error", "kind"}. Validation messages are passed
// through; everything else is reported by kind only.
func HandleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	l := Log(logger, r)
	status := Status(err)
	kind := e.Kind(err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		l.Error("handler error", attrs...)
	} else {
		l.Warn("request rejected", attrs...)
	}

	msg := kind
	switch status {
	case http.StatusBadRequest:
		msg = err.Error()
	case http.StatusRequestEntityTooLarge:
		kind, msg = "too_large", "footage exceeds the upload limit"
	case http.StatusInternalServerError:
		msg = "internal error"
	}
	WriteJSON(w, logger, status, map[string]string{"error": msg, "kind": kind})
}

// Viewer returns the caller identity, answering 401 when the identity middleware did not run.
func Viewer(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (domain.Viewer, bool) {
	v, ok := middleware.ViewerFrom(r.Context())
	if !ok {
		WriteJSON(w, logger, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return domain.Viewer{}, false
	}
	return v, true
}

// PathID parses the chi URL parameter key as a uuid, answering 400 when it is not one.
func PathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		Log(logger, r).Warn("invalid id", slog.String(key, raw), slog.String("error", err.Error()))
		WriteJSON(w, logger, http.StatusBadRequest, map[string]string{"error": "invalid " + key, "kind": "validation"})
		return uuid.Nil, false
	}
	return id, true
}
