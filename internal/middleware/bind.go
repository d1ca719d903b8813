package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"camwatch/pkg/e"
	"camwatch/pkg/validator"
)

// BindJSON decodes exactly one JSON object from the body into target and validates it.
// Errors wrap e.ErrInvalidInput.
func BindJSON(r *http.Request, target any) error {
	const op = "middleware.BindJSON"

	if r.Body == nil {
		return e.Invalid(op, "empty body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return e.Invalid(op, "empty body")
		}
		return e.Invalid(op, "invalid JSON")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return e.Invalid(op, "invalid JSON")
	}

	if err := validator.ValidateStruct(target); err != nil {
		return e.Invalid(op, validator.Describe(err))
	}
	return nil
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
