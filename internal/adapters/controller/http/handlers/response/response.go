// Package response writes JSON bodies and maps domain errors to HTTP status codes.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Status maps the error taxonomy onto HTTP. Unclassified errors are 500.
func Status(err error) int {
	switch {
	case errors.Is(err, errorz.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errorz.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errorz.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errorz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errorz.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, errorz.ErrBackingStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the error envelope. Driver details of backing-store and
// unclassified failures are logged, not returned.
func Error(w http.ResponseWriter, logger *types.Logger, r *http.Request, err error) {
	status := Status(err)
	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		message = errorz.ErrBackingStore.Error()
	case http.StatusInternalServerError:
		message = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError {
		logger.Errorf("(request: %s %s) | Error: %v", r.Method, r.URL.Path, err)
	}
	JSON(w, status, errorBody{Error: message})
}

// Decode reads a JSON body into dst. Malformed bodies are validation errors.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errorz.Validation(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
