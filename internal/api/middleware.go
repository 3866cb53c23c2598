package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/formweave/formweave/internal/registry"
)

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("writing json response", "error", err)
	}
}

// errorResponse writes an error JSON response.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// registryError maps registry failures to HTTP status codes: structural
// rejections are 400 with the validator's issues attached, missing
// entries 404, optimistic-lock conflicts 409, and lifecycle violations
// 422.
func registryError(w http.ResponseWriter, err error) {
	var structural *registry.StructuralError
	switch {
	case errors.As(err, &structural):
		jsonResponse(w, http.StatusBadRequest, StructuralErrorResponse{
			Error:  "schema rejected",
			Issues: structural.Issues,
		})
	case registry.IsNotFound(err):
		errorResponse(w, http.StatusNotFound, err.Error())
	case registry.IsConflict(err):
		errorResponse(w, http.StatusConflict, err.Error())
	case registry.IsState(err):
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	default:
		errorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

// requestLogger is middleware that logs HTTP requests.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
