// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/visualplatform/settlement-core/internal/api/response"
	"github.com/visualplatform/settlement-core/internal/validation"
)

// ValidateIdempotencyKeyMiddleware validates that the idempotencyKey URL
// parameter is present and is a valid UUID. Idempotency keys are UUIDv5
// values, so anything that does not parse as a UUID can be rejected before
// touching the database.
// Returns 400 Bad Request if the key is missing or invalid.
//
// Example usage in router:
//
//	r.Route("/{idempotencyKey}", func(r chi.Router) {
//	    r.Use(middleware.ValidateIdempotencyKeyMiddleware)
//	    r.Put("/status", handler.UpdateStatus)
//	})
func ValidateIdempotencyKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "idempotencyKey")

		if key == "" {
			response.RespondError(w, http.StatusBadRequest, "idempotency key is required", "")
			return
		}

		if err := validation.ValidateUUID(key); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid idempotency key format", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
