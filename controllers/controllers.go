package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"eventmatch_server/services"
)

// CallerHeader carries the authenticated user handle resolved by the identity
// provider in front of this service.
const CallerHeader = "X-User-Handle"

// Pusher sends a real-time event to a user's socket room. Controllers treat
// push as best effort; a nil Pusher disables it.
type Pusher interface {
	Push(userHandle, event string, payload interface{})
}

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WelcomeHandler provides a welcome message
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Event Match API"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// callerHandle resolves the authenticated caller or writes a 401.
func callerHandle(w http.ResponseWriter, r *http.Request) (string, bool) {
	handle := r.Header.Get(CallerHeader)
	if handle == "" {
		writeServiceError(w, services.ErrAuthenticationRequired)
		return "", false
	}
	return handle, true
}

// writeServiceError maps the service error taxonomy to HTTP statuses so the
// UI can distinguish retryable store failures from rejections.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAuthenticationRequired):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	case errors.Is(err, services.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not authorized"})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Printf("❌ Store unavailable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store unavailable, please retry"})
	default:
		log.Printf("❌ Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
