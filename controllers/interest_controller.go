package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"eventmatch_server/models"
	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// InterestController handles the interest surface and drives the detection
// pipeline after every recorded interest.
type InterestController struct {
	Interests *services.InterestService
	Detector  *services.DetectionService
	Matches   *services.MatchService
	Queries   *services.MatchQueryService
	Push      Pusher
}

// NewInterestController creates a new InterestController instance
func NewInterestController(
	interests *services.InterestService,
	detector *services.DetectionService,
	matches *services.MatchService,
	queries *services.MatchQueryService,
	push Pusher,
) *InterestController {
	return &InterestController{
		Interests: interests,
		Detector:  detector,
		Matches:   matches,
		Queries:   queries,
		Push:      push,
	}
}

type recordInterestRequest struct {
	EventID    string `json:"eventId"`
	EventTitle string `json:"eventTitle"`
	Intent     string `json:"intent"`
}

// RecordInterest persists the caller's interest, then runs detection. When a
// partner comes back, the deterministic upsert either creates the pending
// match or folds the event into the existing one; either way both sides get a
// push. Both participants can land here at once, the registry converges.
func (c *InterestController) RecordInterest(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}

	var req recordInterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return
	}
	if req.EventID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "eventId is required"})
		return
	}

	interest, err := c.Interests.RecordInterest(r.Context(), caller, req.EventID, req.EventTitle, req.Intent)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]interface{}{"interest": interest}

	mutual, err := c.Detector.DetectMutualInterest(r.Context(), caller, req.EventID)
	if err != nil {
		// The interest is durably recorded; detection will run again on the
		// partner's side or on the next record. Surface the partial outcome.
		log.Printf("⚠️ Detection failed after recording interest of %s in %s: %v", caller, req.EventID, err)
		response["detection"] = "deferred"
		writeJSON(w, http.StatusCreated, response)
		return
	}

	if mutual != nil {
		match, err := c.Matches.UpsertMatch(r.Context(), caller, mutual.PartnerID, []string{req.EventID})
		if err != nil {
			log.Printf("⚠️ Match upsert failed for %s and %s: %v", caller, mutual.PartnerID, err)
		} else {
			response["match"] = match
			response["partner"] = mutual
			if c.Push != nil {
				c.Push.Push(match.ParticipantA, "matchUpdated", match)
				c.Push.Push(match.ParticipantB, "matchUpdated", match)
			}
		}
	}

	writeJSON(w, http.StatusCreated, response)
}

// WithdrawInterest flips the caller's interest to inactive. Existing matches
// are untouched.
func (c *InterestController) WithdrawInterest(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}
	eventID := mux.Vars(r)["eventId"]

	if err := c.Interests.WithdrawInterest(r.Context(), caller, eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "interest withdrawn", "eventId": eventID})
}

// CheckInterest reports whether the caller holds active interest in an event.
func (c *InterestController) CheckInterest(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}
	eventID := mux.Vars(r)["eventId"]

	interested, err := c.Interests.IsInterested(r.Context(), caller, eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"eventId": eventID, "interested": interested})
}

// ListInterests returns the caller's active interests.
func (c *InterestController) ListInterests(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}

	interests, err := c.Queries.ListInterestsForUser(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if interests == nil {
		interests = []models.Interest{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"interests": interests})
}

// ListInterestedUsers returns the handles with active interest in an event.
func (c *InterestController) ListInterestedUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerHandle(w, r); !ok {
		return
	}
	eventID := mux.Vars(r)["eventId"]

	users, err := c.Queries.ListInterestedUsers(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"eventId": eventID, "users": users})
}
