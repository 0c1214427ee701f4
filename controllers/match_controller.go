package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"time"

	"eventmatch_server/models"
	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// MatchController handles HTTP requests for match-related actions
type MatchController struct {
	Matches *services.MatchService
	Queries *services.MatchQueryService
	Chats   *services.ChatService
	Push    Pusher
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matches *services.MatchService, queries *services.MatchQueryService, chats *services.ChatService, push Pusher) *MatchController {
	return &MatchController{Matches: matches, Queries: queries, Chats: chats, Push: push}
}

// ListMatches returns the caller's matches, one per partner, newest first.
func (c *MatchController) ListMatches(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}

	matches, err := c.Queries.ListMatchesForUser(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if matches == nil {
		matches = []models.MatchSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// GetMatch returns one match; the caller must be a participant.
func (c *MatchController) GetMatch(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["matchId"]

	match, err := c.Matches.GetMatch(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !match.HasParticipant(caller) {
		writeServiceError(w, services.ErrNotAuthorized)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

type respondRequest struct {
	Decision string `json:"decision"`
}

// RespondToMatch applies the caller's accept/decline. Accepting provisions
// the chat; if provisioning fails the match stays accepted with no chatId,
// which is a recoverable state the client can retry via the chat endpoint.
func (c *MatchController) RespondToMatch(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["matchId"]

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return
	}

	match, err := c.Matches.RespondToMatch(r.Context(), matchID, caller, req.Decision)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]interface{}{"match": match}
	if match.Status == models.MatchStatusAccepted && match.ChatID == "" {
		eventID, eventTitle := contextEvent(match)
		chatID, err := c.Chats.CreateOrGetChat(r.Context(), match.ParticipantA, match.ParticipantB, eventID, eventTitle)
		if err != nil {
			log.Printf("⚠️ Chat provisioning failed for match %s (retryable): %v", matchID, err)
			response["chatPending"] = true
		} else {
			if err := c.Matches.SetChatID(r.Context(), matchID, chatID); err != nil {
				log.Printf("⚠️ Failed to link chat %s to match %s: %v", chatID, matchID, err)
			}
			match.ChatID = chatID
			response["chatId"] = chatID
		}
	}

	if c.Push != nil {
		c.Push.Push(match.ParticipantA, "matchUpdated", match)
		c.Push.Push(match.ParticipantB, "matchUpdated", match)
	}
	writeJSON(w, http.StatusOK, response)
}

// contextEvent picks the chat's context event deterministically from the
// shared set.
func contextEvent(match *models.Match) (string, string) {
	if len(match.SharedEventIDs) == 0 {
		return "", ""
	}
	events := append([]string(nil), match.SharedEventIDs...)
	sort.Strings(events)
	return events[0], ""
}

// GetStats returns the caller's aggregate match statistics.
func (c *MatchController) GetStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}

	stats, err := c.Queries.ComputeStats(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type expireRequest struct {
	MaxAgeHours int `json:"maxAgeHours"`
}

// ExpireMatches archives pending matches older than maxAgeHours (default 24).
func (c *MatchController) ExpireMatches(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerHandle(w, r); !ok {
		return
	}

	var req expireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MaxAgeHours <= 0 {
		req.MaxAgeHours = 24
	}

	expired, err := c.Matches.ExpireStaleMatches(r.Context(), time.Duration(req.MaxAgeHours)*time.Hour)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"expired": expired})
}
