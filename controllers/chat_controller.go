package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// ChatController handles chat provisioning and the message read-side.
type ChatController struct {
	Chats *services.ChatService
	Push  Pusher
}

// NewChatController initializes the chat controller
func NewChatController(chats *services.ChatService, push Pusher) *ChatController {
	return &ChatController{Chats: chats, Push: push}
}

type createChatRequest struct {
	PartnerID  string `json:"partnerId"`
	EventID    string `json:"eventId"`
	EventTitle string `json:"eventTitle"`
}

// CreateOrGetChat provisions (or returns) the caller's channel with a
// partner. This is also the retry path for a match that was accepted before a
// chat failure.
func (c *ChatController) CreateOrGetChat(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}

	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return
	}
	if req.PartnerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "partnerId is required"})
		return
	}

	chatID, err := c.Chats.CreateOrGetChat(r.Context(), caller, req.PartnerID, req.EventID, req.EventTitle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"chatId": chatID})
}

// GetMessages fetches a channel's messages, oldest first.
func (c *ChatController) GetMessages(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}
	chatID := mux.Vars(r)["chatId"]

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, err := c.Chats.GetMessagesByChatID(r.Context(), chatID, caller, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage appends a message and pushes it to the partner's room.
func (c *ChatController) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}
	chatID := mux.Vars(r)["chatId"]

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	message, err := c.Chats.SendMessage(r.Context(), chatID, caller, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if c.Push != nil {
		channel, err := c.Chats.GetChat(r.Context(), chatID)
		if err == nil && channel != nil {
			if partner := otherParticipant(channel.ParticipantA, channel.ParticipantB, caller); partner != "" {
				c.Push.Push(partner, "newMessage", message)
			}
		}
	}
	writeJSON(w, http.StatusCreated, message)
}

func otherParticipant(a, b, caller string) string {
	switch caller {
	case a:
		return b
	case b:
		return a
	}
	return ""
}
