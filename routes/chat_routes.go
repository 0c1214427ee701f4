package routes

import (
	"eventmatch_server/controllers"
	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes sets up routes for chat operations under /api/chats
func RegisterChatRoutes(r *mux.Router, chats *services.ChatService, push controllers.Pusher) {
	controller := controllers.NewChatController(chats, push)

	chatRouter := r.PathPrefix("/api/chats").Subrouter()
	chatRouter.HandleFunc("", controller.CreateOrGetChat).Methods("POST")
	chatRouter.HandleFunc("/{chatId}/messages", controller.GetMessages).Methods("GET")
	chatRouter.HandleFunc("/{chatId}/messages", controller.SendMessage).Methods("POST")
}
