package routes

import (
	"eventmatch_server/controllers"
	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match operations under /api/matches
func RegisterMatchRoutes(
	r *mux.Router,
	matches *services.MatchService,
	queries *services.MatchQueryService,
	chats *services.ChatService,
	push controllers.Pusher,
) {
	controller := controllers.NewMatchController(matches, queries, chats, push)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.HandleFunc("", controller.ListMatches).Methods("GET")
	matchRouter.HandleFunc("/stats", controller.GetStats).Methods("GET")
	matchRouter.HandleFunc("/expire", controller.ExpireMatches).Methods("POST")
	matchRouter.HandleFunc("/{matchId}", controller.GetMatch).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/respond", controller.RespondToMatch).Methods("POST")
}
