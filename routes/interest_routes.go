package routes

import (
	"eventmatch_server/controllers"
	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterInterestRoutes sets up routes for interest operations under /api/interests
func RegisterInterestRoutes(
	r *mux.Router,
	interests *services.InterestService,
	detector *services.DetectionService,
	matches *services.MatchService,
	queries *services.MatchQueryService,
	push controllers.Pusher,
) {
	controller := controllers.NewInterestController(interests, detector, matches, queries, push)

	interestRouter := r.PathPrefix("/api/interests").Subrouter()
	interestRouter.HandleFunc("", controller.RecordInterest).Methods("POST")
	interestRouter.HandleFunc("", controller.ListInterests).Methods("GET")
	interestRouter.HandleFunc("/event/{eventId}/users", controller.ListInterestedUsers).Methods("GET")
	interestRouter.HandleFunc("/{eventId}", controller.WithdrawInterest).Methods("DELETE")
	interestRouter.HandleFunc("/{eventId}/status", controller.CheckInterest).Methods("GET")
}
