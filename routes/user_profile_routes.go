package routes

import (
	"eventmatch_server/controllers"
	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up routes for user profile operations under /api/profiles
func RegisterUserProfileRoutes(r *mux.Router, userProfileService *services.UserProfileService) {
	controller := controllers.NewUserProfileController(userProfileService)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()
	profileRouter.HandleFunc("", controller.CreateUserProfile).Methods("POST")
	profileRouter.HandleFunc("/{userHandle}", controller.GetUserProfile).Methods("GET")
	profileRouter.HandleFunc("/{userHandle}", controller.DeleteUserProfile).Methods("DELETE")
}
