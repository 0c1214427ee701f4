package controllers

import (
	"encoding/json"
	"net/http"

	"eventmatch_server/models"
	"eventmatch_server/services"

	"github.com/gorilla/mux"
)

// UserProfileController handles requests related to user profiles
type UserProfileController struct {
	UserProfileService *services.UserProfileService
}

// NewUserProfileController creates a new instance of UserProfileController
func NewUserProfileController(userProfileService *services.UserProfileService) *UserProfileController {
	return &UserProfileController{UserProfileService: userProfileService}
}

// CreateUserProfile handles adding a user profile
func (c *UserProfileController) CreateUserProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return
	}

	createdProfile, err := c.UserProfileService.AddUserProfile(r.Context(), profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Profile added successfully",
		"profile": createdProfile,
	})
}

// GetUserProfile handles fetching a user profile by handle
func (c *UserProfileController) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	userHandle := mux.Vars(r)["userHandle"]

	profile, err := c.UserProfileService.GetUserProfile(r.Context(), userHandle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// DeleteUserProfile handles deleting a user profile; only the owner may.
func (c *UserProfileController) DeleteUserProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerHandle(w, r)
	if !ok {
		return
	}
	userHandle := mux.Vars(r)["userHandle"]
	if caller != userHandle {
		writeServiceError(w, services.ErrNotAuthorized)
		return
	}

	if err := c.UserProfileService.DeleteUserProfile(r.Context(), userHandle); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile deleted successfully"})
}
