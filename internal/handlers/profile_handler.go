package handlers

import (
	"net/http"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/service"
)

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	profiles *service.ProfileService
	log      *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *service.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

// Register creates the profile of the authenticated login
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.CreateProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	profile, err := h.profiles.CreateProfile(r.Context(), GetRequester(r.Context()), in)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to create profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// List returns the requester's own profile and its children
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.VisibleProfiles(r.Context(), GetRequester(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list profiles", err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// Get returns one visible profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfile(r.Context(), GetRequester(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Update applies a partial update to a profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	profile, err := h.profiles.UpdateProfile(r.Context(), GetRequester(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// CloseAccount deletes the requester's profile and everything it owns
func (h *ProfileHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.CloseAccount(r.Context(), GetRequester(r.Context())); err != nil {
		respondWithServiceError(w, h.log, "failed to close account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
