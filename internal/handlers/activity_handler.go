package handlers

import (
	"net/http"
	"strconv"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/service"
)

const defaultSessionLimit = 50

// ActivityHandler handles exercise, progress and adventure requests
type ActivityHandler struct {
	progress *service.ProgressService
	log      *logger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(progress *service.ProgressService, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{progress: progress, log: log}
}

// Record stores a completed exercise for the requester
func (h *ActivityHandler) Record(w http.ResponseWriter, r *http.Request) {
	var in service.ActivityInput
	if !decodeJSON(w, r, &in) {
		return
	}
	result, err := h.progress.RecordActivity(r.Context(), GetRequester(r.Context()), in)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to record activity", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// List returns a profile's recent sessions
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer", Field: "limit"})
			return
		}
		limit = n
	}
	sessions, err := h.progress.ListSessions(r.Context(), GetRequester(r.Context()), r.PathValue("id"), limit)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Delete removes a session
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotFound})
		return
	}
	if err := h.progress.DeleteSession(r.Context(), GetRequester(r.Context()), id); err != nil {
		respondWithServiceError(w, h.log, "failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Progress returns a profile's aggregate
func (h *ActivityHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.progress.GetProgress(r.Context(), GetRequester(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to get progress", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Achievements returns a profile's unlocked achievements
func (h *ActivityHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	earned, err := h.progress.EarnedAchievements(r.Context(), GetRequester(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, earned)
}

// AdvanceAdventure moves the requester one step along a path
func (h *ActivityHandler) AdvanceAdventure(w http.ResponseWriter, r *http.Request) {
	result, err := h.progress.AdvanceAdventure(r.Context(), GetRequester(r.Context()), r.PathValue("code"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to advance adventure", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Adventures returns a profile's adventure progress
func (h *ActivityHandler) Adventures(w http.ResponseWriter, r *http.Request) {
	list, err := h.progress.ListAdventures(r.Context(), GetRequester(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list adventures", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
