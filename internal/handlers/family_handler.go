package handlers

import (
	"net/http"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/service"
)

// FamilyHandler handles onboarding and parent-child links
type FamilyHandler struct {
	onboarding    *service.OnboardingService
	relationships *service.RelationshipService
	progress      *service.ProgressService
	log           *logger.Logger
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(onboarding *service.OnboardingService, relationships *service.RelationshipService,
	progress *service.ProgressService, log *logger.Logger) *FamilyHandler {
	return &FamilyHandler{
		onboarding:    onboarding,
		relationships: relationships,
		progress:      progress,
		log:           log,
	}
}

type onboardResponse struct {
	Child        *models.Profile      `json:"child"`
	Relationship *models.Relationship `json:"relationship"`
}

// OnboardChild creates a consented child profile linked to the requester
func (h *FamilyHandler) OnboardChild(w http.ResponseWriter, r *http.Request) {
	var in service.OnboardChildInput
	if !decodeJSON(w, r, &in) {
		return
	}
	child, rel, err := h.onboarding.OnboardChild(r.Context(), GetRequester(r.Context()), in)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to onboard child", err)
		return
	}
	writeJSON(w, http.StatusCreated, onboardResponse{Child: child, Relationship: rel})
}

// ListChildren returns the requester's active child links
func (h *FamilyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	req := GetRequester(r.Context())
	rels, err := h.relationships.ChildrenOf(r.Context(), req, req.ProfileID())
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list children", err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

// ListParents returns the visible active links of a child
func (h *FamilyHandler) ListParents(w http.ResponseWriter, r *http.Request) {
	rels, err := h.relationships.ParentsOf(r.Context(), GetRequester(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list parents", err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

type linkRequest struct {
	Consent bool `json:"consent"`
}

// LinkChild restores the requester's inactive link to a child
func (h *FamilyHandler) LinkChild(w http.ResponseWriter, r *http.Request) {
	var in linkRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	req := GetRequester(r.Context())
	rel, err := h.relationships.LinkChild(r.Context(), req, req.ProfileID(), r.PathValue("id"), in.Consent)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to link child", err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

// UnlinkChild deactivates the requester's link to a child
func (h *FamilyHandler) UnlinkChild(w http.ResponseWriter, r *http.Request) {
	req := GetRequester(r.Context())
	if err := h.relationships.Deactivate(r.Context(), req, req.ProfileID(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, h.log, "failed to unlink child", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type guardianRequest struct {
	GuardianID string `json:"guardian_id"`
}

// AddGuardian links another adult to a child as guardian
func (h *FamilyHandler) AddGuardian(w http.ResponseWriter, r *http.Request) {
	var in guardianRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	rel, err := h.relationships.AddGuardian(r.Context(), GetRequester(r.Context()), r.PathValue("id"), in.GuardianID)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to add guardian", err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

// Overview returns a summary of each of the requester's children
func (h *FamilyHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.progress.FamilyOverview(r.Context(), GetRequester(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to build family overview", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
