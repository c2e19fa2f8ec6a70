package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/repository"
)

// ExportVersion is the format version written into every export
const ExportVersion = "1.0"

// exportSessionLimit caps the sessions exported per profile
const exportSessionLimit = 10000

// FamilyExport is the data export of one adult and the children it parents
type FamilyExport struct {
	Version       string                `json:"version"`
	ExportedAt    time.Time             `json:"exported_at"`
	Parent        ProfileExport         `json:"parent"`
	Children      []ProfileExport       `json:"children"`
	Relationships []models.Relationship `json:"relationships"`
}

// ProfileExport holds everything stored for one profile
type ProfileExport struct {
	Profile      models.Profile             `json:"profile"`
	Progress     *models.Progress           `json:"progress,omitempty"`
	Sessions     []models.ExerciseSession   `json:"sessions"`
	Achievements []models.EarnedAchievement `json:"achievements"`
	Adventures   []models.AdventureProgress `json:"adventures"`
}

// ExportService builds family data exports. Every read goes through the
// policy as the exported adult, so an export holds exactly what that adult
// could see.
type ExportService struct {
	profileRepo   *repository.ProfileRepository
	profiles      *ProfileService
	relationships *RelationshipService
	progress      *ProgressService
	log           *logger.Logger
	now           func() time.Time
}

// NewExportService creates a new export service
func NewExportService(profileRepo *repository.ProfileRepository, profiles *ProfileService, relationships *RelationshipService,
	progress *ProgressService, log *logger.Logger) *ExportService {
	return &ExportService{
		profileRepo:   profileRepo,
		profiles:      profiles,
		relationships: relationships,
		progress:      progress,
		log:           log,
		now:           time.Now,
	}
}

// ExportFamily collects the export for the adult profile parentID
func (s *ExportService) ExportFamily(ctx context.Context, parentID string) (*FamilyExport, error) {
	parent, err := s.profileRepo.ProfileByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.IsChild || parent.LoginID == "" {
		return nil, ErrNotFound
	}
	req := policy.NewRequester(parent.LoginID, "")

	visible, err := s.profiles.VisibleProfiles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to export profiles: %w", err)
	}

	export := &FamilyExport{
		Version:    ExportVersion,
		ExportedAt: s.now().UTC(),
		Children:   []ProfileExport{},
	}
	for _, p := range visible {
		pe, err := s.exportProfile(ctx, req, p)
		if err != nil {
			return nil, fmt.Errorf("failed to export profile %s: %w", p.ID, err)
		}
		if p.ID == parent.ID {
			export.Parent = *pe
		} else {
			export.Children = append(export.Children, *pe)
		}
	}

	if export.Relationships, err = s.relationships.ChildrenOf(ctx, req, parent.ID); err != nil {
		return nil, fmt.Errorf("failed to export relationships: %w", err)
	}
	return export, nil
}

func (s *ExportService) exportProfile(ctx context.Context, req *policy.Requester, p models.Profile) (*ProfileExport, error) {
	pe := &ProfileExport{Profile: p}

	progress, err := s.progress.GetProgress(ctx, req, p.ID)
	switch {
	case err == nil:
		pe.Progress = progress
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	if pe.Sessions, err = s.progress.ListSessions(ctx, req, p.ID, exportSessionLimit); err != nil {
		return nil, err
	}
	if pe.Achievements, err = s.progress.EarnedAchievements(ctx, req, p.ID); err != nil {
		return nil, err
	}
	if pe.Adventures, err = s.progress.ListAdventures(ctx, req, p.ID); err != nil {
		return nil, err
	}
	return pe, nil
}

// Export writes the family export of parentID to w as indented JSON
func (s *ExportService) Export(ctx context.Context, parentID string, w io.Writer) error {
	export, err := s.ExportFamily(ctx, parentID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	s.log.Info("family exported",
		"parent_id", parentID,
		"children", len(export.Children),
		"relationships", len(export.Relationships),
		"sessions", len(export.Parent.Sessions))
	return nil
}
