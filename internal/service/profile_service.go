package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/repository"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/validation"
)

// DefaultAvatarColor is used when a profile is created without one
const DefaultAvatarColor = "#4A90E2"

// CreateProfileInput holds the attributes of a self-registered profile
type CreateProfileInput struct {
	DisplayName  string                    `json:"display_name"`
	IsChild      bool                      `json:"is_child"`
	ConsentGiven bool                      `json:"consent_given"`
	DateOfBirth  string                    `json:"date_of_birth"`
	Email        string                    `json:"email"`
	AvatarColor  string                    `json:"avatar_color"`
	Privacy      models.PrivacyPreferences `json:"privacy"`
}

// ProfileService handles profile business logic
type ProfileService struct {
	db       *database.DB
	profiles *repository.ProfileRepository
	progress *repository.ProgressRepository
	policy   *policy.Evaluator
	now      func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(db *database.DB, profiles *repository.ProfileRepository, progress *repository.ProgressRepository, evaluator *policy.Evaluator) *ProfileService {
	return &ProfileService{
		db:       db,
		profiles: profiles,
		progress: progress,
		policy:   evaluator,
		now:      time.Now,
	}
}

// CreateProfile registers the adult profile for the requester's login.
// Children are only ever created by onboarding.
func (s *ProfileService) CreateProfile(ctx context.Context, req *policy.Requester, in CreateProfileInput) (*models.Profile, error) {
	now := s.now().UTC()
	if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, err
	}
	if in.IsChild && !in.ConsentGiven {
		return nil, ValidationError("consent_given", "a child profile requires parental consent")
	}
	if in.IsChild {
		return nil, ValidationError("is_child", "child profiles are created by a parent through onboarding")
	}
	if err := validateProfileFields(in.DateOfBirth, in.Email, in.AvatarColor, now); err != nil {
		return nil, err
	}

	id, err := resolve(ctx, s.policy, req)
	if err != nil {
		return nil, err
	}
	if id.ProfileID != "" {
		return nil, ConflictError("login already has a profile")
	}

	profile := &models.Profile{
		ID:           uuid.NewString(),
		LoginID:      req.LoginID,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		DateOfBirth:  in.DateOfBirth,
		ConsentGiven: false,
		Privacy:      in.Privacy,
		Email:        strings.TrimSpace(in.Email),
		AvatarColor:  in.AvatarColor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if profile.AvatarColor == "" {
		profile.AvatarColor = DefaultAvatarColor
	}

	if err := authorize(ctx, s.policy, req, access{policy.TableProfiles, policy.OpInsert, policy.Row{
		OwnerID: profile.ID,
		LoginID: profile.LoginID,
	}}); err != nil {
		return nil, err
	}

	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := s.profiles.WithTx(tx).Create(ctx, profile); err != nil {
			return mapStoreError(err, "login already has a profile")
		}
		return s.progress.WithTx(tx).Ensure(ctx, profile.ID, now)
	})
	if err != nil {
		return nil, AtomicityError("create profile", err)
	}
	return profile, nil
}

// GetProfile returns a profile the requester may see. Missing and hidden
// profiles both yield ErrNotFound.
func (s *ProfileService) GetProfile(ctx context.Context, req *policy.Requester, id string) (*models.Profile, error) {
	profile, err := s.profiles.ProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil || !s.policy.Allowed(ctx, req, policy.TableProfiles, policy.OpSelect, policy.Row{OwnerID: id}) {
		return nil, ErrNotFound
	}
	return profile, nil
}

// UpdateProfile applies patch to a profile owned by, or actively parented by, the requester
func (s *ProfileService) UpdateProfile(ctx context.Context, req *policy.Requester, id string, patch models.ProfilePatch) (*models.Profile, error) {
	now := s.now().UTC()
	if patch.DisplayName != nil {
		if err := validation.ValidateDisplayName(*patch.DisplayName); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(*patch.DisplayName)
		patch.DisplayName = &trimmed
	}
	var dob, email, color string
	if patch.DateOfBirth != nil {
		dob = *patch.DateOfBirth
	}
	if patch.Email != nil {
		email = strings.TrimSpace(*patch.Email)
		patch.Email = &email
	}
	if patch.AvatarColor != nil {
		color = *patch.AvatarColor
	}
	if err := validateProfileFields(dob, email, color, now); err != nil {
		return nil, err
	}

	// Authorize on the id alone so a missing profile and someone else's
	// profile are refused the same way.
	if err := authorize(ctx, s.policy, req, access{policy.TableProfiles, policy.OpUpdate, policy.Row{OwnerID: id}}); err != nil {
		return nil, err
	}
	profile, err := s.profiles.ProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}

	patch.Apply(profile)
	if profile.AvatarColor == "" {
		profile.AvatarColor = DefaultAvatarColor
	}
	profile.UpdatedAt = now
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// VisibleProfiles returns the requester's own profile followed by its
// actively linked children
func (s *ProfileService) VisibleProfiles(ctx context.Context, req *policy.Requester) ([]models.Profile, error) {
	id, err := resolve(ctx, s.policy, req)
	if err != nil {
		return nil, err
	}
	if id.ProfileID == "" {
		return []models.Profile{}, nil
	}

	ids := append([]string{id.ProfileID}, id.LinkedChildren...)
	profiles, err := s.profiles.ProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(profiles, func(a, b models.Profile) int {
		switch {
		case a.ID == id.ProfileID:
			return -1
		case b.ID == id.ProfileID:
			return 1
		}
		return 0
	})
	return policy.FilterVisible(ctx, s.policy, req, policy.TableProfiles, profiles, func(p models.Profile) policy.Row {
		return policy.Row{OwnerID: p.ID}
	}), nil
}

// CloseAccount deletes the requester's own adult profile. Relationships and
// every family-scoped record of the profile go with it.
func (s *ProfileService) CloseAccount(ctx context.Context, req *policy.Requester) error {
	id, err := resolveProfile(ctx, s.policy, req)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.policy, req, access{policy.TableProfiles, policy.OpDelete, policy.Row{OwnerID: id.ProfileID}}); err != nil {
		return err
	}

	deleted, err := s.profiles.Delete(ctx, id.ProfileID)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.Join(ErrNotFound, errNoProfile)
	}
	return nil
}

func validateProfileFields(dob, email, color string, now time.Time) error {
	if err := validation.ValidateDateOfBirth(dob, now); err != nil {
		return err
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return err
		}
	}
	return validation.ValidateAvatarColor(color)
}
