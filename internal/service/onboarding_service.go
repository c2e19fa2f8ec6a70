package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/repository"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/validation"
)

// OnboardChildInput holds the attributes of a new child profile
type OnboardChildInput struct {
	DisplayName string `json:"display_name"`
	DateOfBirth string `json:"date_of_birth"`
	AvatarColor string `json:"avatar_color"`
}

// OnboardingService creates consented child profiles
type OnboardingService struct {
	db            *database.DB
	profiles      *repository.ProfileRepository
	relationships *repository.RelationshipRepository
	progress      *repository.ProgressRepository
	policy        *policy.Evaluator
	notifier      Notifier
	log           *logger.Logger
	now           func() time.Time
}

// NewOnboardingService creates a new onboarding service. notifier may be nil.
func NewOnboardingService(db *database.DB, profiles *repository.ProfileRepository, relationships *repository.RelationshipRepository,
	progress *repository.ProgressRepository, evaluator *policy.Evaluator, notifier Notifier, log *logger.Logger) *OnboardingService {
	return &OnboardingService{
		db:            db,
		profiles:      profiles,
		relationships: relationships,
		progress:      progress,
		policy:        evaluator,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// OnboardChild creates a child profile with consent, links it to the
// requester and initializes its progress. Either all three rows are written
// or none are.
func (s *OnboardingService) OnboardChild(ctx context.Context, req *policy.Requester, in OnboardChildInput) (*models.Profile, *models.Relationship, error) {
	now := s.now().UTC()
	if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, nil, err
	}
	if err := validateProfileFields(in.DateOfBirth, "", in.AvatarColor, now); err != nil {
		return nil, nil, err
	}

	id, err := resolve(ctx, s.policy, req)
	if err != nil {
		return nil, nil, err
	}
	var parent *models.Profile
	if id.ProfileID != "" {
		if parent, err = s.profiles.ProfileByID(ctx, id.ProfileID); err != nil {
			return nil, nil, err
		}
	}
	if parent == nil || !parent.IsAdult() {
		return nil, nil, ValidationError("parent_id", "parent must be an existing adult profile")
	}

	child := &models.Profile{
		ID:           uuid.NewString(),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		IsChild:      true,
		DateOfBirth:  in.DateOfBirth,
		ConsentGiven: true,
		ConsentAt:    &now,
		AvatarColor:  in.AvatarColor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if child.AvatarColor == "" {
		child.AvatarColor = DefaultAvatarColor
	}
	rel := &models.Relationship{
		ID:           uuid.NewString(),
		ParentID:     parent.ID,
		ChildID:      child.ID,
		Kind:         models.KindParent,
		Active:       true,
		ConsentGiven: true,
		ConsentAt:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = authorize(ctx, s.policy, req,
		access{policy.TableProfiles, policy.OpInsert, policy.Row{OwnerID: child.ID, IsChild: true, ConsentGiven: true}},
		access{policy.TableRelationships, policy.OpInsert, policy.Row{OwnerID: parent.ID, SubjectID: child.ID, IsChild: true, ConsentGiven: true}},
	)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := s.profiles.WithTx(tx).Create(ctx, child); err != nil {
			return err
		}
		if err := s.relationships.WithTx(tx).Create(ctx, rel); err != nil {
			return err
		}
		return s.progress.WithTx(tx).Ensure(ctx, child.ID, now)
	})
	if err != nil {
		return nil, nil, AtomicityError("onboard child", err)
	}

	s.log.Info("child onboarded", "parent_id", parent.ID, "child_id", child.ID)
	if s.notifier != nil {
		if err := s.notifier.SendConsentReceipt(ctx, parent, child, now); err != nil {
			s.log.Warn("failed to send consent receipt", "parent_id", parent.ID, "error", err)
		}
	}
	return child, rel, nil
}
