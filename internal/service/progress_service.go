package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/catalog"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/repository"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/validation"
)

// overviewConcurrency bounds the per-child fetches of a family overview
const overviewConcurrency = 4

// futureSkew is how far ahead of the server clock a completion time may be
const futureSkew = 5 * time.Minute

// ActivityInput describes one completed exercise
type ActivityInput struct {
	ProfileID       string    `json:"profile_id"`
	ExerciseCode    string    `json:"exercise_code"`
	DurationSeconds int       `json:"duration_seconds"`
	Points          int       `json:"points"`
	Rating          int       `json:"rating"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ActivityResult is the outcome of recording an activity
type ActivityResult struct {
	Session  models.ExerciseSession `json:"session"`
	Progress models.Progress        `json:"progress"`
	Unlocked []models.Achievement   `json:"unlocked"`
}

// AdventureResult is the outcome of advancing along an adventure path
type AdventureResult struct {
	Adventure models.AdventureProgress `json:"adventure"`
	Progress  models.Progress          `json:"progress"`
	Unlocked  []models.Achievement     `json:"unlocked"`
}

// ProgressService records activities and maintains per-profile aggregates
type ProgressService struct {
	db            *database.DB
	profiles      *repository.ProfileRepository
	relationships *repository.RelationshipRepository
	activities    *repository.ActivityRepository
	progress      *repository.ProgressRepository
	achievements  *repository.AchievementRepository
	adventures    *repository.AdventureRepository
	catalog       *catalog.Catalog
	policy        *policy.Evaluator
	notifier      Notifier
	log           *logger.Logger
	loc           *time.Location
	now           func() time.Time
}

// NewProgressService creates a new progress service. Activity dates are
// taken in loc. notifier may be nil.
func NewProgressService(
	db *database.DB,
	profiles *repository.ProfileRepository,
	relationships *repository.RelationshipRepository,
	activities *repository.ActivityRepository,
	progress *repository.ProgressRepository,
	achievements *repository.AchievementRepository,
	adventures *repository.AdventureRepository,
	cat *catalog.Catalog,
	evaluator *policy.Evaluator,
	notifier Notifier,
	log *logger.Logger,
	loc *time.Location,
) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{
		db:            db,
		profiles:      profiles,
		relationships: relationships,
		activities:    activities,
		progress:      progress,
		achievements:  achievements,
		adventures:    adventures,
		catalog:       cat,
		policy:        evaluator,
		notifier:      notifier,
		log:           log,
		loc:           loc,
		now:           time.Now,
	}
}

// SyncCatalog writes the achievement definitions to storage
func (s *ProgressService) SyncCatalog(ctx context.Context) error {
	return s.achievements.UpsertDefinitions(ctx, s.catalog.Achievements())
}

// RecordActivity stores a session for the requester (or the profile named
// in the input) and folds it into the profile's aggregate in one transaction
func (s *ProgressService) RecordActivity(ctx context.Context, req *policy.Requester, in ActivityInput) (*ActivityResult, error) {
	now := s.now().UTC()
	in.ExerciseCode = strings.TrimSpace(in.ExerciseCode)
	if err := validation.ValidateCode("exercise_code", in.ExerciseCode); err != nil {
		return nil, err
	}
	if err := validation.ValidateActivity(in.DurationSeconds, in.Points, in.Rating); err != nil {
		return nil, err
	}
	if in.CompletedAt.IsZero() {
		in.CompletedAt = now
	}
	if in.CompletedAt.After(now.Add(futureSkew)) {
		return nil, ValidationError("completed_at", "completion time cannot be in the future")
	}

	id, err := resolveProfile(ctx, s.policy, req)
	if err != nil {
		return nil, err
	}
	if in.ProfileID == "" {
		in.ProfileID = id.ProfileID
	}

	row := policy.Row{OwnerID: in.ProfileID}
	err = authorize(ctx, s.policy, req,
		access{policy.TableExerciseSessions, policy.OpInsert, row},
		access{policy.TableProgress, policy.OpUpdate, row},
		access{policy.TableEarnedAchievements, policy.OpInsert, row},
	)
	if err != nil {
		return nil, err
	}

	session := models.ExerciseSession{
		ProfileID:       in.ProfileID,
		ExerciseCode:    in.ExerciseCode,
		DurationSeconds: in.DurationSeconds,
		Points:          in.Points,
		Rating:          in.Rating,
		CompletedAt:     in.CompletedAt.UTC(),
		ActivityDate:    activityDate(in.CompletedAt, s.loc),
	}

	var (
		progress *models.Progress
		unlocked []models.Achievement
	)
	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := s.activities.WithTx(tx).Create(ctx, &session); err != nil {
			return err
		}
		p, err := s.lockProgress(ctx, tx, in.ProfileID, now)
		if err != nil {
			return err
		}
		applyActivity(p, &session)
		if unlocked, err = s.unlock(ctx, tx, p, now); err != nil {
			return err
		}
		p.UpdatedAt = now
		progress = p
		return s.progress.WithTx(tx).Save(ctx, p)
	})
	if err != nil {
		return nil, AtomicityError("record activity", err)
	}

	s.notifyUnlocks(ctx, in.ProfileID, unlocked)
	return &ActivityResult{Session: session, Progress: *progress, Unlocked: unlocked}, nil
}

// AdvanceAdventure moves the requester one step along pathCode. Completing
// the last step grants the path's reward in the same transaction.
func (s *ProgressService) AdvanceAdventure(ctx context.Context, req *policy.Requester, pathCode string) (*AdventureResult, error) {
	now := s.now().UTC()
	path, ok := s.catalog.Path(pathCode)
	if !ok {
		return nil, ValidationError("path_code", "unknown adventure path")
	}

	id, err := resolveProfile(ctx, s.policy, req)
	if err != nil {
		return nil, err
	}
	row := policy.Row{OwnerID: id.ProfileID}
	err = authorize(ctx, s.policy, req,
		access{policy.TableAdventureProgress, policy.OpInsert, row},
		access{policy.TableAdventureProgress, policy.OpUpdate, row},
		access{policy.TableProgress, policy.OpUpdate, row},
		access{policy.TableEarnedAchievements, policy.OpInsert, row},
	)
	if err != nil {
		return nil, err
	}

	var result AdventureResult
	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		adventures := s.adventures.WithTx(tx)
		if err := adventures.Ensure(ctx, id.ProfileID, path.Code, now); err != nil {
			return err
		}
		ap, err := adventures.GetForUpdate(ctx, id.ProfileID, path.Code)
		if err != nil {
			return err
		}
		if ap == nil {
			return fmt.Errorf("adventure progress missing for %s", path.Code)
		}
		if ap.Completed {
			return ConflictError("adventure path already completed")
		}

		p, err := s.lockProgress(ctx, tx, id.ProfileID, now)
		if err != nil {
			return err
		}

		ap.StepsCompleted++
		ap.UpdatedAt = now
		if ap.StepsCompleted >= path.Steps {
			ap.Completed = true
			ap.CompletedAt = &now
			p.TotalPoints += path.RewardPoints
		}
		if err := adventures.Save(ctx, ap); err != nil {
			return err
		}

		unlocked, err := s.unlock(ctx, tx, p, now)
		if err != nil {
			return err
		}
		p.UpdatedAt = now
		if err := s.progress.WithTx(tx).Save(ctx, p); err != nil {
			return err
		}
		result = AdventureResult{Adventure: *ap, Progress: *p, Unlocked: unlocked}
		return nil
	})
	if err != nil {
		return nil, AtomicityError("advance adventure", err)
	}

	s.notifyUnlocks(ctx, id.ProfileID, result.Unlocked)
	return &result, nil
}

// lockProgress returns the profile's aggregate row, locked for the rest of tx
func (s *ProgressService) lockProgress(ctx context.Context, tx *database.Tx, profileID string, now time.Time) (*models.Progress, error) {
	progress := s.progress.WithTx(tx)
	if err := progress.Ensure(ctx, profileID, now); err != nil {
		return nil, err
	}
	p, err := progress.GetForUpdate(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("progress missing for profile %s", profileID)
	}
	return p, nil
}

// unlock records every newly reached achievement and adds its bonus to p
func (s *ProgressService) unlock(ctx context.Context, tx *database.Tx, p *models.Progress, now time.Time) ([]models.Achievement, error) {
	achievements := s.achievements.WithTx(tx)
	earned, err := achievements.EarnedCodes(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}

	unlocked := unlockAchievements(p, s.catalog.Achievements(), earned)
	for _, a := range unlocked {
		inserted, err := achievements.Earn(ctx, p.ProfileID, a.Code, a.BonusPoints, now)
		if err != nil {
			return nil, err
		}
		if !inserted {
			return nil, fmt.Errorf("achievement %s already recorded for %s", a.Code, p.ProfileID)
		}
	}
	return unlocked, nil
}

// notifyUnlocks emails the active parents of a child about new achievements
func (s *ProgressService) notifyUnlocks(ctx context.Context, profileID string, unlocked []models.Achievement) {
	if s.notifier == nil || len(unlocked) == 0 {
		return
	}
	child, err := s.profiles.ProfileByID(ctx, profileID)
	if err != nil || child == nil || !child.IsChild {
		return
	}
	rels, err := s.relationships.ActiveByChild(ctx, profileID)
	if err != nil {
		s.log.Warn("failed to load parents for achievement email", "child_id", profileID, "error", err)
		return
	}
	for _, rel := range rels {
		parent, err := s.profiles.ProfileByID(ctx, rel.ParentID)
		if err != nil || parent == nil {
			continue
		}
		if err := s.notifier.SendAchievementEmail(ctx, parent, child, unlocked); err != nil {
			s.log.Warn("failed to send achievement email", "parent_id", parent.ID, "error", err)
		}
	}
}

// GetProgress returns a profile's aggregate. Missing and hidden rows both
// yield ErrNotFound.
func (s *ProgressService) GetProgress(ctx context.Context, req *policy.Requester, profileID string) (*models.Progress, error) {
	if !s.policy.Allowed(ctx, req, policy.TableProgress, policy.OpSelect, policy.Row{OwnerID: profileID}) {
		return nil, ErrNotFound
	}
	p, err := s.progress.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListSessions returns the visible sessions of a profile, newest first
func (s *ProgressService) ListSessions(ctx context.Context, req *policy.Requester, profileID string, limit int) ([]models.ExerciseSession, error) {
	sessions, err := s.activities.ListByProfile(ctx, profileID, limit)
	if err != nil {
		return nil, err
	}
	return policy.FilterVisible(ctx, s.policy, req, policy.TableExerciseSessions, sessions, func(es models.ExerciseSession) policy.Row {
		return policy.Row{OwnerID: es.ProfileID}
	}), nil
}

// EarnedAchievements returns the visible unlocks of a profile, oldest first
func (s *ProgressService) EarnedAchievements(ctx context.Context, req *policy.Requester, profileID string) ([]models.EarnedAchievement, error) {
	earned, err := s.achievements.ListEarned(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return policy.FilterVisible(ctx, s.policy, req, policy.TableEarnedAchievements, earned, func(e models.EarnedAchievement) policy.Row {
		return policy.Row{OwnerID: e.ProfileID}
	}), nil
}

// ListAdventures returns the visible adventure progress of a profile
func (s *ProgressService) ListAdventures(ctx context.Context, req *policy.Requester, profileID string) ([]models.AdventureProgress, error) {
	list, err := s.adventures.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return policy.FilterVisible(ctx, s.policy, req, policy.TableAdventureProgress, list, func(ap models.AdventureProgress) policy.Row {
		return policy.Row{OwnerID: ap.ProfileID}
	}), nil
}

// DeleteSession removes a session. The owner or an active parent may do
// this; aggregates are left as they are. A missing session is refused like
// one the requester may not delete.
func (s *ProgressService) DeleteSession(ctx context.Context, req *policy.Requester, sessionID int64) error {
	session, err := s.activities.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return AuthorizationError(policy.TableExerciseSessions, policy.OpDelete)
	}
	row := policy.Row{OwnerID: session.ProfileID}
	if err := authorize(ctx, s.policy, req, access{policy.TableExerciseSessions, policy.OpDelete, row}); err != nil {
		return err
	}
	deleted, err := s.activities.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// FamilyOverview fetches a summary of every child actively linked to the
// requester, one child per goroutine
func (s *ProgressService) FamilyOverview(ctx context.Context, req *policy.Requester) ([]models.ChildSummary, error) {
	id, err := resolveProfile(ctx, s.policy, req)
	if err != nil {
		return nil, err
	}
	childIDs, err := s.relationships.ActiveChildIDs(ctx, id.ProfileID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.ChildSummary, len(childIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, childID := range childIDs {
		g.Go(func() error {
			summary, err := s.childSummary(gctx, req, childID)
			if err != nil {
				return fmt.Errorf("failed to summarize child %s: %w", childID, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.ChildSummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary != nil {
			out = append(out, *summary)
		}
	}
	return out, nil
}

// childSummary returns nil when the child's profile is not visible
func (s *ProgressService) childSummary(ctx context.Context, req *policy.Requester, childID string) (*models.ChildSummary, error) {
	profile, err := s.profiles.ProfileByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if profile == nil || !s.policy.Allowed(ctx, req, policy.TableProfiles, policy.OpSelect, policy.Row{OwnerID: childID}) {
		return nil, nil
	}

	summary := &models.ChildSummary{Profile: *profile}
	if p, err := s.GetProgress(ctx, req, childID); err == nil {
		summary.Progress = p
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if summary.Achievements, err = s.EarnedAchievements(ctx, req, childID); err != nil {
		return nil, err
	}
	return summary, nil
}
