package service

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/repository"
)

// RelationshipService manages parent and guardian links to children
type RelationshipService struct {
	profiles      *repository.ProfileRepository
	relationships *repository.RelationshipRepository
	policy        *policy.Evaluator
	now           func() time.Time
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(profiles *repository.ProfileRepository, relationships *repository.RelationshipRepository, evaluator *policy.Evaluator) *RelationshipService {
	return &RelationshipService{
		profiles:      profiles,
		relationships: relationships,
		policy:        evaluator,
		now:           time.Now,
	}
}

// LinkChild reactivates the requester's own inactive link to childID. The
// requester must be parentID. New links are made by onboarding or AddGuardian,
// so an adult with no link to the child is refused.
func (s *RelationshipService) LinkChild(ctx context.Context, req *policy.Requester, parentID, childID string, consent bool) (*models.Relationship, error) {
	if !consent {
		return nil, ValidationError("consent", "parental consent is required to link a child")
	}
	return s.link(ctx, req, models.Relationship{ParentID: parentID, ChildID: childID, Kind: models.KindParent})
}

// AddGuardian links another adult to a child the requester actively parents
func (s *RelationshipService) AddGuardian(ctx context.Context, req *policy.Requester, childID, guardianID string) (*models.Relationship, error) {
	id, err := resolve(ctx, s.policy, req)
	if err != nil {
		return nil, err
	}
	if id.ProfileID == guardianID || !slices.Contains(id.LinkedChildren, childID) {
		return nil, AuthorizationError(policy.TableRelationships, policy.OpInsert)
	}

	guardian, err := s.profiles.ProfileByID(ctx, guardianID)
	if err != nil {
		return nil, err
	}
	if guardian == nil || guardian.IsChild {
		return nil, ValidationError("guardian_id", "guardian must be an existing adult profile")
	}
	return s.link(ctx, req, models.Relationship{ParentID: guardianID, ChildID: childID, Kind: models.KindGuardian})
}

func (s *RelationshipService) link(ctx context.Context, req *policy.Requester, rel models.Relationship) (*models.Relationship, error) {
	if rel.ParentID == rel.ChildID {
		return nil, ValidationError("child_id", "a profile cannot be linked to itself")
	}
	row := policy.Row{OwnerID: rel.ParentID, SubjectID: rel.ChildID, Guardian: rel.Kind == models.KindGuardian}

	existing, err := s.relationships.Get(ctx, rel.ParentID, rel.ChildID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	if existing != nil {
		if err := authorize(ctx, s.policy, req, access{policy.TableRelationships, policy.OpUpdate, row}); err != nil {
			return nil, err
		}
		if existing.Active {
			return nil, ConflictError("an active relationship already exists for this pair")
		}
		if rel.Kind == models.KindGuardian {
			existing.Kind = rel.Kind
		}
		existing.Active = true
		existing.ConsentGiven = true
		existing.ConsentAt = &now
		existing.UpdatedAt = now
		if err := s.relationships.Reactivate(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if err := authorize(ctx, s.policy, req, access{policy.TableRelationships, policy.OpInsert, row}); err != nil {
		return nil, err
	}
	child, err := s.profiles.ProfileByID(ctx, rel.ChildID)
	if err != nil {
		return nil, err
	}
	if child == nil || !child.IsChild {
		return nil, ValidationError("child_id", "child must be an existing child profile")
	}

	rel.ID = uuid.NewString()
	rel.Active = true
	rel.ConsentGiven = true
	rel.ConsentAt = &now
	rel.CreatedAt = now
	rel.UpdatedAt = now
	if err := s.relationships.Create(ctx, &rel); err != nil {
		return nil, mapStoreError(err, "an active relationship already exists for this pair")
	}
	return &rel, nil
}

// Deactivate switches off the link from parentID to childID. Only parentID
// may do this.
func (s *RelationshipService) Deactivate(ctx context.Context, req *policy.Requester, parentID, childID string) error {
	id, err := resolve(ctx, s.policy, req)
	if err != nil {
		return err
	}
	if id.ProfileID == "" || id.ProfileID != parentID {
		return AuthorizationError(policy.TableRelationships, policy.OpUpdate)
	}
	row := policy.Row{OwnerID: parentID, SubjectID: childID}
	if err := authorize(ctx, s.policy, req, access{policy.TableRelationships, policy.OpUpdate, row}); err != nil {
		return err
	}

	changed, err := s.relationships.Deactivate(ctx, parentID, childID, s.now())
	if err != nil {
		return err
	}
	if !changed {
		return ErrNotFound
	}
	return nil
}

// IsActiveParentOf is a plain storage lookup
func (s *RelationshipService) IsActiveParentOf(ctx context.Context, parentID, childID string) (bool, error) {
	return s.relationships.IsActiveParentOf(ctx, parentID, childID)
}

// ChildrenOf lists the active links of parentID that the requester may see
func (s *RelationshipService) ChildrenOf(ctx context.Context, req *policy.Requester, parentID string) ([]models.Relationship, error) {
	rels, err := s.relationships.ActiveByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, req, rels), nil
}

// ParentsOf lists the active links of childID that the requester may see
func (s *RelationshipService) ParentsOf(ctx context.Context, req *policy.Requester, childID string) ([]models.Relationship, error) {
	rels, err := s.relationships.ActiveByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, req, rels), nil
}

func (s *RelationshipService) visible(ctx context.Context, req *policy.Requester, rels []models.Relationship) []models.Relationship {
	return policy.FilterVisible(ctx, s.policy, req, policy.TableRelationships, rels, func(r models.Relationship) policy.Row {
		return policy.Row{OwnerID: r.ParentID, SubjectID: r.ChildID, Guardian: r.Kind == models.KindGuardian}
	})
}
