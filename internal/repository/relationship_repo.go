package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

const relationshipColumns = "id, parent_id, child_id, kind, active, consent_given, consent_at, created_at, updated_at"

// RelationshipRepository handles database operations for parent-child links.
// Its lookups are plain storage reads and never consult the policy evaluator.
type RelationshipRepository struct {
	db database.DBTX
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db database.DBTX) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *RelationshipRepository) WithTx(tx database.DBTX) *RelationshipRepository {
	return &RelationshipRepository{db: tx}
}

// Create inserts a relationship. A duplicate pair fails with a unique violation.
func (r *RelationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	query := `
		INSERT INTO relationships (id, parent_id, child_id, kind, active, consent_given, consent_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rel.ID,
		rel.ParentID,
		rel.ChildID,
		string(rel.Kind),
		rel.Active,
		rel.ConsentGiven,
		nullTime(rel.ConsentAt),
		rel.CreatedAt.UTC(),
		rel.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create relationship: %w", err)
	}
	return nil
}

// Get retrieves the relationship row for a pair, active or not
func (r *RelationshipRepository) Get(ctx context.Context, parentID, childID string) (*models.Relationship, error) {
	query := "SELECT " + relationshipColumns + " FROM relationships WHERE parent_id = ? AND child_id = ?"
	rel, err := scanRelationship(r.db.QueryRowContext(ctx, query, parentID, childID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// Reactivate turns an inactive row back on with fresh consent
func (r *RelationshipRepository) Reactivate(ctx context.Context, rel *models.Relationship) error {
	query := `
		UPDATE relationships
		SET active = ?, kind = ?, consent_given = ?, consent_at = ?, updated_at = ?
		WHERE id = ? AND active = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		true, string(rel.Kind), rel.ConsentGiven, nullTime(rel.ConsentAt), rel.UpdatedAt.UTC(), rel.ID, false)
	if err != nil {
		return fmt.Errorf("failed to reactivate relationship: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to reactivate relationship: %w", sql.ErrNoRows)
	}
	return nil
}

// Deactivate switches off the active row for a pair. It reports whether a row changed.
func (r *RelationshipRepository) Deactivate(ctx context.Context, parentID, childID string, now time.Time) (bool, error) {
	query := "UPDATE relationships SET active = ?, updated_at = ? WHERE parent_id = ? AND child_id = ? AND active = ?"
	result, err := r.db.ExecContext(ctx, query, false, now.UTC(), parentID, childID, true)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate relationship: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to deactivate relationship: %w", err)
	}
	return n > 0, nil
}

// IsActiveParentOf reports whether an active link exists from parentID to childID
func (r *RelationshipRepository) IsActiveParentOf(ctx context.Context, parentID, childID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM relationships WHERE parent_id = ? AND child_id = ? AND active = ?"
	if err := r.db.QueryRowContext(ctx, query, parentID, childID, true).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check relationship: %w", err)
	}
	return count > 0, nil
}

// ActiveChildIDs lists the children actively linked to parentID
func (r *RelationshipRepository) ActiveChildIDs(ctx context.Context, parentID string) ([]string, error) {
	rels, err := r.ActiveByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rels))
	for i, rel := range rels {
		ids[i] = rel.ChildID
	}
	return ids, nil
}

// ActiveByParent lists the active rows where parentID is the adult
func (r *RelationshipRepository) ActiveByParent(ctx context.Context, parentID string) ([]models.Relationship, error) {
	query := "SELECT " + relationshipColumns + " FROM relationships WHERE parent_id = ? AND active = ? ORDER BY created_at ASC, id ASC"
	return r.list(ctx, query, parentID, true)
}

// ActiveByChild lists the active rows where childID is the child
func (r *RelationshipRepository) ActiveByChild(ctx context.Context, childID string) ([]models.Relationship, error) {
	query := "SELECT " + relationshipColumns + " FROM relationships WHERE child_id = ? AND active = ? ORDER BY created_at ASC, id ASC"
	return r.list(ctx, query, childID, true)
}

func (r *RelationshipRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, *rel)
	}
	return rels, rows.Err()
}

func scanRelationship(s scanner) (*models.Relationship, error) {
	var (
		rel       models.Relationship
		kind      string
		consentAt sql.NullTime
	)
	err := s.Scan(
		&rel.ID,
		&rel.ParentID,
		&rel.ChildID,
		&kind,
		&rel.Active,
		&rel.ConsentGiven,
		&consentAt,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rel.Kind = models.RelationshipKind(kind)
	rel.ConsentAt = timePtr(consentAt)
	return &rel, nil
}
