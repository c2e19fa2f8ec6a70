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

const adventureColumns = "id, profile_id, path_code, steps_completed, completed, completed_at, updated_at"

// AdventureRepository handles database operations for adventure path progress
type AdventureRepository struct {
	db database.DBTX
}

// NewAdventureRepository creates a new adventure repository
func NewAdventureRepository(db database.DBTX) *AdventureRepository {
	return &AdventureRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AdventureRepository) WithTx(tx database.DBTX) *AdventureRepository {
	return &AdventureRepository{db: tx}
}

// Ensure creates a zero-step row for (profileID, pathCode) unless one exists
func (r *AdventureRepository) Ensure(ctx context.Context, profileID, pathCode string, now time.Time) error {
	query := r.db.GetDialect().InsertIgnore("adventure_progress", []string{"profile_id", "path_code", "updated_at"})
	if _, err := r.db.ExecContext(ctx, query, profileID, pathCode, now.UTC()); err != nil {
		return fmt.Errorf("failed to initialize adventure progress: %w", err)
	}
	return nil
}

// GetForUpdate retrieves and locks a profile's progress along a path
func (r *AdventureRepository) GetForUpdate(ctx context.Context, profileID, pathCode string) (*models.AdventureProgress, error) {
	query := "SELECT " + adventureColumns + " FROM adventure_progress WHERE profile_id = ? AND path_code = ?" +
		r.db.GetDialect().LockClause()
	ap, err := scanAdventure(r.db.QueryRowContext(ctx, query, profileID, pathCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get adventure progress: %w", err)
	}
	return ap, nil
}

// Save writes the step count and completion state
func (r *AdventureRepository) Save(ctx context.Context, ap *models.AdventureProgress) error {
	query := "UPDATE adventure_progress SET steps_completed = ?, completed = ?, completed_at = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, ap.StepsCompleted, ap.Completed, nullTime(ap.CompletedAt), ap.UpdatedAt.UTC(), ap.ID)
	if err != nil {
		return fmt.Errorf("failed to save adventure progress: %w", err)
	}
	return nil
}

// ListByProfile retrieves every path a profile has started
func (r *AdventureRepository) ListByProfile(ctx context.Context, profileID string) ([]models.AdventureProgress, error) {
	query := "SELECT " + adventureColumns + " FROM adventure_progress WHERE profile_id = ? ORDER BY path_code ASC"
	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query adventure progress: %w", err)
	}
	defer rows.Close()

	var list []models.AdventureProgress
	for rows.Next() {
		ap, err := scanAdventure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adventure progress: %w", err)
		}
		list = append(list, *ap)
	}
	return list, rows.Err()
}

func scanAdventure(s scanner) (*models.AdventureProgress, error) {
	var (
		ap          models.AdventureProgress
		completedAt sql.NullTime
	)
	err := s.Scan(
		&ap.ID,
		&ap.ProfileID,
		&ap.PathCode,
		&ap.StepsCompleted,
		&ap.Completed,
		&completedAt,
		&ap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ap.CompletedAt = timePtr(completedAt)
	return &ap, nil
}
