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

const progressColumns = `profile_id, total_points, completed_count, total_duration_seconds, current_streak,
	longest_streak, last_activity_date, average_rating, updated_at`

// ProgressRepository handles database operations for progress aggregates
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ProgressRepository) WithTx(tx database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

// Ensure creates an empty progress row for profileID unless one exists
func (r *ProgressRepository) Ensure(ctx context.Context, profileID string, now time.Time) error {
	query := r.db.GetDialect().InsertIgnore("progress", []string{"profile_id", "updated_at"})
	if _, err := r.db.ExecContext(ctx, query, profileID, now.UTC()); err != nil {
		return fmt.Errorf("failed to initialize progress: %w", err)
	}
	return nil
}

// Get retrieves a profile's progress
func (r *ProgressRepository) Get(ctx context.Context, profileID string) (*models.Progress, error) {
	return r.get(ctx, profileID, "")
}

// GetForUpdate retrieves a profile's progress and locks the row until the
// transaction ends. It must run inside a transaction.
func (r *ProgressRepository) GetForUpdate(ctx context.Context, profileID string) (*models.Progress, error) {
	return r.get(ctx, profileID, r.db.GetDialect().LockClause())
}

func (r *ProgressRepository) get(ctx context.Context, profileID, lock string) (*models.Progress, error) {
	query := "SELECT " + progressColumns + " FROM progress WHERE profile_id = ?" + lock

	var (
		p        models.Progress
		lastDate sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, profileID).Scan(
		&p.ProfileID,
		&p.TotalPoints,
		&p.CompletedCount,
		&p.TotalDurationSeconds,
		&p.CurrentStreak,
		&p.LongestStreak,
		&lastDate,
		&p.AverageRating,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	p.LastActivityDate = lastDate.String
	return &p, nil
}

// Save writes every aggregate field of p
func (r *ProgressRepository) Save(ctx context.Context, p *models.Progress) error {
	query := `
		UPDATE progress
		SET total_points = ?, completed_count = ?, total_duration_seconds = ?, current_streak = ?,
			longest_streak = ?, last_activity_date = ?, average_rating = ?, updated_at = ?
		WHERE profile_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.TotalPoints,
		p.CompletedCount,
		p.TotalDurationSeconds,
		p.CurrentStreak,
		p.LongestStreak,
		nullString(p.LastActivityDate),
		p.AverageRating,
		p.UpdatedAt.UTC(),
		p.ProfileID,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to save progress: %w", sql.ErrNoRows)
	}
	return nil
}
