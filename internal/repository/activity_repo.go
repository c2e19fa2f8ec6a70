package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

const sessionColumns = "id, profile_id, exercise_code, duration_seconds, points, rating, completed_at, activity_date"

// ActivityRepository handles database operations for exercise sessions
type ActivityRepository struct {
	db database.DBTX
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ActivityRepository) WithTx(tx database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: tx}
}

// Create inserts a session and sets its ID
func (r *ActivityRepository) Create(ctx context.Context, s *models.ExerciseSession) error {
	query := `
		INSERT INTO exercise_sessions (profile_id, exercise_code, duration_seconds, points, rating, completed_at, activity_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		s.ProfileID,
		s.ExerciseCode,
		s.DurationSeconds,
		s.Points,
		s.Rating,
		s.CompletedAt.UTC(),
		s.ActivityDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create exercise session: %w", err)
	}
	s.ID = id
	return nil
}

// GetByID retrieves a session by ID
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.ExerciseSession, error) {
	query := "SELECT " + sessionColumns + " FROM exercise_sessions WHERE id = ?"
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise session: %w", err)
	}
	return s, nil
}

// ListByProfile retrieves a profile's sessions, newest first
func (r *ActivityRepository) ListByProfile(ctx context.Context, profileID string, limit int) ([]models.ExerciseSession, error) {
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT " + sessionColumns + " FROM exercise_sessions WHERE profile_id = ? ORDER BY completed_at DESC, id DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercise sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ExerciseSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exercise session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Delete removes a session. It reports whether a row was removed.
func (r *ActivityRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM exercise_sessions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete exercise session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete exercise session: %w", err)
	}
	return n > 0, nil
}

func scanSession(s scanner) (*models.ExerciseSession, error) {
	var session models.ExerciseSession
	err := s.Scan(
		&session.ID,
		&session.ProfileID,
		&session.ExerciseCode,
		&session.DurationSeconds,
		&session.Points,
		&session.Rating,
		&session.CompletedAt,
		&session.ActivityDate,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
