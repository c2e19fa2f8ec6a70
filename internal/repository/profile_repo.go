package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

const profileColumns = `id, login_id, display_name, is_child, date_of_birth, consent_given, consent_at,
	share_data, analytics, email, avatar_color, created_at, updated_at`

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ProfileRepository) WithTx(tx database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Create inserts a profile. The caller assigns the ID and timestamps.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, login_id, display_name, is_child, date_of_birth, consent_given, consent_at,
			share_data, analytics, email, avatar_color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		nullString(p.LoginID),
		p.DisplayName,
		p.IsChild,
		nullString(p.DateOfBirth),
		p.ConsentGiven,
		nullTime(p.ConsentAt),
		p.Privacy.ShareData,
		p.Privacy.Analytics,
		nullString(p.Email),
		p.AvatarColor,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// ProfileByID retrieves a profile by ID
func (r *ProfileRepository) ProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE id = ?"
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ProfileByLogin retrieves the profile owned by an external login
func (r *ProfileRepository) ProfileByLogin(ctx context.Context, loginID string) (*models.Profile, error) {
	if loginID == "" {
		return nil, nil
	}
	query := "SELECT " + profileColumns + " FROM profiles WHERE login_id = ?"
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, loginID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by login: %w", err)
	}
	return p, nil
}

// ProfilesByIDs retrieves the profiles with the given IDs ordered by creation
func (r *ProfileRepository) ProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := "SELECT " + profileColumns + " FROM profiles WHERE id IN (" + placeholders + ") ORDER BY created_at ASC, id ASC"

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Update writes the mutable fields of a profile
func (r *ProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = ?, date_of_birth = ?, share_data = ?, analytics = ?, email = ?,
			avatar_color = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.DisplayName,
		nullString(p.DateOfBirth),
		p.Privacy.ShareData,
		p.Privacy.Analytics,
		nullString(p.Email),
		p.AvatarColor,
		p.UpdatedAt.UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update profile: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete removes a profile. Relationships and family-scoped rows cascade.
func (r *ProfileRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	return n > 0, nil
}

func scanProfile(s scanner) (*models.Profile, error) {
	var (
		p         models.Profile
		loginID   sql.NullString
		dob       sql.NullString
		email     sql.NullString
		consentAt sql.NullTime
	)
	err := s.Scan(
		&p.ID,
		&loginID,
		&p.DisplayName,
		&p.IsChild,
		&dob,
		&p.ConsentGiven,
		&consentAt,
		&p.Privacy.ShareData,
		&p.Privacy.Analytics,
		&email,
		&p.AvatarColor,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.LoginID = loginID.String
	p.DateOfBirth = dob.String
	p.Email = email.String
	p.ConsentAt = timePtr(consentAt)
	return &p, nil
}
