package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

// AchievementRepository handles achievement definitions and earned achievements
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AchievementRepository) WithTx(tx database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: tx}
}

// UpsertDefinitions inserts new definitions and refreshes existing ones
func (r *AchievementRepository) UpsertDefinitions(ctx context.Context, defs []models.Achievement) error {
	insert := r.db.GetDialect().InsertIgnore("achievements",
		[]string{"code", "name", "description", "metric", "threshold", "bonus_points"})
	update := "UPDATE achievements SET name = ?, description = ?, metric = ?, threshold = ?, bonus_points = ? WHERE code = ?"

	for _, a := range defs {
		if _, err := r.db.ExecContext(ctx, insert, a.Code, a.Name, a.Description, string(a.Metric), a.Threshold, a.BonusPoints); err != nil {
			return fmt.Errorf("failed to insert achievement %s: %w", a.Code, err)
		}
		if _, err := r.db.ExecContext(ctx, update, a.Name, a.Description, string(a.Metric), a.Threshold, a.BonusPoints, a.Code); err != nil {
			return fmt.Errorf("failed to update achievement %s: %w", a.Code, err)
		}
	}
	return nil
}

// Definitions lists the stored definitions ordered by threshold
func (r *AchievementRepository) Definitions(ctx context.Context) ([]models.Achievement, error) {
	query := "SELECT code, name, description, metric, threshold, bonus_points FROM achievements ORDER BY threshold ASC, code ASC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var defs []models.Achievement
	for rows.Next() {
		var a models.Achievement
		var metric string
		if err := rows.Scan(&a.Code, &a.Name, &a.Description, &metric, &a.Threshold, &a.BonusPoints); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		a.Metric = models.AchievementMetric(metric)
		defs = append(defs, a)
	}
	return defs, rows.Err()
}

// Earn records an unlock. It reports false when the profile already had it.
func (r *AchievementRepository) Earn(ctx context.Context, profileID, code string, bonus int, now time.Time) (bool, error) {
	query := r.db.GetDialect().InsertIgnore("earned_achievements",
		[]string{"profile_id", "achievement_code", "bonus_points", "earned_at"})
	result, err := r.db.ExecContext(ctx, query, profileID, code, bonus, now.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to record achievement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record achievement: %w", err)
	}
	return n > 0, nil
}

// EarnedCodes returns the set of achievement codes a profile has earned
func (r *AchievementRepository) EarnedCodes(ctx context.Context, profileID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT achievement_code FROM earned_achievements WHERE profile_id = ?", profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query earned achievements: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan earned achievement: %w", err)
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

// ListEarned retrieves a profile's earned achievements, oldest first
func (r *AchievementRepository) ListEarned(ctx context.Context, profileID string) ([]models.EarnedAchievement, error) {
	query := `
		SELECT e.id, e.profile_id, e.achievement_code, a.name, e.bonus_points, e.earned_at
		FROM earned_achievements e
		JOIN achievements a ON a.code = e.achievement_code
		WHERE e.profile_id = ?
		ORDER BY e.earned_at ASC, e.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query earned achievements: %w", err)
	}
	defer rows.Close()

	earned := []models.EarnedAchievement{}
	for rows.Next() {
		var e models.EarnedAchievement
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.AchievementCode, &e.Name, &e.BonusPoints, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan earned achievement: %w", err)
		}
		earned = append(earned, e)
	}
	return earned, rows.Err()
}
