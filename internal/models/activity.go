package models

import "time"

// ExerciseSession is one completed exercise
type ExerciseSession struct {
	ID              int64     `json:"id"`
	ProfileID       string    `json:"profile_id"`
	ExerciseCode    string    `json:"exercise_code"`
	DurationSeconds int       `json:"duration_seconds"`
	Points          int       `json:"points"`
	Rating          int       `json:"rating"`
	CompletedAt     time.Time `json:"completed_at"`
	ActivityDate    string    `json:"activity_date"`
}

// Progress is the per-profile aggregate maintained by activity recording
type Progress struct {
	ProfileID            string    `json:"profile_id"`
	TotalPoints          int       `json:"total_points"`
	CompletedCount       int       `json:"completed_count"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	CurrentStreak        int       `json:"current_streak"`
	LongestStreak        int       `json:"longest_streak"`
	LastActivityDate     string    `json:"last_activity_date,omitempty"`
	AverageRating        int       `json:"average_rating"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Metric returns the aggregate value an achievement metric is measured against
func (p *Progress) Metric(m AchievementMetric) int {
	switch m {
	case MetricPoints:
		return p.TotalPoints
	case MetricCompletions:
		return p.CompletedCount
	case MetricStreak:
		return p.CurrentStreak
	case MetricLongestStreak:
		return p.LongestStreak
	case MetricDuration:
		return p.TotalDurationSeconds
	default:
		return 0
	}
}

// AchievementMetric names the progress value an achievement threshold applies to
type AchievementMetric string

const (
	MetricPoints        AchievementMetric = "points"
	MetricCompletions   AchievementMetric = "completions"
	MetricStreak        AchievementMetric = "streak"
	MetricLongestStreak AchievementMetric = "longest_streak"
	MetricDuration      AchievementMetric = "duration"
)

// Valid reports whether m is a known metric
func (m AchievementMetric) Valid() bool {
	switch m {
	case MetricPoints, MetricCompletions, MetricStreak, MetricLongestStreak, MetricDuration:
		return true
	}
	return false
}

// Achievement is a catalog definition
type Achievement struct {
	Code        string            `json:"code" yaml:"code"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Metric      AchievementMetric `json:"metric" yaml:"metric"`
	Threshold   int               `json:"threshold" yaml:"threshold"`
	BonusPoints int               `json:"bonus_points" yaml:"bonus_points"`
}

// Reached reports whether the progress meets this achievement's threshold
func (a *Achievement) Reached(p *Progress) bool {
	return p.Metric(a.Metric) >= a.Threshold
}

// EarnedAchievement records an unlock; one per (profile, achievement)
type EarnedAchievement struct {
	ID              int64     `json:"id"`
	ProfileID       string    `json:"profile_id"`
	AchievementCode string    `json:"achievement_code"`
	Name            string    `json:"name,omitempty"`
	BonusPoints     int       `json:"bonus_points"`
	EarnedAt        time.Time `json:"earned_at"`
}

// AdventurePath is a catalog sequence of steps with a reward on completion
type AdventurePath struct {
	Code         string `json:"code" yaml:"code"`
	Name         string `json:"name" yaml:"name"`
	Steps        int    `json:"steps" yaml:"steps"`
	RewardPoints int    `json:"reward_points" yaml:"reward_points"`
}

// AdventureProgress tracks one profile along one path
type AdventureProgress struct {
	ID             int64      `json:"id"`
	ProfileID      string     `json:"profile_id"`
	PathCode       string     `json:"path_code"`
	StepsCompleted int        `json:"steps_completed"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ChildSummary is one entry of a parent's family overview
type ChildSummary struct {
	Profile      Profile             `json:"profile"`
	Progress     *Progress           `json:"progress,omitempty"`
	Achievements []EarnedAchievement `json:"achievements"`
}
