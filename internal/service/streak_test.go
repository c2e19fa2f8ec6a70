package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		lastDay    string
		day        string
		wantStreak int
		wantLast   string
	}{
		{"first activity", 0, "", "2026-03-10", 1, "2026-03-10"},
		{"consecutive day", 1, "2026-03-10", "2026-03-11", 2, "2026-03-11"},
		{"same day", 4, "2026-03-10", "2026-03-10", 4, "2026-03-10"},
		{"gap of three days", 5, "2026-03-10", "2026-03-13", 1, "2026-03-13"},
		{"month boundary", 2, "2026-02-28", "2026-03-01", 3, "2026-03-01"},
		{"leap day", 2, "2028-02-28", "2028-02-29", 3, "2028-02-29"},
		{"year boundary", 9, "2025-12-31", "2026-01-01", 10, "2026-01-01"},
		{"backdated activity", 3, "2026-03-10", "2026-03-08", 3, "2026-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streak, last := nextStreak(tt.current, tt.lastDay, tt.day)
			assert.Equal(t, tt.wantStreak, streak)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestRunningAverage(t *testing.T) {
	tests := []struct {
		name    string
		average int
		count   int
		rating  int
		want    int
	}{
		{"first rating", 0, 0, 3, 3},
		{"4 over 3 then 5", 4, 3, 5, 4},
		{"rounds half up", 3, 1, 4, 4},
		{"rounds to nearest", 5, 2, 1, 4},
		{"stays put", 2, 10, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runningAverage(tt.average, tt.count, tt.rating))
		})
	}
}

func TestActivityDate(t *testing.T) {
	sydney, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Skip("time zone database unavailable")
	}
	ts := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-10", activityDate(ts, nil))
	assert.Equal(t, "2026-03-11", activityDate(ts, sydney))
}

func TestApplyActivityAndUnlock(t *testing.T) {
	p := &models.Progress{TotalPoints: 90, CompletedCount: 3, AverageRating: 4, CurrentStreak: 2, LongestStreak: 2, LastActivityDate: "2026-03-09"}
	applyActivity(p, &models.ExerciseSession{Points: 5, Rating: 5, DurationSeconds: 120, ActivityDate: "2026-03-10"})

	assert.Equal(t, 95, p.TotalPoints)
	assert.Equal(t, 4, p.CompletedCount)
	assert.Equal(t, 4, p.AverageRating)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)
	assert.Equal(t, 120, p.TotalDurationSeconds)

	defs := []models.Achievement{
		{Code: "streak-3", Metric: models.MetricStreak, Threshold: 3, BonusPoints: 10},
		{Code: "century", Metric: models.MetricPoints, Threshold: 100, BonusPoints: 20},
		{Code: "big", Metric: models.MetricPoints, Threshold: 125, BonusPoints: 0},
		{Code: "many", Metric: models.MetricCompletions, Threshold: 50, BonusPoints: 0},
	}
	earned := map[string]bool{}

	unlocked := unlockAchievements(p, defs, earned)

	codes := make([]string, len(unlocked))
	for i, a := range unlocked {
		codes[i] = a.Code
	}
	// streak bonus reaches 105, the century bonus then reaches 125
	assert.Equal(t, []string{"streak-3", "century", "big"}, codes)
	assert.Equal(t, 125, p.TotalPoints)
	assert.True(t, earned["big"])

	again := unlockAchievements(p, defs, earned)
	assert.Empty(t, again, "achievements unlock once")
}
