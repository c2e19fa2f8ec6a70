package service

import (
	"math"
	"time"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

// nextStreak applies one activity on day to a streak whose last activity was
// lastDay. Both are YYYY-MM-DD; lastDay may be empty. Activities dated before
// lastDay leave the streak and last day untouched.
func nextStreak(current int, lastDay, day string) (int, string) {
	if lastDay == "" {
		return 1, day
	}
	if day == lastDay {
		return current, lastDay
	}

	last, errLast := time.Parse(models.DateLayout, lastDay)
	today, errToday := time.Parse(models.DateLayout, day)
	if errLast != nil || errToday != nil {
		return 1, day
	}
	if today.Before(last) {
		return current, lastDay
	}
	if last.AddDate(0, 0, 1).Equal(today) {
		return current + 1, day
	}
	return 1, day
}

// runningAverage folds rating into an average over countBefore ratings,
// rounding half away from zero.
func runningAverage(average, countBefore, rating int) int {
	if countBefore <= 0 {
		return rating
	}
	return int(math.Round(float64(average*countBefore+rating) / float64(countBefore+1)))
}

// activityDate is the calendar day of t in loc.
func activityDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(models.DateLayout)
}

// applyActivity folds one session into the aggregate.
func applyActivity(p *models.Progress, s *models.ExerciseSession) {
	p.AverageRating = runningAverage(p.AverageRating, p.CompletedCount, s.Rating)
	p.TotalPoints += s.Points
	p.CompletedCount++
	p.TotalDurationSeconds += s.DurationSeconds
	p.CurrentStreak, p.LastActivityDate = nextStreak(p.CurrentStreak, p.LastActivityDate, s.ActivityDate)
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
}

// unlockAchievements grants every definition p now satisfies and that is not
// in earned, adding bonuses to the total. A bonus can push the total over
// another points threshold, so it repeats until nothing new unlocks. earned
// is updated in place.
func unlockAchievements(p *models.Progress, defs []models.Achievement, earned map[string]bool) []models.Achievement {
	var unlocked []models.Achievement
	for {
		progressed := false
		for _, def := range defs {
			if earned[def.Code] || !def.Reached(p) {
				continue
			}
			earned[def.Code] = true
			p.TotalPoints += def.BonusPoints
			unlocked = append(unlocked, def)
			progressed = true
		}
		if !progressed {
			return unlocked
		}
	}
}
