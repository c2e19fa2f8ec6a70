package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
)

func achievementCodes(t *testing.T, env *testEnv, login, profileID string) []string {
	t.Helper()
	earned, err := env.progress.EarnedAchievements(context.Background(), as(login), profileID)
	require.NoError(t, err)
	codes := make([]string, len(earned))
	for i, e := range earned {
		codes[i] = e.AchievementCode
	}
	return codes
}

func TestRecordActivityAsChild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.register(t, "login-p", "Parent")
	child := env.onboardChild(t, "login-p", "Robin")

	result, err := env.progress.RecordActivity(ctx, as("login-p", child.ID), ActivityInput{
		ExerciseCode:    "jumping-jacks",
		DurationSeconds: 120,
		Points:          10,
		Rating:          4,
		CompletedAt:     day(18),
	})
	require.NoError(t, err)

	assert.Equal(t, child.ID, result.Session.ProfileID)
	assert.Equal(t, "2026-03-18", result.Session.ActivityDate)
	assert.NotZero(t, result.Session.ID)

	p := result.Progress
	assert.Equal(t, 15, p.TotalPoints, "10 points plus the first-steps bonus")
	assert.Equal(t, 1, p.CompletedCount)
	assert.Equal(t, 120, p.TotalDurationSeconds)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.LongestStreak)
	assert.Equal(t, 4, p.AverageRating)
	assert.Equal(t, "2026-03-18", p.LastActivityDate)

	require.Len(t, result.Unlocked, 1)
	assert.Equal(t, "first-steps", result.Unlocked[0].Code)
	assert.Equal(t, []string{"first-steps"}, achievementCodes(t, env, "login-p", child.ID))

	emails := env.notifier.emails("achievement")
	require.Len(t, emails, 1)
	assert.Equal(t, parent.ID, emails[0].parentID)
	assert.Equal(t, []string{"first-steps"}, emails[0].codes)
}

func TestRecordActivityStreakAndAverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-a", "Adult")

	steps := []struct {
		day           int
		rating        int
		wantStreak    int
		wantLongest   int
		wantAverage   int
		wantCompleted int
	}{
		{day: 10, rating: 5, wantStreak: 1, wantLongest: 1, wantAverage: 5, wantCompleted: 1},
		{day: 11, rating: 4, wantStreak: 2, wantLongest: 2, wantAverage: 5, wantCompleted: 2},
		{day: 11, rating: 2, wantStreak: 2, wantLongest: 2, wantAverage: 4, wantCompleted: 3},
		{day: 12, rating: 3, wantStreak: 3, wantLongest: 3, wantAverage: 4, wantCompleted: 4},
		{day: 15, rating: 1, wantStreak: 1, wantLongest: 3, wantAverage: 3, wantCompleted: 5},
		{day: 9, rating: 5, wantStreak: 1, wantLongest: 3, wantAverage: 3, wantCompleted: 6},
	}

	for _, step := range steps {
		result, err := env.progress.RecordActivity(ctx, as("login-a"), ActivityInput{
			ExerciseCode: "running",
			Points:       1,
			Rating:       step.rating,
			CompletedAt:  day(step.day),
		})
		require.NoError(t, err)
		p := result.Progress
		assert.Equal(t, step.wantStreak, p.CurrentStreak, "streak after day %d", step.day)
		assert.Equal(t, step.wantLongest, p.LongestStreak, "longest after day %d", step.day)
		assert.Equal(t, step.wantAverage, p.AverageRating, "average after day %d", step.day)
		assert.Equal(t, step.wantCompleted, p.CompletedCount)
	}

	p, err := env.progress.GetProgress(ctx, as("login-a"), env.register(t, "login-x", "X").ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, p)

	assert.Contains(t, achievementCodes(t, env, "login-a", mustProfileID(t, env, "login-a")), "three-in-a-row")
}

func mustProfileID(t *testing.T, env *testEnv, login string) string {
	t.Helper()
	profiles, err := env.profiles.VisibleProfiles(context.Background(), as(login))
	require.NoError(t, err)
	require.NotEmpty(t, profiles)
	return profiles[0].ID
}

func TestRecordActivityBonusCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-a", "Adult")

	result, err := env.progress.RecordActivity(ctx, as("login-a"), ActivityInput{
		ExerciseCode: "marathon",
		Points:       95,
		Rating:       5,
		CompletedAt:  day(19),
	})
	require.NoError(t, err)

	codes := make([]string, len(result.Unlocked))
	for i, a := range result.Unlocked {
		codes[i] = a.Code
	}
	assert.ElementsMatch(t, []string{"first-steps", "century"}, codes)
	assert.Equal(t, 95+5+25, result.Progress.TotalPoints)
}

func TestRecordActivityValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "login-a", "Adult")

	tests := []struct {
		name  string
		input ActivityInput
	}{
		{"rating too low", ActivityInput{ExerciseCode: "squats", Rating: 0}},
		{"rating too high", ActivityInput{ExerciseCode: "squats", Rating: 6}},
		{"negative points", ActivityInput{ExerciseCode: "squats", Rating: 3, Points: -1}},
		{"bad exercise code", ActivityInput{ExerciseCode: "Squats!", Rating: 3}},
		{"future completion", ActivityInput{ExerciseCode: "squats", Rating: 3, CompletedAt: testClock.AddDate(0, 0, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.progress.RecordActivity(context.Background(), as("login-a"), tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM exercise_sessions"))
}

func TestRecordActivityAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-p", "Parent")
	env.register(t, "login-o", "Other")
	child := env.onboardChild(t, "login-p", "Robin")

	_, err := env.progress.RecordActivity(ctx, as("login-p"), ActivityInput{ProfileID: child.ID, ExerciseCode: "squats", Rating: 3})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.progress.RecordActivity(ctx, as("login-o", child.ID), ActivityInput{ExerciseCode: "squats", Rating: 3})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.progress.RecordActivity(ctx, as("login-nobody"), ActivityInput{ExerciseCode: "squats", Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM exercise_sessions"))
}

func TestFamilyRecordVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-p", "Parent")
	env.register(t, "login-o", "Other")
	child := env.onboardChild(t, "login-p", "Robin")

	_, err := env.progress.RecordActivity(ctx, as("login-p", child.ID), ActivityInput{ExerciseCode: "squats", Points: 5, Rating: 3, CompletedAt: day(19)})
	require.NoError(t, err)

	sessions, err := env.progress.ListSessions(ctx, as("login-p"), child.ID, 10)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	sessions, err = env.progress.ListSessions(ctx, as("login-o"), child.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	earned, err := env.progress.EarnedAchievements(ctx, as("login-o"), child.ID)
	require.NoError(t, err)
	assert.Empty(t, earned)

	_, err = env.progress.GetProgress(ctx, as("login-o"), child.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := env.progress.GetProgress(ctx, as("login-p"), child.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.TotalPoints)
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-p", "Parent")
	env.register(t, "login-o", "Other")
	child := env.onboardChild(t, "login-p", "Robin")

	result, err := env.progress.RecordActivity(ctx, as("login-p", child.ID), ActivityInput{ExerciseCode: "squats", Points: 5, Rating: 3, CompletedAt: day(19)})
	require.NoError(t, err)
	id := result.Session.ID

	hiddenErr := env.progress.DeleteSession(ctx, as("login-o"), id)
	assert.ErrorIs(t, hiddenErr, ErrUnauthorized)
	missingErr := env.progress.DeleteSession(ctx, as("login-o"), id+1000)
	assert.ErrorIs(t, missingErr, ErrUnauthorized)
	assert.Equal(t, hiddenErr.Error(), missingErr.Error())

	require.NoError(t, env.progress.DeleteSession(ctx, as("login-p"), id))
	assert.ErrorIs(t, env.progress.DeleteSession(ctx, as("login-p"), id), ErrUnauthorized)

	p, err := env.progress.GetProgress(ctx, as("login-p"), child.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedCount)
}

func TestConcurrentActivitiesSerialize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-p", "Parent")
	child := env.onboardChild(t, "login-p", "Robin")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.progress.RecordActivity(ctx, as("login-p", child.ID), ActivityInput{
				ExerciseCode: "skipping",
				Points:       2,
				Rating:       3,
				CompletedAt:  day(19),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p, err := env.progress.GetProgress(ctx, as("login-p"), child.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, p.CompletedCount)
	assert.Equal(t, workers*2+5, p.TotalPoints)
	assert.Equal(t, []string{"first-steps"}, achievementCodes(t, env, "login-p", child.ID))
}

func TestAdvanceAdventure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-p", "Parent")
	child := env.onboardChild(t, "login-p", "Robin")
	req := func() *policy.Requester { return as("login-p", child.ID) }

	var last *AdventureResult
	for i := 1; i <= 5; i++ {
		result, err := env.progress.AdvanceAdventure(ctx, req(), "jungle-trek")
		require.NoError(t, err)
		assert.Equal(t, i, result.Adventure.StepsCompleted)
		last = result
	}
	assert.True(t, last.Adventure.Completed)
	require.NotNil(t, last.Adventure.CompletedAt)
	assert.Equal(t, 50, last.Progress.TotalPoints)

	_, err := env.progress.AdvanceAdventure(ctx, req(), "jungle-trek")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.progress.AdvanceAdventure(ctx, req(), "moon-walk")
	assert.ErrorIs(t, err, ErrValidation)

	list, err := env.progress.ListAdventures(ctx, as("login-p"), child.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "jungle-trek", list[0].PathCode)
}

func TestAdventureRewardUnlocksAchievements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-a", "Adult")
	_, err := env.progress.RecordActivity(ctx, as("login-a"), ActivityInput{ExerciseCode: "squats", Points: 60, Rating: 3, CompletedAt: day(19)})
	require.NoError(t, err)

	var last *AdventureResult
	for i := 0; i < 5; i++ {
		last, err = env.progress.AdvanceAdventure(ctx, as("login-a"), "jungle-trek")
		require.NoError(t, err)
	}
	require.Len(t, last.Unlocked, 1)
	assert.Equal(t, "century", last.Unlocked[0].Code)
	assert.Equal(t, 60+5+50+25, last.Progress.TotalPoints)
}

func TestFamilyOverview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "login-p", "Parent")
	first := env.onboardChild(t, "login-p", "First")
	second := env.onboardChild(t, "login-p", "Second")

	_, err := env.progress.RecordActivity(ctx, as("login-p", first.ID), ActivityInput{ExerciseCode: "squats", Points: 5, Rating: 3, CompletedAt: day(19)})
	require.NoError(t, err)

	overview, err := env.progress.FamilyOverview(ctx, as("login-p"))
	require.NoError(t, err)
	require.Len(t, overview, 2)

	byID := map[string]int{}
	for i, s := range overview {
		byID[s.Profile.ID] = i
	}
	firstSummary := overview[byID[first.ID]]
	require.NotNil(t, firstSummary.Progress)
	assert.Equal(t, 10, firstSummary.Progress.TotalPoints)
	assert.Len(t, firstSummary.Achievements, 1)

	secondSummary := overview[byID[second.ID]]
	require.NotNil(t, secondSummary.Progress)
	assert.Zero(t, secondSummary.Progress.TotalPoints)
	assert.Empty(t, secondSummary.Achievements)

	overview, err = env.progress.FamilyOverview(ctx, as("login-p", first.ID))
	require.NoError(t, err)
	assert.Empty(t, overview)
}
