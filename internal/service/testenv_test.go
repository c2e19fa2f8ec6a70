package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/catalog"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database/dbtest"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/repository"
)

var testClock = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

type sentEmail struct {
	kind     string
	parentID string
	childID  string
	codes    []string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) SendConsentReceipt(_ context.Context, parent, child *models.Profile, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{kind: "consent", parentID: parent.ID, childID: child.ID})
	return n.err
}

func (n *recordingNotifier) SendAchievementEmail(_ context.Context, parent, child *models.Profile, unlocked []models.Achievement) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	codes := make([]string, len(unlocked))
	for i, a := range unlocked {
		codes[i] = a.Code
	}
	n.sent = append(n.sent, sentEmail{kind: "achievement", parentID: parent.ID, childID: child.ID, codes: codes})
	return n.err
}

func (n *recordingNotifier) emails(kind string) []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEmail
	for _, e := range n.sent {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db            *database.DB
	notifier      *recordingNotifier
	profiles      *ProfileService
	relationships *RelationshipService
	onboarding    *OnboardingService
	progress      *ProgressService
	export        *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)

	cat, err := catalog.Default()
	require.NoError(t, err)
	evaluator, err := policy.New(repository.NewIdentityStore(db))
	require.NoError(t, err)

	profileRepo := repository.NewProfileRepository(db)
	relRepo := repository.NewRelationshipRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	notifier := &recordingNotifier{}
	log := logger.Nop()

	env := &testEnv{
		db:            db,
		notifier:      notifier,
		profiles:      NewProfileService(db, profileRepo, progressRepo, evaluator),
		relationships: NewRelationshipService(profileRepo, relRepo, evaluator),
		onboarding:    NewOnboardingService(db, profileRepo, relRepo, progressRepo, evaluator, notifier, log),
		progress: NewProgressService(db, profileRepo, relRepo,
			repository.NewActivityRepository(db),
			progressRepo,
			repository.NewAchievementRepository(db),
			repository.NewAdventureRepository(db),
			cat, evaluator, notifier, log, time.UTC),
	}
	env.export = NewExportService(profileRepo, env.profiles, env.relationships, env.progress, log)

	clock := func() time.Time { return testClock }
	env.profiles.now = clock
	env.relationships.now = clock
	env.onboarding.now = clock
	env.progress.now = clock
	env.export.now = clock

	require.NoError(t, env.progress.SyncCatalog(ctx))
	return env
}

// as builds a fresh request for login, optionally acting as a child
func as(login string, actAs ...string) *policy.Requester {
	if len(actAs) > 0 {
		return policy.NewRequester(login, actAs[0])
	}
	return policy.NewRequester(login, "")
}

func (e *testEnv) register(t *testing.T, login, name string) *models.Profile {
	t.Helper()
	p, err := e.profiles.CreateProfile(context.Background(), as(login), CreateProfileInput{
		DisplayName: name,
		Email:       login + "@example.com",
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) onboardChild(t *testing.T, parentLogin, name string) *models.Profile {
	t.Helper()
	child, _, err := e.onboarding.OnboardChild(context.Background(), as(parentLogin), OnboardChildInput{
		DisplayName: name,
		DateOfBirth: "2017-06-01",
	})
	require.NoError(t, err)
	return child
}

func (e *testEnv) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 17, 0, 0, 0, time.UTC)
}

var errBoom = errors.New("boom")
