package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

func TestLinkChild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.register(t, "login-p", "Parent")
	stranger := env.register(t, "login-s", "Stranger")
	child := env.onboardChild(t, "login-p", "Robin")

	_, err := env.progress.RecordActivity(ctx, as("login-p", child.ID), ActivityInput{ExerciseCode: "squats", Points: 5, Rating: 3, CompletedAt: day(19)})
	require.NoError(t, err)

	_, err = env.relationships.LinkChild(ctx, as("login-s"), stranger.ID, child.ID, false)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.relationships.LinkChild(ctx, as("login-s"), stranger.ID, child.ID, true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	active, err := env.relationships.IsActiveParentOf(ctx, stranger.ID, child.ID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM relationships WHERE parent_id = ?", stranger.ID))

	sessions, err := env.progress.ListSessions(ctx, as("login-s"), child.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	_, err = env.progress.GetProgress(ctx, as("login-s"), child.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.relationships.LinkChild(ctx, as("login-p"), parent.ID, child.ID, true)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLinkChildAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.register(t, "login-p", "Parent")
	other := env.register(t, "login-o", "Other")
	child := env.onboardChild(t, "login-p", "Robin")

	_, err := env.relationships.LinkChild(ctx, as("login-o"), parent.ID, child.ID, true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.relationships.LinkChild(ctx, as("login-p", child.ID), child.ID, child.ID, true)
	assert.ErrorIs(t, err, ErrValidation)

	// an adult id, a missing id and someone else's child are refused alike
	_, adultErr := env.relationships.LinkChild(ctx, as("login-o"), other.ID, parent.ID, true)
	_, missingErr := env.relationships.LinkChild(ctx, as("login-o"), other.ID, "missing", true)
	_, childErr := env.relationships.LinkChild(ctx, as("login-o"), other.ID, child.ID, true)
	for _, err := range []error{adultErr, missingErr, childErr} {
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, childErr.Error(), err.Error())
	}
}

func TestDeactivateTakesEffectImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.register(t, "login-p", "Parent")
	env.register(t, "login-o", "Other")
	child := env.onboardChild(t, "login-p", "Robin")

	_, err := env.progress.GetProgress(ctx, as("login-p"), child.ID)
	require.NoError(t, err)

	err = env.relationships.Deactivate(ctx, as("login-o"), parent.ID, child.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, env.relationships.Deactivate(ctx, as("login-p"), parent.ID, child.ID))

	_, err = env.progress.GetProgress(ctx, as("login-p"), child.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.profiles.GetProfile(ctx, as("login-p"), child.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.progress.RecordActivity(ctx, as("login-p", child.ID), ActivityInput{ExerciseCode: "squats", Rating: 3})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = env.relationships.Deactivate(ctx, as("login-p"), parent.ID, child.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	parents, err := env.relationships.ParentsOf(ctx, as("login-p"), child.ID)
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestRelinkReactivatesRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.register(t, "login-p", "Parent")
	child := env.onboardChild(t, "login-p", "Robin")

	original, err := env.relationships.ChildrenOf(ctx, as("login-p"), parent.ID)
	require.NoError(t, err)
	require.Len(t, original, 1)

	require.NoError(t, env.relationships.Deactivate(ctx, as("login-p"), parent.ID, child.ID))
	rel, err := env.relationships.LinkChild(ctx, as("login-p"), parent.ID, child.ID, true)
	require.NoError(t, err)

	assert.Equal(t, original[0].ID, rel.ID)
	assert.True(t, rel.Active)
	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM relationships WHERE parent_id = ? AND child_id = ?", parent.ID, child.ID))
}

func TestChildrenAndParentsOf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.register(t, "login-p", "Parent")
	env.register(t, "login-o", "Other")
	child := env.onboardChild(t, "login-p", "Robin")

	children, err := env.relationships.ChildrenOf(ctx, as("login-p"), parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ChildID)

	parents, err := env.relationships.ParentsOf(ctx, as("login-p", child.ID), child.ID)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, parent.ID, parents[0].ParentID)

	children, err = env.relationships.ChildrenOf(ctx, as("login-o"), parent.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestAddGuardian(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.register(t, "login-p", "Parent")
	guardian := env.register(t, "login-g", "Grandma")
	env.register(t, "login-o", "Other")
	child := env.onboardChild(t, "login-p", "Robin")

	_, err := env.relationships.AddGuardian(ctx, as("login-o"), child.ID, guardian.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.relationships.AddGuardian(ctx, as("login-p"), child.ID, child.ID)
	assert.ErrorIs(t, err, ErrValidation)

	rel, err := env.relationships.AddGuardian(ctx, as("login-p"), child.ID, guardian.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KindGuardian, rel.Kind)
	assert.Equal(t, guardian.ID, rel.ParentID)

	_, err = env.progress.GetProgress(ctx, as("login-g"), child.ID)
	require.NoError(t, err)

	parents, err := env.relationships.ParentsOf(ctx, as("login-p"), child.ID)
	require.NoError(t, err)
	assert.Len(t, parents, 2)

	err = env.relationships.Deactivate(ctx, as("login-p"), guardian.ID, child.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, env.relationships.Deactivate(ctx, as("login-g"), guardian.ID, child.ID))

	relinked, err := env.relationships.LinkChild(ctx, as("login-g"), guardian.ID, child.ID, true)
	require.NoError(t, err)
	assert.Equal(t, rel.ID, relinked.ID)
	assert.Equal(t, models.KindGuardian, relinked.Kind)
	require.NoError(t, env.relationships.Deactivate(ctx, as("login-g"), guardian.ID, child.ID))

	active, err := env.relationships.IsActiveParentOf(ctx, parent.ID, child.ID)
	require.NoError(t, err)
	assert.True(t, active)
}
