package janitor_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukex/taskflow/pkg/events"
	"github.com/dukex/taskflow/pkg/janitor"
	"github.com/dukex/taskflow/pkg/mocks"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/persistence/file"
	"github.com/dukex/taskflow/pkg/testutil"
)

var now = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func addingState(conversationID string, updatedAt time.Time) models.ConversationState {
	return testutil.CreateAddingState(conversationID, "user-1", "call mom", updatedAt)
}

func TestNew_Validation(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	_, err := janitor.New(nil, store.Conversations(), nil, janitor.Config{Schedule: "not a schedule"})
	require.ErrorContains(t, err, "invalid sweep schedule")

	_, err = janitor.New(nil, store.Conversations(), nil, janitor.Config{StaleAfter: -time.Minute})
	require.ErrorIs(t, err, janitor.ErrInvalidStaleAfter)

	j, err := janitor.New(nil, store.Conversations(), nil, janitor.Config{})
	require.NoError(t, err)
	assert.NotNil(t, j)
}

func TestSweep_ResetsOnlyStaleWorkflows(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	ctx := t.Context()

	require.NoError(t, store.Conversations().Save(ctx, addingState("old", now.Add(-48*time.Hour))))
	require.NoError(t, store.Conversations().Save(ctx, addingState("fresh", now.Add(-time.Hour))))
	require.NoError(t, store.Conversations().Save(ctx, models.NewConversationState("idle", "user-1", now.Add(-72*time.Hour))))

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "user-1/old", mock.Anything).Return(nil)

	j, err := janitor.New(nil, store.Conversations(), bus, janitor.Config{StaleAfter: 24 * time.Hour})
	require.NoError(t, err)
	j.SetClock(func() time.Time { return now })

	reset, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reset)

	old, err := store.Conversations().Load(ctx, "old", "user-1")
	require.NoError(t, err)
	assert.True(t, old.IsNeutral())

	fresh, err := store.Conversations().Load(ctx, "fresh", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.OperationAddingTask, fresh.ActiveOperation)

	bus.AssertNumberOfCalls(t, "Publish", 1)

	expired := bus.Calls[0].Arguments.Get(2).(events.OperationExpired)
	assert.Equal(t, models.OperationAddingTask, expired.Operation)
	assert.Equal(t, "priority", expired.Step)
	assert.Equal(t, 48*time.Hour, expired.IdleFor)
}

func TestSweep_SkipsVanishedAndReportsFailures(t *testing.T) {
	conversations := &mocks.MockConversationRepository{}

	stale := []models.ConversationState{
		addingState("gone", now.Add(-30*time.Hour)),
		addingState("broken", now.Add(-30*time.Hour)),
		addingState("ok", now.Add(-30*time.Hour)),
	}

	conversations.On("ListStale", mock.Anything, now.Add(-24*time.Hour)).Return(stale, nil)
	conversations.On("Reset", mock.Anything, "gone", "user-1").
		Return(persistence.NewConversationError("Reset", "gone", "user-1", persistence.ErrConversationNotFound))
	conversations.On("Reset", mock.Anything, "broken", "user-1").Return(errors.New("disk full"))
	conversations.On("Reset", mock.Anything, "ok", "user-1").Return(nil)

	j, err := janitor.New(nil, conversations, nil, janitor.Config{})
	require.NoError(t, err)
	j.SetClock(func() time.Time { return now })

	reset, err := j.Sweep(t.Context())
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, reset)
	conversations.AssertExpectations(t)
}

func TestStartStop(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	j, err := janitor.New(nil, store.Conversations(), nil, janitor.Config{Schedule: "@every 1h"})
	require.NoError(t, err)

	require.NoError(t, j.Start(t.Context()))
	require.NoError(t, j.Start(t.Context()))
	require.NoError(t, j.Stop(t.Context()))
	require.NoError(t, j.Stop(t.Context()))
}
