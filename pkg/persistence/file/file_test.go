package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestPersistence(t *testing.T) (*Persistence, string) {
	t.Helper()

	testDir := t.TempDir()
	fp := NewPersistence(testDir).(*Persistence)
	fp.conversationRepo.now = func() time.Time { return fixedNow }
	fp.taskRepo.now = func() time.Time { return fixedNow }

	return fp, testDir
}

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	fp, _ := newTestPersistence(t)
	require.NoError(t, fp.HealthCheck(t.Context()))
	require.NoError(t, fp.Close(t.Context()))

	missing := NewPersistence(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, missing.HealthCheck(t.Context()))
}

func TestConversationRepository_LoadMissingIsNeutral(t *testing.T) {
	fp, _ := newTestPersistence(t)

	state, err := fp.Conversations().Load(t.Context(), "conv-1", "user-1")
	require.NoError(t, err)

	assert.True(t, state.IsNeutral())
	assert.Equal(t, "conv-1", state.ConversationID)
	assert.Equal(t, "user-1", state.UserID)
	assert.Equal(t, fixedNow, state.UpdatedAt)
}

func TestConversationRepository_SaveAndLoad(t *testing.T) {
	fp, testDir := newTestPersistence(t)
	repo := fp.Conversations()

	taskID := 4
	state := models.NewConversationState("conv-1", "user-1", fixedNow).
		WithUpdate(models.UpdateTaskData{
			Step:    models.UpdateStepConfirm,
			Target:  models.TaskReference{TaskID: &taskID},
			Changes: models.TaskChanges{Priority: models.PriorityHigh},
		}, fixedNow)
	require.NoError(t, state.SetTarget(taskID))

	require.NoError(t, repo.Save(t.Context(), state))
	assert.FileExists(t, filepath.Join(testDir, "conversations", "user-1", "conv-1.json"))

	loaded, err := repo.Load(t.Context(), "conv-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.OperationUpdatingTask, loaded.ActiveOperation)
	require.NotNil(t, loaded.Update)
	assert.Equal(t, models.UpdateStepConfirm, loaded.Update.Step)
	assert.Equal(t, models.PriorityHigh, loaded.Update.Changes.Priority)
	assert.Equal(t, &taskID, loaded.TargetTaskID)
	require.NoError(t, loaded.Validate())

	other, err := repo.Load(t.Context(), "conv-1", "user-2")
	require.NoError(t, err)
	assert.True(t, other.IsNeutral())
}

func TestConversationRepository_Reset(t *testing.T) {
	fp, _ := newTestPersistence(t)
	repo := fp.Conversations()

	err := repo.Reset(t.Context(), "conv-1", "user-1")
	require.ErrorIs(t, err, persistence.ErrConversationNotFound)

	state := models.NewConversationState("conv-1", "user-1", fixedNow).
		WithAdd(models.AddTaskData{Step: models.AddStepPriority, Title: "Buy milk"}, fixedNow)
	require.NoError(t, repo.Save(t.Context(), state))

	require.NoError(t, repo.Reset(t.Context(), "conv-1", "user-1"))

	loaded, err := repo.Load(t.Context(), "conv-1", "user-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsNeutral())
	assert.Nil(t, loaded.Add)
}

func TestConversationRepository_RejectsUnsafeIDs(t *testing.T) {
	fp, _ := newTestPersistence(t)

	for _, id := range []string{"", "../etc", "a/b", `a\b`} {
		_, err := fp.Conversations().Load(t.Context(), id, "user-1")
		assert.ErrorIs(t, err, persistence.ErrInvalidIdentifier, id)

		err = fp.Conversations().Save(t.Context(), models.NewConversationState("conv-1", id, fixedNow))
		assert.ErrorIs(t, err, persistence.ErrInvalidIdentifier, id)
	}
}

func TestConversationRepository_ListStale(t *testing.T) {
	fp, _ := newTestPersistence(t)
	repo := fp.Conversations()
	ctx := t.Context()

	old := fixedNow.Add(-48 * time.Hour)
	older := fixedNow.Add(-72 * time.Hour)

	require.NoError(t, repo.Save(ctx, models.NewConversationState("fresh", "user-1", fixedNow).
		WithAdd(models.AddTaskData{Step: models.AddStepConfirm, Title: "a"}, fixedNow)))
	require.NoError(t, repo.Save(ctx, models.NewConversationState("idle", "user-1", old)))
	require.NoError(t, repo.Save(ctx, models.NewConversationState("stale", "user-1", old).
		WithDelete(models.DeleteTaskData{Step: models.DeleteStepIdentify}, old)))
	require.NoError(t, repo.Save(ctx, models.NewConversationState("staler", "user-2", older).
		WithComplete(models.CompleteTaskData{Step: models.CompleteStepIdentify, ToggleTo: true}, older)))

	stale, err := repo.ListStale(ctx, fixedNow.Add(-24*time.Hour))
	require.NoError(t, err)

	require.Len(t, stale, 2)
	assert.Equal(t, "staler", stale[0].ConversationID)
	assert.Equal(t, "stale", stale[1].ConversationID)
}

func TestConversationRepository_ListStaleWithoutData(t *testing.T) {
	fp, _ := newTestPersistence(t)

	stale, err := fp.Conversations().ListStale(t.Context(), fixedNow)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestTaskRepository_CRUD(t *testing.T) {
	fp, testDir := newTestPersistence(t)
	repo := fp.Tasks()
	ctx := t.Context()

	milk, err := repo.Create(ctx, models.Task{UserID: "user-1", Title: "Buy milk", Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, 1, milk.ID)
	assert.Equal(t, fixedNow, milk.CreatedAt)
	assert.FileExists(t, filepath.Join(testDir, "tasks.json"))

	dog, err := repo.Create(ctx, models.Task{UserID: "user-1", Title: "Walk the dog", Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, 2, dog.ID)

	_, err = repo.Create(ctx, models.Task{UserID: "user-2", Title: "Someone else's", Priority: models.PriorityLow})
	require.NoError(t, err)

	tasks, err := repo.ListByUser(ctx, "user-1", models.StatusAll)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy milk", tasks[0].Title)

	milk.Title = "Buy oat milk"
	updated, err := repo.Update(ctx, milk)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Title)

	completed, err := repo.SetCompleted(ctx, "user-1", dog.ID, true)
	require.NoError(t, err)
	assert.True(t, completed.Completed)

	pending, err := repo.ListByUser(ctx, "user-1", models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, milk.ID, pending[0].ID)

	require.NoError(t, repo.Delete(ctx, "user-1", milk.ID))

	_, err = repo.GetByID(ctx, "user-1", milk.ID)
	require.ErrorIs(t, err, persistence.ErrTaskNotFound)

	got, err := repo.GetByID(ctx, "user-1", dog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk the dog", got.Title)
}

func TestTaskRepository_ScopedToUser(t *testing.T) {
	fp, _ := newTestPersistence(t)
	repo := fp.Tasks()
	ctx := t.Context()

	task, err := repo.Create(ctx, models.Task{UserID: "user-1", Title: "Buy milk", Priority: models.PriorityHigh})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, "user-2", task.ID)
	assert.ErrorIs(t, err, persistence.ErrTaskNotFound)

	_, err = repo.SetCompleted(ctx, "user-2", task.ID, true)
	assert.ErrorIs(t, err, persistence.ErrTaskNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "user-2", task.ID), persistence.ErrTaskNotFound)

	tasks, err := repo.ListByUser(ctx, "user-2", "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
