package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukex/taskflow/pkg/dates"
	"github.com/dukex/taskflow/pkg/eventbus"
	"github.com/dukex/taskflow/pkg/events"
	"github.com/dukex/taskflow/pkg/intent"
	"github.com/dukex/taskflow/pkg/mocks"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/persistence/file"
	"github.com/dukex/taskflow/pkg/services"
	"github.com/dukex/taskflow/pkg/testutil"
)

const (
	conversationID = "conv-1"
	userID         = "user-1"
)

var now = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newService(t *testing.T, opts ...services.Option) (*services.Conversation, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	resolver := dates.NewResolver(dates.WithClock(clock))

	opts = append([]services.Option{services.WithClock(clock)}, opts...)

	return services.NewConversation(store, intent.NewClassifier(nil), resolver, opts...), store
}

func seedTasks(t *testing.T, store persistence.Persistence, titles ...string) []models.Task {
	t.Helper()

	created := make([]models.Task, 0, len(titles))

	for _, title := range titles {
		task, err := store.Tasks().Create(t.Context(),
			testutil.CreateTestTask(testutil.WithUserID(userID), testutil.WithTitle(title)))
		require.NoError(t, err)

		created = append(created, task)
	}

	return created
}

func send(t *testing.T, service *services.Conversation, message string) services.Reply {
	t.Helper()

	reply, err := service.HandleMessage(t.Context(), conversationID, userID, message)
	require.NoError(t, err)

	return reply
}

func recordingBus() *mocks.MockEventBus {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return bus
}

func publishedTypes(bus *mocks.MockEventBus) []events.EventType {
	types := make([]events.EventType, 0, len(bus.Calls))

	for _, call := range bus.Calls {
		if call.Method == "Publish" {
			types = append(types, call.Arguments.Get(2).(eventbus.Event).GetType())
		}
	}

	return types
}

func TestConversation_AddTaskFlow(t *testing.T) {
	service, store := newService(t)

	reply := send(t, service, "remind me to call mom")
	assert.Equal(t, models.OperationAddingTask, reply.Operation)
	assert.Equal(t, "confirm", reply.Step)
	assert.Equal(t, models.OutcomeContinue, reply.Outcome)
	assert.Contains(t, reply.Text, "call mom")

	reply = send(t, service, "high")
	assert.Equal(t, "deadline", reply.Step)

	reply = send(t, service, "no deadline")
	assert.Equal(t, "description", reply.Step)

	reply = send(t, service, "nope")
	assert.Equal(t, models.OutcomeExecute, reply.Outcome)
	assert.Equal(t, models.OperationNeutral, reply.Operation)
	assert.Equal(t, "✨ Created task #1: 'call mom' (🔴 high priority)", reply.Text)
	require.NotNil(t, reply.Task)

	tasks, err := store.Tasks().ListByUser(t.Context(), userID, models.StatusAll)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "call mom", tasks[0].Title)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Nil(t, tasks[0].DueDate)

	state, err := service.State(t.Context(), conversationID, userID)
	require.NoError(t, err)
	assert.True(t, state.IsNeutral())
}

func TestConversation_DeleteByName(t *testing.T) {
	service, store := newService(t)
	seedTasks(t, store, "Buy milk", "Walk the dog")

	reply := send(t, service, "delete the milk task")
	assert.Equal(t, models.OperationDeletingTask, reply.Operation)
	assert.Equal(t, "show_details", reply.Step)
	assert.Contains(t, reply.Text, "Delete task #1: 'Buy milk'?")

	state, err := service.State(t.Context(), conversationID, userID)
	require.NoError(t, err)
	require.NotNil(t, state.TargetTaskID)
	assert.Equal(t, 1, *state.TargetTaskID)

	reply = send(t, service, "yes")
	assert.Equal(t, models.OutcomeExecute, reply.Outcome)
	assert.Equal(t, "🗑️ Task #1: 'Buy milk' deleted.", reply.Text)

	_, err = store.Tasks().GetByID(t.Context(), userID, 1)
	assert.ErrorIs(t, err, persistence.ErrTaskNotFound)
}

func TestConversation_DeleteDisambiguation(t *testing.T) {
	service, store := newService(t)
	seedTasks(t, store, "Buy milk", "Buy oat milk")

	reply := send(t, service, "delete the milk task")
	assert.Equal(t, "identify", reply.Step)
	assert.Contains(t, reply.Text, "I found several tasks matching 'milk'")
	assert.Contains(t, reply.Text, "#2 Buy oat milk")

	reply = send(t, service, "2")
	assert.Equal(t, "show_details", reply.Step)
	assert.Contains(t, reply.Text, "Delete task #2: 'Buy oat milk'?")
}

func TestConversation_ReferenceNotFound(t *testing.T) {
	service, store := newService(t)
	seedTasks(t, store, "Buy milk", "Walk the dog")

	reply := send(t, service, "delete the pizza task")
	assert.Equal(t, models.OperationDeletingTask, reply.Operation)
	assert.Equal(t, "identify", reply.Step)
	assert.Contains(t, reply.Text, "I couldn't find a task matching 'pizza'.")

	reply = send(t, service, "delete task 42")
	assert.Equal(t, "identify", reply.Step)
	assert.Contains(t, reply.Text, "I couldn't find task #42.")
}

func TestConversation_CompleteByID(t *testing.T) {
	service, store := newService(t)
	seedTasks(t, store, "Buy milk")

	reply := send(t, service, "complete task 1")
	assert.Equal(t, models.OperationCompletingTask, reply.Operation)
	assert.Equal(t, "confirm", reply.Step)
	assert.Contains(t, reply.Text, "Mark task #1: 'Buy milk' as complete?")

	reply = send(t, service, "yes")
	assert.Equal(t, "✅ Task #1: 'Buy milk' marked as complete!", reply.Text)

	task, err := store.Tasks().GetByID(t.Context(), userID, 1)
	require.NoError(t, err)
	assert.True(t, task.Completed)
}

func TestConversation_UpdatePriority(t *testing.T) {
	service, store := newService(t)
	seedTasks(t, store, "Buy milk")

	reply := send(t, service, "update task 1 to high priority")
	assert.Equal(t, "confirm", reply.Step)
	assert.Contains(t, reply.Text, "• Priority: medium → high")

	reply = send(t, service, "yes")
	assert.Equal(t, "📝 Task #1: 'Buy milk' updated.", reply.Text)

	task, err := store.Tasks().GetByID(t.Context(), userID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, task.Priority)
}

func TestConversation_TargetDisappears(t *testing.T) {
	service, store := newService(t)
	seedTasks(t, store, "Buy milk")

	send(t, service, "complete task 1")
	require.NoError(t, store.Tasks().Delete(t.Context(), userID, 1))

	reply := send(t, service, "yes")
	assert.Equal(t, "Task #1 no longer exists.", reply.Text)
	assert.Equal(t, models.OperationNeutral, reply.Operation)
}

func TestConversation_CancelPublishesEvents(t *testing.T) {
	bus := recordingBus()
	service, _ := newService(t, services.WithPublisher(bus))

	send(t, service, "remind me to call mom")

	reply := send(t, service, "never mind")
	assert.Equal(t, models.OutcomeCancel, reply.Outcome)
	assert.Equal(t, models.OperationNeutral, reply.Operation)
	assert.Equal(t, "Okay, I've cancelled that.", reply.Text)

	assert.Equal(t, []events.EventType{
		events.OperationStartedEvent,
		events.OperationCancelledEvent,
	}, publishedTypes(bus))
}

func TestConversation_SwitchIntent(t *testing.T) {
	bus := recordingBus()
	service, store := newService(t, services.WithPublisher(bus))
	seedTasks(t, store, "Buy milk")

	send(t, service, "remind me to call mom")

	reply := send(t, service, "delete task 1")
	assert.Equal(t, models.OutcomeSwitchIntent, reply.Outcome)
	assert.Equal(t, models.OperationDeletingTask, reply.Operation)
	assert.Contains(t, reply.Text, "Delete task #1: 'Buy milk'?")

	reply = send(t, service, "show my tasks")
	assert.Equal(t, models.OutcomeSwitchIntent, reply.Outcome)
	assert.Equal(t, models.OperationNeutral, reply.Operation)
	assert.Equal(t, "Your tasks:\n⏳ #1 🟡 Buy milk", reply.Text)

	assert.Equal(t, []events.EventType{
		events.OperationStartedEvent,
		events.OperationSwitchedEvent,
		events.OperationStartedEvent,
		events.OperationSwitchedEvent,
	}, publishedTypes(bus))
}

func TestConversation_NeutralReplies(t *testing.T) {
	service, _ := newService(t)

	reply := send(t, service, "hello there")
	assert.Equal(t, models.IntentUnknown, reply.Classification.Intent)
	assert.Contains(t, reply.Text, "I'm not sure what you'd like to do")

	reply = send(t, service, "cancel")
	assert.Equal(t, "There's nothing to cancel right now.", reply.Text)

	reply = send(t, service, "show my tasks")
	assert.Equal(t, "You have no tasks.", reply.Text)
	assert.Equal(t, models.OperationNeutral, reply.Operation)
}

func TestConversation_RejectsBadInput(t *testing.T) {
	service, _ := newService(t)

	_, err := service.HandleMessage(t.Context(), conversationID, userID, "   ")
	require.ErrorIs(t, err, services.ErrEmptyMessage)

	_, err = service.HandleMessage(t.Context(), conversationID, "", "add a task")
	require.ErrorIs(t, err, services.ErrInvalidIdentity)
	assert.True(t, services.IsValidationError(err))
}

func TestConversation_ResetAndMatch(t *testing.T) {
	service, store := newService(t)
	seedTasks(t, store, "Buy milk", "Walk the dog")

	err := service.Reset(t.Context(), conversationID, userID)
	require.ErrorIs(t, err, services.ErrConversationNotFound)

	send(t, service, "remind me to call mom")
	require.NoError(t, service.Reset(t.Context(), conversationID, userID))

	state, err := service.State(t.Context(), conversationID, userID)
	require.NoError(t, err)
	assert.True(t, state.IsNeutral())

	result, err := service.Match(t.Context(), userID, "milk")
	require.NoError(t, err)
	best, ok := result.Best()
	require.True(t, ok)
	assert.Equal(t, 1, best.ID)

	assert.NotEqual(t, service.NewConversationID(), service.NewConversationID())
}

func TestConversation_PersistenceFailures(t *testing.T) {
	store := mocks.NewMockPersistence()
	service := services.NewConversation(store, intent.NewClassifier(nil), dates.NewResolver(), services.WithClock(clock))

	loadErr := errors.New("disk on fire")
	store.GetMockConversationRepository().
		On("Load", mock.Anything, conversationID, userID).
		Return(models.ConversationState{}, loadErr).Once()

	_, err := service.HandleMessage(t.Context(), conversationID, userID, "hello")
	require.ErrorIs(t, err, loadErr)

	store.GetMockConversationRepository().
		On("Load", mock.Anything, conversationID, userID).
		Return(models.NewConversationState(conversationID, userID, now), nil)
	store.GetMockConversationRepository().
		On("Save", mock.Anything, mock.Anything).
		Return(errors.New("read-only"))

	_, err = service.HandleMessage(t.Context(), conversationID, userID, "hello")
	require.ErrorContains(t, err, "failed to save conversation")

	store.On("HealthCheck", mock.Anything).Return(errors.New("down"))

	message, healthy := service.HealthCheck(context.Background())
	assert.False(t, healthy)
	assert.Contains(t, message, "down")
}

func TestConversation_PublishFailureIsNotFatal(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service, _ := newService(t, services.WithPublisher(bus))

	reply := send(t, service, "remind me to call mom")
	assert.Equal(t, models.OperationAddingTask, reply.Operation)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}
