package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/taskflow/pkg/models"
)

func TestClassify_EmptyInput(t *testing.T) {
	classifier := NewClassifier(nil)

	for _, message := range []string{"", "   ", "\t\n"} {
		result := classifier.Classify(message, models.OperationAddingTask)

		assert.Equal(t, models.IntentUnknown, result.Intent)
		assert.Zero(t, result.Confidence)
		assert.Equal(t, models.IntentUnknown, result.Entities.Kind())
	}
}

func TestClassify_NeutralCommands(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name    string
		message string
		intent  models.Intent
	}{
		{"add task", "add task to buy milk", models.IntentAddTask},
		{"add urgent task", "Add urgent task to call mom", models.IntentAddTask},
		{"need to", "I need to call the dentist", models.IntentAddTask},
		{"remind me", "remind me to water plants", models.IntentAddTask},
		{"delete by id", "delete task 5", models.IntentDeleteTask},
		{"delete by name", "remove the milk task", models.IntentDeleteTask},
		{"cancel task is delete", "cancel task 4", models.IntentDeleteTask},
		{"cancel hashed task is delete", "cancel task #4", models.IntentDeleteTask},
		{"complete hashed id", "complete task #5", models.IntentCompleteTask},
		{"update by id", "update task 3", models.IntentUpdateTask},
		{"update by name", "change the milk task to high priority", models.IntentUpdateTask},
		{"mark done", "mark task 5 as done", models.IntentCompleteTask},
		{"finished", "I finished the report", models.IntentCompleteTask},
		{"reopen", "mark task 7 as incomplete", models.IntentCompleteTask},
		{"show tasks", "show my tasks", models.IntentListTasks},
		{"show completed tasks", "show completed tasks", models.IntentListTasks},
		{"what are my tasks", "what are my tasks", models.IntentListTasks},
		{"never mind", "never mind", models.IntentCancelOperation},
		{"bare cancel", "cancel", models.IntentCancelOperation},
		{"forget it", "forget it", models.IntentCancelOperation},
		{"chit chat", "hello there", models.IntentUnknown},
		{"bare yes outside workflow", "yes", models.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.message, models.OperationNeutral)
			assert.Equal(t, tt.intent, result.Intent)
			assert.Equal(t, tt.intent, result.Entities.Kind())
		})
	}
}

func TestClassify_Confidence(t *testing.T) {
	classifier := NewClassifier(nil)

	assert.InDelta(t, 0.9, classifier.Classify("delete task 5", models.OperationNeutral).Confidence, 0.001)
	assert.InDelta(t, 0.95, classifier.Classify("never mind", models.OperationNeutral).Confidence, 0.001)
	assert.InDelta(t, 0.3, classifier.Classify("hello there", models.OperationNeutral).Confidence, 0.001)
	assert.InDelta(t, 0.95, classifier.Classify("yes", models.OperationDeletingTask).Confidence, 0.001)
}

func TestClassify_AddEntities(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("add task to buy milk", models.OperationNeutral)
	entities, ok := result.Entities.(models.AddTaskEntities)
	require.True(t, ok)
	assert.Equal(t, "buy milk", entities.Title)
	assert.Empty(t, entities.Priority)

	result = classifier.Classify("Remind me to Water plants", models.OperationNeutral)
	entities, ok = result.Entities.(models.AddTaskEntities)
	require.True(t, ok)
	assert.Equal(t, "Water plants", entities.Title)

	result = classifier.Classify("add urgent task to call mom", models.OperationNeutral)
	assert.Equal(t, models.PriorityHigh, result.Priority())
	assert.Equal(t, "call mom", result.Title())

	result = classifier.Classify("add task buy milk", models.OperationNeutral)
	assert.Equal(t, "buy milk", result.Title())
}

func TestClassify_BareAddCommandHasNoTitle(t *testing.T) {
	classifier := NewClassifier(nil)

	for _, message := range []string{"add task", "add a task", "create a new task", "new task", "Add Task to", "add high priority task"} {
		result := classifier.Classify(message, models.OperationNeutral)
		require.Equal(t, models.IntentAddTask, result.Intent, message)

		entities, ok := result.Entities.(models.AddTaskEntities)
		require.True(t, ok, message)
		assert.Empty(t, entities.Title, message)
	}
}

func TestClassify_ReferenceEntities(t *testing.T) {
	classifier := NewClassifier(nil)

	ref := classifier.Classify("delete task 5", models.OperationNeutral).Reference()
	require.NotNil(t, ref.TaskID)
	assert.Equal(t, 5, *ref.TaskID)

	ref = classifier.Classify("remove the milk task", models.OperationNeutral).Reference()
	assert.Nil(t, ref.TaskID)
	assert.Equal(t, "milk", ref.TaskName)

	update := classifier.Classify("change the milk task to high priority", models.OperationNeutral)
	assert.Equal(t, "milk", update.Reference().TaskName)
	assert.Equal(t, models.PriorityHigh, update.Priority())

	complete := classifier.Classify("i finished the report task", models.OperationNeutral)
	assert.Equal(t, "the report", complete.Reference().TaskName)

	reopen, ok := classifier.Classify("mark task 7 as incomplete", models.OperationNeutral).Entities.(models.CompleteTaskEntities)
	require.True(t, ok)
	assert.True(t, reopen.Reopen)
	assert.Equal(t, 7, *reopen.TaskID)

	hashed := map[string]models.Intent{
		"delete task #5":       models.IntentDeleteTask,
		"complete task #5":     models.IntentCompleteTask,
		"update task #5":       models.IntentUpdateTask,
		"mark task #5 as done": models.IntentCompleteTask,
		"reopen task #5":       models.IntentCompleteTask,
		"task #5 is finished":  models.IntentCompleteTask,
		"remove the task #5":   models.IntentDeleteTask,
		"delete task#5":        models.IntentDeleteTask,
	}
	for message, intent := range hashed {
		result := classifier.Classify(message, models.OperationNeutral)
		assert.Equal(t, intent, result.Intent, message)
		require.NotNil(t, result.Reference().TaskID, message)
		assert.Equal(t, 5, *result.Reference().TaskID, message)
	}
}

func TestClassify_ListFilters(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := map[string]models.StatusFilter{
		"show my tasks":        "",
		"list pending tasks":   models.StatusPending,
		"show completed tasks": models.StatusCompleted,
		"show all tasks":       models.StatusAll,
	}

	for message, status := range tests {
		entities, ok := classifier.Classify(message, models.OperationNeutral).Entities.(models.ListTasksEntities)
		require.True(t, ok, message)
		assert.Equal(t, status, entities.Status, message)
	}
}

func TestClassify_InformationInPhase(t *testing.T) {
	classifier := NewClassifier(nil)

	yes := classifier.Classify("yes", models.OperationAddingTask)
	assert.Equal(t, models.IntentProvideInformation, yes.Intent)
	confirmed, ok := yes.Confirmation()
	assert.True(t, ok)
	assert.True(t, confirmed)

	no := classifier.Classify("Nope", models.OperationDeletingTask)
	confirmed, ok = no.Confirmation()
	assert.True(t, ok)
	assert.False(t, confirmed)

	priority := classifier.Classify("high priority", models.OperationAddingTask)
	assert.Equal(t, models.IntentProvideInformation, priority.Intent)
	assert.Equal(t, models.PriorityHigh, priority.Priority())
	assert.Equal(t, "high priority", priority.Title())
	assert.InDelta(t, 0.85, priority.Confidence, 0.001)

	makeIt := classifier.Classify("make it urgent", models.OperationAddingTask)
	assert.Equal(t, models.IntentProvideInformation, makeIt.Intent)
	assert.Equal(t, models.PriorityHigh, makeIt.Priority())
	assert.InDelta(t, 0.9, makeIt.Confidence, 0.001)

	title := classifier.Classify("Buy Milk", models.OperationAddingTask)
	assert.Equal(t, models.IntentProvideInformation, title.Intent)
	assert.Equal(t, "buy milk", title.Title())

	low := classifier.Classify("low", models.OperationUpdatingTask)
	assert.Equal(t, models.IntentProvideInformation, low.Intent)
	assert.Equal(t, models.PriorityLow, low.Priority())

	sameOp := classifier.Classify("make it high priority", models.OperationUpdatingTask)
	assert.Equal(t, models.IntentProvideInformation, sameOp.Intent)
	assert.Equal(t, models.PriorityHigh, sameOp.Priority())
}

func TestClassify_CommandsAreNeverSwallowedByPhase(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("delete task 5", models.OperationAddingTask)
	assert.Equal(t, models.IntentDeleteTask, result.Intent)
	require.NotNil(t, result.Reference().TaskID)
	assert.Equal(t, 5, *result.Reference().TaskID)

	result = classifier.Classify("delete the urgent task", models.OperationAddingTask)
	assert.Equal(t, models.IntentDeleteTask, result.Intent)
	assert.Equal(t, "urgent", result.Reference().TaskName)

	assert.Equal(t, models.IntentListTasks, classifier.Classify("show my tasks", models.OperationAddingTask).Intent)
	assert.Equal(t, models.IntentCancelOperation, classifier.Classify("cancel", models.OperationAddingTask).Intent)
	assert.Equal(t, models.IntentUpdateTask, classifier.Classify("update task 2", models.OperationCompletingTask).Intent)
}

func TestNewClassifierWithPatterns_InvalidPattern(t *testing.T) {
	patterns := DefaultPatterns()
	patterns.List = append(patterns.List, Rule{Pattern: `(unclosed`})

	_, err := NewClassifierWithPatterns(nil, patterns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list pattern")
}

func TestNewClassifierWithPatterns_CustomTable(t *testing.T) {
	patterns := DefaultPatterns()
	patterns.Cancel = append(patterns.Cancel, Rule{Pattern: `\bscrap\s+that\b`})

	classifier, err := NewClassifierWithPatterns(nil, patterns)
	require.NoError(t, err)

	assert.Equal(t, models.IntentCancelOperation, classifier.Classify("scrap that", models.OperationAddingTask).Intent)
	assert.Equal(t, models.IntentUnknown, NewClassifier(nil).Classify("scrap that", models.OperationNeutral).Intent)
}
