package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/testutil"
)

func sampleTask() models.Task {
	return testutil.CreateTestTask(testutil.WithID(5), testutil.WithUserID("user-1"), testutil.WithTitle("Buy milk"))
}

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "March 12, 2026", FormatDue(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "March 12, 2026 at 5:30 PM", FormatDue(time.Date(2026, 3, 12, 17, 30, 0, 0, time.UTC)))
}

func TestAddPrompt(t *testing.T) {
	assert.Equal(t, "What should the task be called?", AddPrompt(models.AddTaskData{Step: models.AddStepConfirm}))
	assert.Contains(t, AddPrompt(models.AddTaskData{Step: models.AddStepConfirm, Title: "Buy milk"}), "I'll add 'Buy milk'")
	assert.Contains(t, AddPrompt(models.AddTaskData{Step: models.AddStepPriority, Title: "Buy milk"}), "What priority")
	assert.Contains(t, AddPrompt(models.AddTaskData{Step: models.AddStepDeadline}), "no deadline")
	assert.Equal(t, "bad date", AddPrompt(models.AddTaskData{Step: models.AddStepDeadline, DateError: "bad date"}))
	assert.Contains(t, AddPrompt(models.AddTaskData{Step: models.AddStepDescription}), "description")
}

func TestFormatUpdateConfirmation(t *testing.T) {
	due := time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC)
	title := "Buy oat milk"

	text := FormatUpdateConfirmation(sampleTask(), models.TaskChanges{
		Title:    &title,
		Priority: models.PriorityHigh,
		DueDate:  &due,
	})

	assert.True(t, strings.HasPrefix(text, "📝 Update task #5: 'Buy milk'?"))
	assert.Contains(t, text, "• Title: Buy milk → Buy oat milk")
	assert.Contains(t, text, "• Priority: medium → high")
	assert.Contains(t, text, "• Due Date: not set → March 12, 2026 at 5:00 PM")
	assert.True(t, strings.HasSuffix(text, "Reply 'yes' to confirm or 'no' to cancel."))

	text = FormatUpdateConfirmation(sampleTask(), models.TaskChanges{DueDateError: "That date is in the past."})
	assert.Contains(t, text, "⚠️ That date is in the past.")
}

func TestFormatDeleteConfirmation(t *testing.T) {
	text := FormatDeleteConfirmation(sampleTask(), 85)

	assert.Contains(t, text, "🗑️ Delete task #5: 'Buy milk'?")
	assert.Contains(t, text, "(85% match)")
	assert.Contains(t, text, "• Priority: 🟡 medium")
	assert.Contains(t, text, "⚠️ This action cannot be undone.")

	assert.NotContains(t, FormatDeleteConfirmation(sampleTask(), 100), "match")
}

func TestFormatCompleteConfirmation(t *testing.T) {
	text := FormatCompleteConfirmation(sampleTask(), true, 0)
	assert.Contains(t, text, "✅ Mark task #5: 'Buy milk' as complete?")
	assert.Contains(t, text, "Current status: ⏳ Pending")

	task := sampleTask()
	task.Completed = true
	text = FormatCompleteConfirmation(task, false, 72)
	assert.Contains(t, text, "⏳ Mark task #5: 'Buy milk' as incomplete?")
	assert.Contains(t, text, "(72% match)")
	assert.Contains(t, text, "Current status: ✅ Complete")
}

func TestFormatTaskDetails_TruncatesDescription(t *testing.T) {
	task := sampleTask()
	task.Description = strings.Repeat("a", 60)

	text := FormatTaskDetails(task)

	assert.Contains(t, text, "• Description: "+strings.Repeat("a", 50)+"...")
	assert.Contains(t, text, "What would you like to change?")
}

func TestFormatTaskList(t *testing.T) {
	assert.Equal(t, "You have no pending tasks.", FormatTaskList(nil, models.StatusPending))
	assert.Equal(t, "You have no tasks.", FormatTaskList(nil, ""))

	due := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	done := models.Task{ID: 2, Title: "Walk the dog", Priority: models.PriorityLow, Completed: true}
	pending := sampleTask()
	pending.DueDate = &due

	text := FormatTaskList([]models.Task{pending, done}, models.StatusAll)

	assert.Equal(t, "Your tasks:\n⏳ #5 🟡 Buy milk (due March 12, 2026)\n✅ #2 🟢 Walk the dog", text)
	assert.True(t, strings.HasPrefix(FormatTaskList([]models.Task{done}, models.StatusCompleted), "Your completed tasks:"))
}

func TestFormatDisambiguation(t *testing.T) {
	text := FormatDisambiguation("milk", []models.MatchCandidate{
		{ID: 1, DisplayTitle: "Buy milk", Score: 90},
		{ID: 4, DisplayTitle: "Milk the goat", Score: 75},
	})

	assert.Contains(t, text, "I found several tasks matching 'milk':")
	assert.Contains(t, text, "• #1 Buy milk (90% match)")
	assert.Contains(t, text, "• #4 Milk the goat (75% match)")
}

func TestFormatIdentifyPrompt(t *testing.T) {
	assert.Contains(t, FormatIdentifyPrompt(models.OperationDeletingTask), "Which task would you like to delete?")
	assert.Contains(t, FormatIdentifyPrompt(models.OperationCompletingTask), "mark")
}

func TestPriorityEmoji(t *testing.T) {
	assert.Equal(t, "🔴", PriorityEmoji(models.PriorityHigh))
	assert.Equal(t, "⚪", PriorityEmoji(""))
}
