package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/models"
)

const (
	confirmFooter     = "Reply 'yes' to confirm or 'no' to cancel."
	descriptionCutoff = 50
	notSet            = "not set"
)

var priorityEmoji = map[models.Priority]string{
	models.PriorityHigh:   "🔴",
	models.PriorityMedium: "🟡",
	models.PriorityLow:    "🟢",
}

// PriorityEmoji returns the marker shown next to a priority.
func PriorityEmoji(priority models.Priority) string {
	if emoji, ok := priorityEmoji[priority]; ok {
		return emoji
	}

	return "⚪"
}

func statusOf(completed bool) (string, string) {
	if completed {
		return "✅", "Complete"
	}

	return "⏳", "Pending"
}

// FormatDue renders a deadline as "March 12, 2026", with the clock time when
// it is not midnight.
func FormatDue(due time.Time) string {
	if due.Hour() == 0 && due.Minute() == 0 {
		return due.Format("January 02, 2006")
	}

	return due.Format("January 02, 2006 at 3:04 PM")
}

func matchLine(score int) string {
	if score > 0 && score < 100 {
		return fmt.Sprintf("   (%d%% match)", score)
	}

	return ""
}

// AddPrompt is the question asked at the add-task step data is waiting on.
func AddPrompt(data models.AddTaskData) string {
	switch data.Step {
	case models.AddStepConfirm:
		if data.Title == "" {
			return "What should the task be called?"
		}

		return fmt.Sprintf("I'll add '%s'. Shall I go ahead? You can also tell me the priority (high, medium, or low).", data.Title)
	case models.AddStepPriority:
		return fmt.Sprintf("What priority should '%s' have? (high, medium, or low)", data.Title)
	case models.AddStepDeadline:
		if data.DateError != "" {
			return data.DateError
		}

		return "When is it due? (e.g., 'tomorrow at 5pm', 'next Friday', or 'no deadline')"
	case models.AddStepDescription:
		return "Would you like to add a description? (or say 'no')"
	default:
		return fmt.Sprintf("Creating '%s'...", data.Title)
	}
}

// FormatTaskDetails shows a task and asks what to change.
func FormatTaskDetails(task models.Task) string {
	lines := []string{fmt.Sprintf("📋 Task #%d: '%s'", task.ID, task.Title)}
	lines = append(lines, detailLines(task)...)
	lines = append(lines, "", "What would you like to change? (title, description, priority, due date, or status)")

	return strings.Join(lines, "\n")
}

func detailLines(task models.Task) []string {
	statusEmoji, statusText := statusOf(task.Completed)

	lines := []string{
		"",
		fmt.Sprintf("• Priority: %s %s", PriorityEmoji(task.Priority), task.Priority),
		fmt.Sprintf("• Status: %s %s", statusEmoji, statusText),
	}

	if task.DueDate != nil {
		lines = append(lines, "• Due: "+FormatDue(*task.DueDate))
	}

	if task.Description != "" {
		description := []rune(task.Description)
		if len(description) > descriptionCutoff {
			lines = append(lines, "• Description: "+string(description[:descriptionCutoff])+"...")
		} else {
			lines = append(lines, "• Description: "+task.Description)
		}
	}

	return lines
}

// FormatUpdateConfirmation lists each requested change as old -> new.
func FormatUpdateConfirmation(task models.Task, changes models.TaskChanges) string {
	lines := []string{fmt.Sprintf("📝 Update task #%d: '%s'?", task.ID, task.Title), ""}

	if changes.Title != nil {
		lines = append(lines, changeLine("Title", task.Title, *changes.Title))
	}

	if changes.Description != nil {
		lines = append(lines, changeLine("Description", task.Description, *changes.Description))
	}

	if changes.Priority != "" {
		lines = append(lines, changeLine("Priority", string(task.Priority), string(changes.Priority)))
	}

	if changes.DueDate != nil {
		old := ""
		if task.DueDate != nil {
			old = FormatDue(*task.DueDate)
		}

		lines = append(lines, changeLine("Due Date", old, FormatDue(*changes.DueDate)))
	}

	if changes.Completed != nil {
		_, old := statusOf(task.Completed)
		_, next := statusOf(*changes.Completed)
		lines = append(lines, changeLine("Status", old, next))
	}

	if changes.DueDateError != "" {
		lines = append(lines, "⚠️ "+changes.DueDateError)
	}

	lines = append(lines, "", confirmFooter)

	return strings.Join(lines, "\n")
}

func changeLine(field, old, next string) string {
	if old == "" {
		old = notSet
	}

	return fmt.Sprintf("• %s: %s → %s", field, old, next)
}

// FormatDeleteConfirmation shows the task about to be deleted. score is the
// fuzzy match score when the task was found by name, or 0.
func FormatDeleteConfirmation(task models.Task, score int) string {
	lines := []string{fmt.Sprintf("🗑️ Delete task #%d: '%s'?", task.ID, task.Title)}

	if line := matchLine(score); line != "" {
		lines = append(lines, line)
	}

	lines = append(lines, detailLines(task)...)
	lines = append(lines, "", "⚠️ This action cannot be undone.", confirmFooter)

	return strings.Join(lines, "\n")
}

// FormatCompleteConfirmation asks to mark the task complete or, when toggleTo
// is false, incomplete.
func FormatCompleteConfirmation(task models.Task, toggleTo bool, score int) string {
	action, emoji := "complete", "✅"
	if !toggleTo {
		action, emoji = "incomplete", "⏳"
	}

	lines := []string{fmt.Sprintf("%s Mark task #%d: '%s' as %s?", emoji, task.ID, task.Title, action)}

	if line := matchLine(score); line != "" {
		lines = append(lines, line)
	}

	currentEmoji, currentText := statusOf(task.Completed)
	lines = append(lines, "", fmt.Sprintf("Current status: %s %s", currentEmoji, currentText), "", confirmFooter)

	return strings.Join(lines, "\n")
}

// FormatCompletionSuccess reports the new completion state.
func FormatCompletionSuccess(task models.Task, completed bool) string {
	if completed {
		return fmt.Sprintf("✅ Task #%d: '%s' marked as complete!", task.ID, task.Title)
	}

	return fmt.Sprintf("⏳ Task #%d: '%s' marked as incomplete.", task.ID, task.Title)
}

// FormatTaskCreated reports a newly created task.
func FormatTaskCreated(task models.Task) string {
	line := fmt.Sprintf("✨ Created task #%d: '%s' (%s %s priority)", task.ID, task.Title, PriorityEmoji(task.Priority), task.Priority)
	if task.DueDate != nil {
		line += ", due " + FormatDue(*task.DueDate)
	}

	return line
}

// FormatTaskUpdated reports an applied update.
func FormatTaskUpdated(task models.Task) string {
	return fmt.Sprintf("📝 Task #%d: '%s' updated.", task.ID, task.Title)
}

// FormatTaskDeleted reports a deletion.
func FormatTaskDeleted(task models.Task) string {
	return fmt.Sprintf("🗑️ Task #%d: '%s' deleted.", task.ID, task.Title)
}

// FormatTaskList renders tasks one per line.
func FormatTaskList(tasks []models.Task, filter models.StatusFilter) string {
	if len(tasks) == 0 {
		switch filter {
		case models.StatusPending:
			return "You have no pending tasks."
		case models.StatusCompleted:
			return "You have no completed tasks."
		default:
			return "You have no tasks."
		}
	}

	header := "Your tasks:"
	if filter == models.StatusPending || filter == models.StatusCompleted {
		header = fmt.Sprintf("Your %s tasks:", filter)
	}

	lines := []string{header}

	for _, task := range tasks {
		statusEmoji, _ := statusOf(task.Completed)

		line := fmt.Sprintf("%s #%d %s %s", statusEmoji, task.ID, PriorityEmoji(task.Priority), task.Title)
		if task.DueDate != nil {
			line += " (due " + FormatDue(*task.DueDate) + ")"
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// FormatDisambiguation lists several plausible matches for a name reference.
func FormatDisambiguation(query string, matches []models.MatchCandidate) string {
	lines := []string{fmt.Sprintf("I found several tasks matching '%s':", query)}

	for _, match := range matches {
		lines = append(lines, fmt.Sprintf("• #%d %s (%d%% match)", match.ID, match.DisplayTitle, match.Score))
	}

	lines = append(lines, "", "Which one did you mean? Reply with the task number.")

	return strings.Join(lines, "\n")
}

// FormatIdentifyPrompt asks which task an operation should act on.
func FormatIdentifyPrompt(op models.Operation) string {
	verb := map[models.Operation]string{
		models.OperationUpdatingTask:   "update",
		models.OperationDeletingTask:   "delete",
		models.OperationCompletingTask: "mark",
	}[op]

	return fmt.Sprintf("Which task would you like to %s? You can give its number (e.g., 'task 3') or its name.", verb)
}
