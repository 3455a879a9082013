package workflow

import (
	"context"
	"strings"

	"github.com/dukex/taskflow/pkg/models"
)

var noDeadlinePhrases = []string{
	"no deadline", "no due date", "skip", "none", "nope",
	"don't need one", "no thanks", "skip deadline",
}

// AddSeed is what the opening add command already supplied.
type AddSeed struct {
	Title       string
	Priority    models.Priority
	DueDate     string
	Description string
}

// AddResult is the outcome of one add-task turn.
type AddResult = models.StepResult[models.AddTaskData, models.AddStep]

// InitializeAdd starts an add-task workflow, skipping the steps the seed
// already answers. A seeded due date goes through the same validation as a
// typed one; a rejected date reopens the deadline step with its clarification.
func (e *Engine) InitializeAdd(ctx context.Context, seed AddSeed) AddResult {
	data := models.AddTaskData{
		Title:       strings.TrimSpace(seed.Title),
		Priority:    seed.Priority,
		DueDateRaw:  strings.TrimSpace(seed.DueDate),
		Description: strings.TrimSpace(seed.Description),
	}

	if data.DueDateRaw != "" {
		dueDate, clarification, rejected := e.ValidateDeadline(ctx, data.DueDateRaw)
		if rejected {
			data.DueDateRaw = ""
			data.DateError = clarification
		} else {
			data.DueDate = dueDate
		}
	}

	var step models.AddStep

	switch {
	case data.Priority != "" && data.DueDate != nil && data.Description != "":
		step = models.AddStepCreate
	case data.Priority != "" && data.DueDate != nil:
		step = models.AddStepDescription
	case data.Priority != "":
		step = models.AddStepDeadline
	default:
		step = models.AddStepConfirm
	}

	data.Step = step

	e.logger.InfoContext(ctx, "Initialized add-task workflow", "step", step, "date_rejected", data.DateError != "")

	return AddResult{Data: data, Step: step, Outcome: outcomeFor(step)}
}

// CollectAdd applies one message to the add-task workflow:
// confirm, priority, deadline, description, create.
func (e *Engine) CollectAdd(ctx context.Context, message string, data models.AddTaskData) AddResult {
	classification, outcome, stop := e.interpret(models.OperationAddingTask, string(data.Step), message)
	if stop {
		return AddResult{Data: data, Step: data.Step, Outcome: outcome, Classification: classification}
	}

	next := data
	next.DateError = ""

	switch data.Step {
	case models.AddStepConfirm:
		next.Step = e.collectAddConfirm(message, classification, &next)
	case models.AddStepPriority:
		priority := classification.Priority()
		if priority == "" {
			priority = ExtractPriority(message)
		}

		if priority != "" {
			next.Priority = priority
			next.Step = models.AddStepDeadline
		}
	case models.AddStepDeadline:
		next.Step = e.collectAddDeadline(ctx, message, classification, &next)
	case models.AddStepDescription:
		if confirmed, ok := classification.Confirmation(); !ok || confirmed {
			next.Description = trimmed(message)
		}

		next.Step = models.AddStepCreate
	case models.AddStepCreate:
	default:
		e.logger.WarnContext(ctx, "Unknown add-task step", "step", data.Step)
	}

	next.Step = transition(e.logger, models.OperationAddingTask, data.Step, next.Step)

	e.logger.DebugContext(ctx, "Add-task step collected", "from", data.Step, "to", next.Step)

	return AddResult{Data: next, Step: next.Step, Outcome: outcomeFor(next.Step), Classification: classification}
}

// collectAddConfirm waits for a yes or a priority. A workflow opened without a
// title takes the message as the title first.
func (e *Engine) collectAddConfirm(message string, classification models.ClassificationResult, next *models.AddTaskData) models.AddStep {
	if next.Title == "" {
		title := classification.Title()
		if title == "" {
			title = trimmed(message)
		}

		next.Title = title

		return models.AddStepConfirm
	}

	priority := classification.Priority()
	confirmed, _ := classification.Confirmation()

	switch {
	case priority != "":
		next.Priority = priority

		return models.AddStepDeadline
	case confirmed:
		return models.AddStepPriority
	default:
		return models.AddStepConfirm
	}
}

// collectAddDeadline records the deadline, an explicit refusal, or the
// clarification to show when the date is rejected.
func (e *Engine) collectAddDeadline(
	ctx context.Context,
	message string,
	classification models.ClassificationResult,
	next *models.AddTaskData,
) models.AddStep {
	confirmed, answered := classification.Confirmation()
	if (answered && !confirmed) || wantsNoDeadline(message) {
		next.DueDateRaw = ""
		next.DueDate = nil
		next.NoDeadline = true

		return models.AddStepDescription
	}

	resolved, clarification, _ := e.ValidateDeadline(ctx, message)
	if resolved == nil {
		next.DateError = clarification

		return models.AddStepDeadline
	}

	next.DueDateRaw = trimmed(message)
	next.DueDate = resolved
	next.NoDeadline = false

	return models.AddStepDescription
}

func wantsNoDeadline(message string) bool {
	lower := strings.ToLower(trimmed(message))

	for _, phrase := range noDeadlinePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}
