package workflow

import (
	"context"

	"github.com/dukex/taskflow/pkg/models"
)

// UpdateResult is the outcome of one update-task turn.
type UpdateResult = models.StepResult[models.UpdateTaskData, models.UpdateStep]

// InitializeUpdate starts an update-task workflow. A known task id skips
// identification, and when changes were already named it goes straight to
// confirmation.
func (e *Engine) InitializeUpdate(target models.TaskReference, changes models.TaskChanges) UpdateResult {
	step := models.UpdateStepIdentify

	if target.TaskID != nil {
		step = models.UpdateStepShowDetails
		if readyToConfirm(changes) {
			step = models.UpdateStepConfirm
		}
	}

	e.logger.Info("Initialized update-task workflow", "step", step, "has_task_id", target.TaskID != nil)

	data := models.UpdateTaskData{Step: step, Target: target, Changes: changes}

	return UpdateResult{Data: data, Step: step, Outcome: outcomeFor(step)}
}

// CollectUpdate applies one message to the update-task workflow:
// identify, show_details, collect_changes, confirm, execute.
func (e *Engine) CollectUpdate(ctx context.Context, message string, data models.UpdateTaskData) UpdateResult {
	classification, outcome, stop := e.interpret(models.OperationUpdatingTask, string(data.Step), message)
	if stop {
		return UpdateResult{Data: data, Step: data.Step, Outcome: outcome, Classification: classification}
	}

	next := data

	switch data.Step {
	case models.UpdateStepIdentify:
		if ref := e.identify(message, classification); !ref.IsEmpty() {
			next.Target = ref
			next.Step = models.UpdateStepShowDetails
		}
	case models.UpdateStepShowDetails, models.UpdateStepCollectChanges:
		next.Changes = withoutFailedDueDate(next.Changes)
		next.Step = models.UpdateStepCollectChanges

		changes := e.ExtractFieldChanges(ctx, message, classification)
		if !changes.IsEmpty() {
			next.Changes = next.Changes.Merge(changes)

			// A rejected due date is asked for again before confirming.
			if next.Changes.DueDateError == "" {
				next.Step = models.UpdateStepConfirm
			}
		}
	case models.UpdateStepConfirm:
		confirmed, answered := classification.Confirmation()
		if answered && !confirmed {
			return UpdateResult{Data: data, Step: data.Step, Outcome: models.OutcomeCancel, Classification: classification}
		}

		if confirmed {
			next.Step = models.UpdateStepExecute
		}
	case models.UpdateStepExecute:
	default:
		e.logger.WarnContext(ctx, "Unknown update-task step", "step", data.Step)
	}

	next.Step = transition(e.logger, models.OperationUpdatingTask, data.Step, next.Step)

	e.logger.DebugContext(ctx, "Update-task step collected", "from", data.Step, "to", next.Step)

	return UpdateResult{Data: next, Step: next.Step, Outcome: outcomeFor(next.Step), Classification: classification}
}

// BindUpdateTarget records the resolved task and moves past identification.
func BindUpdateTarget(data models.UpdateTaskData, taskID, score int) models.UpdateTaskData {
	data.Target.TaskID = &taskID
	data.MatchScore = score

	if data.Step == models.UpdateStepIdentify {
		data.Step = models.UpdateStepShowDetails
	}

	if data.Step == models.UpdateStepShowDetails && readyToConfirm(data.Changes) {
		data.Step = models.UpdateStepConfirm
	}

	return data
}

// identify takes the task reference from the classification, falling back
// to the reference patterns.
func (e *Engine) identify(message string, classification models.ClassificationResult) models.TaskReference {
	if ref := classification.Reference(); !ref.IsEmpty() {
		return ref
	}

	return ExtractTaskReference(message)
}

func withoutFailedDueDate(changes models.TaskChanges) models.TaskChanges {
	if changes.DueDateError != "" {
		changes.DueDateRaw = ""
		changes.DueDate = nil
		changes.DueDateError = ""
	}

	return changes
}

func readyToConfirm(changes models.TaskChanges) bool {
	return !changes.IsEmpty() && changes.DueDateError == ""
}
