package workflow

import (
	"context"

	"github.com/dukex/taskflow/pkg/models"
)

// DeleteResult is the outcome of one delete-task turn.
type DeleteResult = models.StepResult[models.DeleteTaskData, models.DeleteStep]

// InitializeDelete starts a delete-task workflow.
func (e *Engine) InitializeDelete(target models.TaskReference) DeleteResult {
	step := models.DeleteStepIdentify
	if target.TaskID != nil {
		step = models.DeleteStepShowDetails
	}

	e.logger.Info("Initialized delete-task workflow", "step", step, "has_task_id", target.TaskID != nil)

	return DeleteResult{Data: models.DeleteTaskData{Step: step, Target: target}, Step: step, Outcome: outcomeFor(step)}
}

// CollectDelete applies one message to the delete-task workflow:
// identify, show_details, confirm, execute. A "no" at either confirmation
// cancels.
func (e *Engine) CollectDelete(ctx context.Context, message string, data models.DeleteTaskData) DeleteResult {
	classification, outcome, stop := e.interpret(models.OperationDeletingTask, string(data.Step), message)
	if stop {
		return DeleteResult{Data: data, Step: data.Step, Outcome: outcome, Classification: classification}
	}

	next := data

	switch data.Step {
	case models.DeleteStepIdentify:
		if ref := e.identify(message, classification); !ref.IsEmpty() {
			next.Target = ref
			next.Step = models.DeleteStepShowDetails
		}
	case models.DeleteStepShowDetails, models.DeleteStepConfirm:
		confirmed, answered := classification.Confirmation()

		switch {
		case answered && !confirmed:
			return DeleteResult{Data: data, Step: data.Step, Outcome: models.OutcomeCancel, Classification: classification}
		case confirmed:
			next.Step = models.DeleteStepExecute
		default:
			next.Step = models.DeleteStepConfirm
		}
	case models.DeleteStepExecute:
	default:
		e.logger.WarnContext(ctx, "Unknown delete-task step", "step", data.Step)
	}

	next.Step = transition(e.logger, models.OperationDeletingTask, data.Step, next.Step)

	e.logger.DebugContext(ctx, "Delete-task step collected", "from", data.Step, "to", next.Step)

	return DeleteResult{Data: next, Step: next.Step, Outcome: outcomeFor(next.Step), Classification: classification}
}

// BindDeleteTarget records the resolved task and moves on to showing it.
func BindDeleteTarget(data models.DeleteTaskData, taskID, score int) models.DeleteTaskData {
	data.Target.TaskID = &taskID
	data.MatchScore = score

	if data.Step == models.DeleteStepIdentify {
		data.Step = models.DeleteStepShowDetails
	}

	return data
}
