package workflow

import (
	"context"

	"github.com/dukex/taskflow/pkg/models"
)

// CompleteResult is the outcome of one complete-task turn.
type CompleteResult = models.StepResult[models.CompleteTaskData, models.CompleteStep]

// InitializeComplete starts a complete-task workflow. toggleTo is false when
// the task should be marked incomplete again.
func (e *Engine) InitializeComplete(target models.TaskReference, toggleTo bool) CompleteResult {
	step := models.CompleteStepIdentify
	if target.TaskID != nil {
		step = models.CompleteStepConfirm
	}

	e.logger.Info("Initialized complete-task workflow", "step", step, "toggle_to", toggleTo)

	data := models.CompleteTaskData{Step: step, Target: target, ToggleTo: toggleTo}

	return CompleteResult{Data: data, Step: step, Outcome: outcomeFor(step)}
}

// CollectComplete applies one message to the complete-task workflow:
// identify, confirm, execute.
func (e *Engine) CollectComplete(ctx context.Context, message string, data models.CompleteTaskData) CompleteResult {
	classification, outcome, stop := e.interpret(models.OperationCompletingTask, string(data.Step), message)
	if stop {
		return CompleteResult{Data: data, Step: data.Step, Outcome: outcome, Classification: classification}
	}

	next := data

	switch data.Step {
	case models.CompleteStepIdentify:
		if ref := e.identify(message, classification); !ref.IsEmpty() {
			next.Target = ref
			next.Step = models.CompleteStepConfirm
		}
	case models.CompleteStepConfirm:
		confirmed, answered := classification.Confirmation()
		if answered && !confirmed {
			return CompleteResult{Data: data, Step: data.Step, Outcome: models.OutcomeCancel, Classification: classification}
		}

		if confirmed {
			next.Step = models.CompleteStepExecute
		}
	case models.CompleteStepExecute:
	default:
		e.logger.WarnContext(ctx, "Unknown complete-task step", "step", data.Step)
	}

	next.Step = transition(e.logger, models.OperationCompletingTask, data.Step, next.Step)

	e.logger.DebugContext(ctx, "Complete-task step collected", "from", data.Step, "to", next.Step)

	return CompleteResult{Data: next, Step: next.Step, Outcome: outcomeFor(next.Step), Classification: classification}
}

// BindCompleteTarget records the resolved task and moves on to confirmation.
func BindCompleteTarget(data models.CompleteTaskData, taskID, score int) models.CompleteTaskData {
	data.Target.TaskID = &taskID
	data.MatchScore = score

	if data.Step == models.CompleteStepIdentify {
		data.Step = models.CompleteStepConfirm
	}

	return data
}
