// Package workflow drives the multi-step add, update, delete and complete
// conversations. Every call takes the accumulated data explicitly and returns
// the new data; the engine performs no I/O of its own.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/models"
)

var (
	// ErrNoActiveWorkflow is returned by Continue for a NEUTRAL conversation.
	ErrNoActiveWorkflow = errors.New("no active workflow")
	// ErrNotAWorkflow is returned by Start for intents that do not open a workflow.
	ErrNotAWorkflow = errors.New("intent does not start a workflow")
)

// Classifier interprets a message against the active operation.
type Classifier interface {
	Classify(message string, phase models.Operation) models.ClassificationResult
}

// DateResolver turns a deadline phrase into a validated instant.
type DateResolver interface {
	ResolveWithFallback(ctx context.Context, text string) models.DateParseResult
}

// Engine is safe for concurrent use; all per-conversation state travels in
// the arguments.
type Engine struct {
	classifier Classifier
	dates      DateResolver
	logger     *slog.Logger
}

// NewEngine creates a workflow engine.
func NewEngine(logger *slog.Logger, classifier Classifier, dates DateResolver) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		classifier: classifier,
		dates:      dates,
		logger:     logger.With("module", "workflow_engine"),
	}
}

// Turn is the engine's answer for one message: the state to persist, the step
// now awaited and what the caller should do next. On cancel and switch_intent
// State is the state the message arrived with.
type Turn struct {
	State          models.ConversationState
	Outcome        models.Outcome
	Step           string
	Classification models.ClassificationResult
}

// Start opens the workflow named by a command classification, seeding it with
// whatever the first message already supplied.
func (e *Engine) Start(
	ctx context.Context,
	state models.ConversationState,
	message string,
	classification models.ClassificationResult,
	now time.Time,
) (Turn, error) {
	base := state.Reset(now)

	switch classification.Intent {
	case models.IntentAddTask:
		result := e.InitializeAdd(ctx, AddSeed{
			Title:    classification.Title(),
			Priority: classification.Priority(),
		})
		result.Classification = classification

		return turnFrom(state, base.WithAdd(result.Data, now), result), nil
	case models.IntentUpdateTask:
		// The opening command names the task, so priority is only taken from
		// whole words here.
		changes := e.fieldChanges(ctx, message, classification.Priority())
		result := e.InitializeUpdate(classification.Reference(), changes)
		result.Classification = classification

		return turnFrom(state, base.WithUpdate(result.Data, now), result), nil
	case models.IntentDeleteTask:
		result := e.InitializeDelete(classification.Reference())
		result.Classification = classification

		return turnFrom(state, base.WithDelete(result.Data, now), result), nil
	case models.IntentCompleteTask:
		reopen := false
		if entities, ok := classification.Entities.(models.CompleteTaskEntities); ok {
			reopen = entities.Reopen
		}

		result := e.InitializeComplete(classification.Reference(), !reopen)
		result.Classification = classification

		return turnFrom(state, base.WithComplete(result.Data, now), result), nil
	default:
		return Turn{}, fmt.Errorf("%w: %s", ErrNotAWorkflow, classification.Intent)
	}
}

// Continue feeds message to the active workflow.
func (e *Engine) Continue(ctx context.Context, state models.ConversationState, message string, now time.Time) (Turn, error) {
	if state.IsNeutral() {
		return Turn{}, ErrNoActiveWorkflow
	}

	if err := state.Validate(); err != nil {
		return Turn{}, err
	}

	switch state.ActiveOperation {
	case models.OperationAddingTask:
		result := e.CollectAdd(ctx, message, *state.Add)

		return turnFrom(state, state.WithAdd(result.Data, now), result), nil
	case models.OperationUpdatingTask:
		result := e.CollectUpdate(ctx, message, *state.Update)

		return turnFrom(state, state.WithUpdate(result.Data, now), result), nil
	case models.OperationDeletingTask:
		result := e.CollectDelete(ctx, message, *state.Delete)

		return turnFrom(state, state.WithDelete(result.Data, now), result), nil
	case models.OperationCompletingTask:
		result := e.CollectComplete(ctx, message, *state.Complete)

		return turnFrom(state, state.WithComplete(result.Data, now), result), nil
	default:
		return Turn{}, fmt.Errorf("%w: %s", models.ErrInconsistentState, state.ActiveOperation)
	}
}

// turnFrom packages a workflow result. Cancel and switch_intent leave the
// state as it was before the message.
func turnFrom[D any, S ~string](before, after models.ConversationState, result models.StepResult[D, S]) Turn {
	turn := Turn{
		State:          after,
		Outcome:        result.Outcome,
		Step:           result.StepName(),
		Classification: result.Classification,
	}

	if turn.Outcome == models.OutcomeCancel || turn.Outcome == models.OutcomeSwitchIntent {
		turn.State = before
	}

	return turn
}

// interpret classifies message for the active operation and reports whether
// the workflow should stop here because the user cancelled or named a
// different command.
func (e *Engine) interpret(op models.Operation, step, message string) (models.ClassificationResult, models.Outcome, bool) {
	classification := e.classifier.Classify(message, op)

	logger := e.logger.With("operation", op, "step", step)

	if classification.Intent == models.IntentCancelOperation {
		logger.Info("Workflow cancelled by user")

		return classification, models.OutcomeCancel, true
	}

	if classification.Intent.IsCommand() && classification.Intent != op.Intent() {
		logger.Info("User switched intent", "intent", classification.Intent)

		return classification, models.OutcomeSwitchIntent, true
	}

	logger.Debug("Collecting workflow information", "intent", classification.Intent)

	return classification, models.OutcomeContinue, false
}

type transitioner[S any] interface {
	~string
	CanTransition(next S) bool
	IsFinal() bool
}

// transition moves from to next when the operation's table allows it and
// otherwise stays put.
func transition[S transitioner[S]](logger *slog.Logger, op models.Operation, from, next S) S {
	if from.CanTransition(next) {
		return next
	}

	err := &models.TransitionError{Operation: op, From: string(from), To: string(next)}
	logger.Error("Rejected workflow transition", "error", err)

	return from
}

func outcomeFor[S transitioner[S]](step S) models.Outcome {
	if step.IsFinal() {
		return models.OutcomeExecute
	}

	return models.OutcomeContinue
}

func trimmed(message string) string {
	return strings.TrimSpace(message)
}
