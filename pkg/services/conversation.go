// Package services runs conversation turns: it loads the workflow state, routes
// the message through the workflow engine, resolves task references and carries
// out the finished operation against the task store.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/taskflow/pkg/eventbus"
	"github.com/dukex/taskflow/pkg/events"
	"github.com/dukex/taskflow/pkg/fuzzy"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/otelhelper"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/workflow"
)

const (
	helpText        = "I'm not sure what you'd like to do. You can add, update, delete, complete or list your tasks."
	nothingToCancel = "There's nothing to cancel right now."
	cancelledText   = "Okay, I've cancelled that."
	changesPrompt   = "What would you like to change? (title, description, priority, due date, or status)"
	startOverText   = "Sorry, I lost track of what we were doing. Let's start over."
)

// Reply is the answer to one user message.
type Reply struct {
	ConversationID string                      `json:"conversation_id"`
	Text           string                      `json:"reply"`
	Operation      models.Operation            `json:"operation"`
	Step           string                      `json:"step,omitempty"`
	Outcome        models.Outcome              `json:"outcome,omitempty"`
	Classification models.ClassificationResult `json:"classification"`
	Task           *models.Task                `json:"task,omitempty"`
	Tasks          []models.Task               `json:"tasks,omitempty"`
}

type keyedEvent interface {
	eventbus.Event
	Key() string
}

// pending is a turn that has been decided but not yet saved or announced.
type pending struct {
	state  models.ConversationState
	reply  Reply
	events []keyedEvent
}

// Conversation is the turn service. It is safe for concurrent use as long as a
// single conversation is not fed two messages at once.
type Conversation struct {
	persistence persistence.Persistence
	classifier  workflow.Classifier
	engine      *workflow.Engine
	matcher     fuzzy.Matcher
	publisher   eventbus.EventPublisher
	validate    *validator.Validate
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithPublisher announces lifecycle events on publisher.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(c *Conversation) { c.publisher = publisher }
}

// WithTracer records a span per turn.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Conversation) { c.tracer = tracer }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conversation) { c.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) { c.now = now }
}

// WithMatcher replaces the default fuzzy thresholds.
func WithMatcher(matcher fuzzy.Matcher) Option {
	return func(c *Conversation) { c.matcher = matcher }
}

// NewConversation creates the turn service.
func NewConversation(
	persistence persistence.Persistence,
	classifier workflow.Classifier,
	dates workflow.DateResolver,
	opts ...Option,
) *Conversation {
	c := &Conversation{
		persistence: persistence,
		classifier:  classifier,
		matcher:     fuzzy.NewMatcher(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(c)
	}

	c.tracer = otelhelper.TracerOrNoop(c.tracer)
	c.engine = workflow.NewEngine(c.logger, classifier, dates)
	c.logger = c.logger.With("module", "conversation_service")

	return c
}

// NewConversationID returns an identifier for a new conversation.
func (c *Conversation) NewConversationID() string {
	return uuid.NewString()
}

// HealthCheck checks the health of the persistence layer.
func (c *Conversation) HealthCheck(ctx context.Context) (string, bool) {
	if c.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := c.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// State returns the stored workflow state of a conversation.
func (c *Conversation) State(ctx context.Context, conversationID, userID string) (models.ConversationState, error) {
	if err := checkIdentity(conversationID, userID); err != nil {
		return models.ConversationState{}, err
	}

	return c.persistence.Conversations().Load(ctx, conversationID, userID)
}

// Reset abandons whatever workflow the conversation is in.
func (c *Conversation) Reset(ctx context.Context, conversationID, userID string) error {
	if err := checkIdentity(conversationID, userID); err != nil {
		return err
	}

	return c.persistence.Conversations().Reset(ctx, conversationID, userID)
}

// Match ranks the user's tasks against query.
func (c *Conversation) Match(ctx context.Context, userID, query string) (models.MatchResult, error) {
	if strings.TrimSpace(userID) == "" {
		return models.MatchResult{}, ErrInvalidIdentity
	}

	tasks, err := c.persistence.Tasks().ListByUser(ctx, userID, models.StatusAll)
	if err != nil {
		return models.MatchResult{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	if tasks == nil {
		tasks = []models.Task{}
	}

	return c.matcher.FindMatches(query, tasks), nil
}

// HandleMessage runs one conversation turn and persists the resulting state.
func (c *Conversation) HandleMessage(ctx context.Context, conversationID, userID, message string) (Reply, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "conversation.turn",
		attribute.String(otelhelper.ConversationIDKey, conversationID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	if err := checkIdentity(conversationID, userID); err != nil {
		return Reply{}, err
	}

	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrEmptyMessage
	}

	state, err := c.persistence.Conversations().Load(ctx, conversationID, userID)
	if err != nil {
		otelhelper.SetError(span, err)

		return Reply{}, fmt.Errorf("failed to load conversation: %w", err)
	}

	var turn pending
	if state.IsNeutral() {
		turn, err = c.handleNeutral(ctx, state, message)
	} else {
		turn, err = c.handleActive(ctx, state, message)
	}

	if err != nil {
		otelhelper.SetError(span, err)

		return Reply{}, err
	}

	err = c.persistence.Conversations().Save(ctx, turn.state)
	if err != nil {
		otelhelper.SetError(span, err)

		return Reply{}, fmt.Errorf("failed to save conversation: %w", err)
	}

	c.publish(ctx, turn.events)

	reply := turn.reply
	reply.ConversationID = conversationID
	reply.Operation = turn.state.ActiveOperation
	reply.Step = turn.state.CurrentStep()

	span.SetAttributes(
		attribute.String(otelhelper.OperationKey, string(reply.Operation)),
		attribute.String(otelhelper.StepKey, reply.Step),
		attribute.String(otelhelper.OutcomeKey, string(reply.Outcome)),
		attribute.String(otelhelper.IntentKey, string(reply.Classification.Intent)),
	)

	return reply, nil
}

func (c *Conversation) handleNeutral(ctx context.Context, state models.ConversationState, message string) (pending, error) {
	classification := c.classifier.Classify(message, models.OperationNeutral)

	switch {
	case classification.Intent == models.IntentListTasks:
		return c.listTasks(ctx, state, classification)
	case classification.Intent.IsCommand():
		return c.start(ctx, state, message, classification)
	case classification.Intent == models.IntentCancelOperation:
		return pending{state: state, reply: Reply{Text: nothingToCancel, Classification: classification}}, nil
	default:
		return pending{state: state, reply: Reply{Text: helpText, Classification: classification}}, nil
	}
}

func (c *Conversation) handleActive(ctx context.Context, state models.ConversationState, message string) (pending, error) {
	now := c.now()

	turn, err := c.engine.Continue(ctx, state, message, now)
	if errors.Is(err, models.ErrInconsistentState) {
		c.logger.ErrorContext(ctx, "Discarding inconsistent conversation state",
			"conversation_id", state.ConversationID,
			"error", err)

		return pending{state: state.Reset(now), reply: Reply{Text: startOverText}}, nil
	}

	if err != nil {
		return pending{}, err
	}

	switch turn.Outcome {
	case models.OutcomeCancel:
		cancelled := events.OperationCancelled{
			BaseEvent: events.NewBaseEvent(uuid.NewString(), events.OperationCancelledEvent, state, now),
			Operation: state.ActiveOperation,
			Step:      state.CurrentStep(),
		}

		return pending{
			state:  state.Reset(now),
			reply:  Reply{Text: cancelledText, Outcome: turn.Outcome, Classification: turn.Classification},
			events: []keyedEvent{cancelled},
		}, nil
	case models.OutcomeSwitchIntent:
		return c.switchTo(ctx, state, message, turn.Classification)
	default:
		return c.advance(ctx, pending{
			state: turn.State,
			reply: Reply{Outcome: turn.Outcome, Classification: turn.Classification},
		})
	}
}

// switchTo drops the active workflow and handles message as a fresh command.
func (c *Conversation) switchTo(
	ctx context.Context,
	state models.ConversationState,
	message string,
	classification models.ClassificationResult,
) (pending, error) {
	now := c.now()

	switched := events.OperationSwitched{
		BaseEvent: events.NewBaseEvent(uuid.NewString(), events.OperationSwitchedEvent, state, now),
		From:      state.ActiveOperation,
		To:        classification.Intent.Operation(),
	}

	c.logger.InfoContext(ctx, "Switching workflow",
		"conversation_id", state.ConversationID,
		"from", switched.From,
		"to", classification.Intent)

	var (
		turn pending
		err  error
	)

	if classification.Intent == models.IntentListTasks {
		turn, err = c.listTasks(ctx, state.Reset(now), classification)
	} else {
		turn, err = c.start(ctx, state.Reset(now), message, classification)
	}

	if err != nil {
		return pending{}, err
	}

	turn.reply.Outcome = models.OutcomeSwitchIntent
	turn.events = append([]keyedEvent{switched}, turn.events...)

	return turn, nil
}

func (c *Conversation) start(
	ctx context.Context,
	state models.ConversationState,
	message string,
	classification models.ClassificationResult,
) (pending, error) {
	now := c.now()

	turn, err := c.engine.Start(ctx, state, message, classification, now)
	if err != nil {
		return pending{}, err
	}

	started := events.OperationStarted{
		BaseEvent: events.NewBaseEvent(uuid.NewString(), events.OperationStartedEvent, turn.State, now),
		Operation: turn.State.ActiveOperation,
		Step:      turn.Step,
	}

	return c.advance(ctx, pending{
		state:  turn.State,
		reply:  Reply{Outcome: turn.Outcome, Classification: classification},
		events: []keyedEvent{started},
	})
}

func (c *Conversation) listTasks(
	ctx context.Context,
	state models.ConversationState,
	classification models.ClassificationResult,
) (pending, error) {
	var filter models.StatusFilter
	if entities, ok := classification.Entities.(models.ListTasksEntities); ok {
		filter = entities.Status
	}

	tasks, err := c.persistence.Tasks().ListByUser(ctx, state.UserID, filter)
	if err != nil {
		return pending{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	return pending{
		state: state,
		reply: Reply{
			Text:           workflow.FormatTaskList(tasks, filter),
			Classification: classification,
			Tasks:          tasks,
		},
	}, nil
}

// advance resolves the workflow's task reference, then either prompts for the
// step it waits on or carries out the operation.
func (c *Conversation) advance(ctx context.Context, turn pending) (pending, error) {
	switch turn.state.ActiveOperation {
	case models.OperationAddingTask:
		return c.advanceAdd(ctx, turn)
	case models.OperationUpdatingTask:
		return c.advanceUpdate(ctx, turn)
	case models.OperationDeletingTask:
		return c.advanceDelete(ctx, turn)
	case models.OperationCompletingTask:
		return c.advanceComplete(ctx, turn)
	default:
		return pending{}, fmt.Errorf("%w: %s", models.ErrInconsistentState, turn.state.ActiveOperation)
	}
}

func (c *Conversation) advanceAdd(ctx context.Context, turn pending) (pending, error) {
	data := *turn.state.Add

	if data.Step != models.AddStepCreate {
		turn.reply.Text = workflow.AddPrompt(data)

		return turn, nil
	}

	task := models.Task{
		UserID:      turn.state.UserID,
		Title:       data.Title,
		Description: data.Description,
		Priority:    data.Priority,
		DueDate:     data.DueDate,
	}

	if err := c.validate.Struct(task); err != nil {
		return pending{}, NewValidationError("create_task", "INVALID_TASK", err.Error(), ErrInvalidTask)
	}

	created, err := c.persistence.Tasks().Create(ctx, task)
	if err != nil {
		return pending{}, fmt.Errorf("failed to create task: %w", err)
	}

	return c.executed(turn, created, workflow.FormatTaskCreated(created)), nil
}

func (c *Conversation) advanceUpdate(ctx context.Context, turn pending) (pending, error) {
	data := *turn.state.Update

	if turn.state.TargetTaskID == nil {
		resolved, ok, err := c.resolve(ctx, turn.state, data.Target)
		if err != nil {
			return pending{}, err
		}

		if !ok {
			data.Target, data.Step, data.MatchScore = models.TaskReference{}, models.UpdateStepIdentify, 0
			turn.state = turn.state.WithUpdate(data, c.now())
			turn.reply.Text = resolved.prompt

			return turn, nil
		}

		data = workflow.BindUpdateTarget(data, resolved.taskID, resolved.score)
		turn.state = turn.state.WithUpdate(data, c.now())

		if err := turn.state.SetTarget(resolved.taskID); err != nil {
			return pending{}, err
		}
	}

	task, ok, err := c.target(ctx, &turn)
	if err != nil || !ok {
		return turn, err
	}

	switch data.Step {
	case models.UpdateStepShowDetails:
		turn.reply.Text = workflow.FormatTaskDetails(task)
	case models.UpdateStepCollectChanges:
		turn.reply.Text = changesPrompt
		if data.Changes.DueDateError != "" {
			turn.reply.Text = data.Changes.DueDateError
		}
	case models.UpdateStepConfirm:
		turn.reply.Text = workflow.FormatUpdateConfirmation(task, data.Changes)
	case models.UpdateStepExecute:
		updated := task.Apply(data.Changes)

		if err := c.validate.Struct(updated); err != nil {
			return pending{}, NewValidationError("update_task", "INVALID_TASK", err.Error(), ErrInvalidTask)
		}

		saved, err := c.persistence.Tasks().Update(ctx, updated)
		if err != nil {
			return pending{}, fmt.Errorf("failed to update task: %w", err)
		}

		return c.executed(turn, saved, workflow.FormatTaskUpdated(saved)), nil
	default:
		turn.reply.Text = workflow.FormatIdentifyPrompt(models.OperationUpdatingTask)
	}

	return turn, nil
}

func (c *Conversation) advanceDelete(ctx context.Context, turn pending) (pending, error) {
	data := *turn.state.Delete

	if turn.state.TargetTaskID == nil {
		resolved, ok, err := c.resolve(ctx, turn.state, data.Target)
		if err != nil {
			return pending{}, err
		}

		if !ok {
			data.Target, data.Step, data.MatchScore = models.TaskReference{}, models.DeleteStepIdentify, 0
			turn.state = turn.state.WithDelete(data, c.now())
			turn.reply.Text = resolved.prompt

			return turn, nil
		}

		data = workflow.BindDeleteTarget(data, resolved.taskID, resolved.score)
		turn.state = turn.state.WithDelete(data, c.now())

		if err := turn.state.SetTarget(resolved.taskID); err != nil {
			return pending{}, err
		}
	}

	task, ok, err := c.target(ctx, &turn)
	if err != nil || !ok {
		return turn, err
	}

	switch data.Step {
	case models.DeleteStepShowDetails, models.DeleteStepConfirm:
		turn.reply.Text = workflow.FormatDeleteConfirmation(task, data.MatchScore)
	case models.DeleteStepExecute:
		if err := c.persistence.Tasks().Delete(ctx, task.UserID, task.ID); err != nil {
			return pending{}, fmt.Errorf("failed to delete task: %w", err)
		}

		return c.executed(turn, task, workflow.FormatTaskDeleted(task)), nil
	default:
		turn.reply.Text = workflow.FormatIdentifyPrompt(models.OperationDeletingTask)
	}

	return turn, nil
}

func (c *Conversation) advanceComplete(ctx context.Context, turn pending) (pending, error) {
	data := *turn.state.Complete

	if turn.state.TargetTaskID == nil {
		resolved, ok, err := c.resolve(ctx, turn.state, data.Target)
		if err != nil {
			return pending{}, err
		}

		if !ok {
			data.Target, data.Step, data.MatchScore = models.TaskReference{}, models.CompleteStepIdentify, 0
			turn.state = turn.state.WithComplete(data, c.now())
			turn.reply.Text = resolved.prompt

			return turn, nil
		}

		data = workflow.BindCompleteTarget(data, resolved.taskID, resolved.score)
		turn.state = turn.state.WithComplete(data, c.now())

		if err := turn.state.SetTarget(resolved.taskID); err != nil {
			return pending{}, err
		}
	}

	task, ok, err := c.target(ctx, &turn)
	if err != nil || !ok {
		return turn, err
	}

	switch data.Step {
	case models.CompleteStepConfirm:
		turn.reply.Text = workflow.FormatCompleteConfirmation(task, data.ToggleTo, data.MatchScore)
	case models.CompleteStepExecute:
		saved, err := c.persistence.Tasks().SetCompleted(ctx, task.UserID, task.ID, data.ToggleTo)
		if err != nil {
			return pending{}, fmt.Errorf("failed to update task status: %w", err)
		}

		return c.executed(turn, saved, workflow.FormatCompletionSuccess(saved, data.ToggleTo)), nil
	default:
		turn.reply.Text = workflow.FormatIdentifyPrompt(models.OperationCompletingTask)
	}

	return turn, nil
}

// target loads the task the workflow is bound to. When the workflow is not
// bound yet, or the task has disappeared, turn is rewritten with the prompt to
// show and ok is false.
func (c *Conversation) target(ctx context.Context, turn *pending) (models.Task, bool, error) {
	if turn.state.TargetTaskID == nil {
		turn.reply.Text = workflow.FormatIdentifyPrompt(turn.state.ActiveOperation)

		return models.Task{}, false, nil
	}

	id := *turn.state.TargetTaskID

	task, err := c.persistence.Tasks().GetByID(ctx, turn.state.UserID, id)
	if persistence.IsTaskNotFound(err) {
		c.logger.WarnContext(ctx, "Target task disappeared", "task_id", id, "operation", turn.state.ActiveOperation)

		turn.state = turn.state.Reset(c.now())
		turn.reply.Text = fmt.Sprintf("Task #%d no longer exists.", id)
		turn.reply.Outcome = models.OutcomeCancel

		return models.Task{}, false, nil
	}

	if err != nil {
		return models.Task{}, false, fmt.Errorf("failed to load task %d: %w", id, err)
	}

	return task, true, nil
}

// executed resets the conversation after the operation ran.
func (c *Conversation) executed(turn pending, task models.Task, text string) pending {
	now := c.now()

	c.logger.Info("Workflow executed",
		"conversation_id", turn.state.ConversationID,
		"operation", turn.state.ActiveOperation,
		"task_id", task.ID)

	executed := events.OperationExecuted{
		BaseEvent: events.NewBaseEvent(uuid.NewString(), events.OperationExecutedEvent, turn.state, now),
		Operation: turn.state.ActiveOperation,
		TaskID:    task.ID,
	}

	turn.state = turn.state.Reset(now)
	turn.reply.Text = text
	turn.reply.Outcome = models.OutcomeExecute
	turn.reply.Task = &task
	turn.events = append(turn.events, executed)

	return turn
}

func (c *Conversation) publish(ctx context.Context, queued []keyedEvent) {
	if c.publisher == nil {
		return
	}

	for _, event := range queued {
		err := c.publisher.Publish(ctx, event.Key(), event)
		if err != nil {
			c.logger.WarnContext(ctx, "Failed to publish conversation event",
				"event_type", event.GetType(),
				"error", err)
		}
	}
}

func checkIdentity(conversationID, userID string) error {
	if strings.TrimSpace(conversationID) == "" || strings.TrimSpace(userID) == "" {
		return ErrInvalidIdentity
	}

	return nil
}
