package services

import (
	"context"
	"fmt"

	"github.com/dukex/taskflow/pkg/fuzzy"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/workflow"
)

// resolution is a task reference turned into a task id, or the prompt to show
// when that was not possible.
type resolution struct {
	taskID int
	score  int
	prompt string
}

// resolve looks up the task ref points at. A numeric id must exist for the
// user; a name is matched against all of the user's tasks and only a single
// plausible match is accepted.
func (c *Conversation) resolve(ctx context.Context, state models.ConversationState, ref models.TaskReference) (resolution, bool, error) {
	op := state.ActiveOperation

	switch {
	case ref.TaskID != nil:
		task, err := c.persistence.Tasks().GetByID(ctx, state.UserID, *ref.TaskID)
		if persistence.IsTaskNotFound(err) {
			return resolution{prompt: notFoundPrompt(fmt.Sprintf("task #%d", *ref.TaskID), op)}, false, nil
		}

		if err != nil {
			return resolution{}, false, fmt.Errorf("failed to load task %d: %w", *ref.TaskID, err)
		}

		return resolution{taskID: task.ID}, true, nil
	case ref.TaskName != "":
		return c.resolveName(ctx, state, ref.TaskName)
	default:
		return resolution{prompt: workflow.FormatIdentifyPrompt(op)}, false, nil
	}
}

func (c *Conversation) resolveName(ctx context.Context, state models.ConversationState, name string) (resolution, bool, error) {
	op := state.ActiveOperation

	tasks, err := c.persistence.Tasks().ListByUser(ctx, state.UserID, models.StatusAll)
	if err != nil {
		return resolution{}, false, fmt.Errorf("failed to list tasks: %w", err)
	}

	if exact, ok := fuzzy.FindExactMatch(name, tasks); ok {
		return resolution{taskID: exact.ID, score: exact.Score}, true, nil
	}

	if tasks == nil {
		tasks = []models.Task{}
	}

	result := c.matcher.FindMatches(name, tasks)

	logger := c.logger.With("conversation_id", state.ConversationID, "operation", op)

	switch {
	case !result.Success:
		logger.DebugContext(ctx, "No task matched reference", "reason", result.ErrorReason)

		return resolution{prompt: notFoundPrompt(fmt.Sprintf("a task matching '%s'", name), op)}, false, nil
	case len(result.Matches) == 1:
		best := result.Matches[0]

		logger.DebugContext(ctx, "Resolved task reference", "task_id", best.ID, "score", best.Score)

		return resolution{taskID: best.ID, score: best.Score}, true, nil
	default:
		logger.DebugContext(ctx, "Task reference is ambiguous", "candidates", len(result.Matches))

		return resolution{prompt: workflow.FormatDisambiguation(name, result.Matches)}, false, nil
	}
}

func notFoundPrompt(what string, op models.Operation) string {
	return fmt.Sprintf("I couldn't find %s.\n\n%s", what, workflow.FormatIdentifyPrompt(op))
}
