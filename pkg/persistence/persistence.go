// Package persistence defines the conversation and task stores behind the turn service.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/taskflow/pkg/models"
)

// ConversationRepository keeps one workflow state per (conversation, user).
type ConversationRepository interface {
	// Load returns the stored state, or a fresh NEUTRAL state when none exists.
	Load(ctx context.Context, conversationID, userID string) (models.ConversationState, error)
	Save(ctx context.Context, state models.ConversationState) error
	// Reset puts the conversation back in NEUTRAL. It fails with
	// ErrConversationNotFound when nothing was stored.
	Reset(ctx context.Context, conversationID, userID string) error
	// ListStale returns conversations with an active workflow last touched before the given time.
	ListStale(ctx context.Context, before time.Time) ([]models.ConversationState, error)
}

// TaskRepository is the task store the workflows act on. Every lookup is
// scoped to the owning user.
type TaskRepository interface {
	ListByUser(ctx context.Context, userID string, filter models.StatusFilter) ([]models.Task, error)
	GetByID(ctx context.Context, userID string, id int) (models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
	Update(ctx context.Context, task models.Task) (models.Task, error)
	Delete(ctx context.Context, userID string, id int) error
	SetCompleted(ctx context.Context, userID string, id int, completed bool) (models.Task, error)
}

type Persistence interface {
	Conversations() ConversationRepository
	Tasks() TaskRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// MatchesFilter reports whether task belongs in a listing for filter. An empty
// filter lists everything.
func MatchesFilter(task models.Task, filter models.StatusFilter) bool {
	switch filter {
	case models.StatusPending:
		return !task.Completed
	case models.StatusCompleted:
		return task.Completed
	default:
		return true
	}
}
