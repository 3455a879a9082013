// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrConversationNotFound indicates no state is stored for the conversation.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrTaskNotFound indicates a task was not found for the given user and id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidIdentifier indicates an identifier that cannot be used as a storage key.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// ConversationError wraps conversation store errors with additional context.
type ConversationError struct {
	Op             string // Operation being performed (e.g., "Load", "Save", "Reset")
	ConversationID string
	UserID         string
	Err            error
}

func (e *ConversationError) Error() string {
	return fmt.Sprintf("%s operation failed for conversation %s of user %s: %v", e.Op, e.ConversationID, e.UserID, e.Err)
}

func (e *ConversationError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for conversation errors.
func (e *ConversationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewConversationError creates a new conversation error with context.
func NewConversationError(op, conversationID, userID string, err error) *ConversationError {
	return &ConversationError{
		Op:             op,
		ConversationID: conversationID,
		UserID:         userID,
		Err:            err,
	}
}

// TaskError wraps task store errors with additional context.
type TaskError struct {
	Op     string
	UserID string
	TaskID int // 0 when the operation is not about a single task
	Err    error
}

func (e *TaskError) Error() string {
	if e.TaskID == 0 {
		return fmt.Sprintf("%s operation failed for tasks of user %s: %v", e.Op, e.UserID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for task %d of user %s: %v", e.Op, e.TaskID, e.UserID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTaskError creates a new task error with context.
func NewTaskError(op, userID string, taskID int, err error) *TaskError {
	return &TaskError{
		Op:     op,
		UserID: userID,
		TaskID: taskID,
		Err:    err,
	}
}

// IsConversationNotFound checks if an error indicates a conversation was not found.
func IsConversationNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}

// IsTaskNotFound checks if an error indicates a task was not found.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsInvalidIdentifier checks if an error was caused by an unusable conversation, user or task identifier.
func IsInvalidIdentifier(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier)
}
