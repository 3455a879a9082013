// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/taskflow/pkg/models"
)

// DefaultUserID owns every task built without WithUserID.
const DefaultUserID = "test-user"

// CreateTestTask creates a test Task with default values that can be overridden.
func CreateTestTask(overrides ...func(*models.Task)) models.Task {
	task := models.Task{
		UserID:   DefaultUserID,
		Title:    "Test Task",
		Priority: models.PriorityMedium,
	}

	for _, override := range overrides {
		override(&task)
	}

	return task
}

// CreateTestTasks creates one task per title, numbered from 1 in order.
func CreateTestTasks(titles ...string) []models.Task {
	tasks := make([]models.Task, 0, len(titles))

	for i, title := range titles {
		tasks = append(tasks, CreateTestTask(WithID(i+1), WithTitle(title)))
	}

	return tasks
}

// WithID sets the task ID.
func WithID(id int) func(*models.Task) {
	return func(t *models.Task) {
		t.ID = id
	}
}

// WithUserID sets the task owner.
func WithUserID(userID string) func(*models.Task) {
	return func(t *models.Task) {
		t.UserID = userID
	}
}

// WithTitle sets the task title.
func WithTitle(title string) func(*models.Task) {
	return func(t *models.Task) {
		t.Title = title
	}
}

// WithPriority sets the task priority.
func WithPriority(priority models.Priority) func(*models.Task) {
	return func(t *models.Task) {
		t.Priority = priority
	}
}

// WithDueDate sets the task due date.
func WithDueDate(due time.Time) func(*models.Task) {
	return func(t *models.Task) {
		t.DueDate = &due
	}
}

// WithCompleted marks the task done.
func WithCompleted() func(*models.Task) {
	return func(t *models.Task) {
		t.Completed = true
	}
}

// CreateAddingState creates a conversation waiting for the priority of title,
// last touched at updatedAt.
func CreateAddingState(conversationID, userID, title string, updatedAt time.Time) models.ConversationState {
	state := models.NewConversationState(conversationID, userID, updatedAt)

	return state.WithAdd(models.AddTaskData{Step: models.AddStepPriority, Title: title}, updatedAt)
}
