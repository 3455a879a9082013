package models

import "time"

// Task is a user's to-do item as held by the task store.
type Task struct {
	ID          int        `json:"id"`
	UserID      string     `json:"user_id"      validate:"required"`
	Title       string     `json:"title"        validate:"required,max=200"`
	Description string     `json:"description"  validate:"max=1000"`
	Priority    Priority   `json:"priority"     validate:"required,oneof=high medium low"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Apply returns a copy of t with the requested changes written over it.
// A due date that failed validation is left untouched.
func (t Task) Apply(changes TaskChanges) Task {
	updated := t

	if changes.Title != nil {
		updated.Title = *changes.Title
	}

	if changes.Description != nil {
		updated.Description = *changes.Description
	}

	if changes.Priority != "" {
		updated.Priority = changes.Priority
	}

	if changes.DueDate != nil {
		due := *changes.DueDate
		updated.DueDate = &due
	}

	if changes.Completed != nil {
		updated.Completed = *changes.Completed
	}

	return updated
}
