// Package models defines the core domain models for the conversational task engine.
package models

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentAddTask            Intent = "ADD_TASK"
	IntentUpdateTask         Intent = "UPDATE_TASK"
	IntentDeleteTask         Intent = "DELETE_TASK"
	IntentCompleteTask       Intent = "COMPLETE_TASK"
	IntentListTasks          Intent = "LIST_TASKS"
	IntentCancelOperation    Intent = "CANCEL_OPERATION"
	IntentProvideInformation Intent = "PROVIDE_INFORMATION"
	IntentUnknown            Intent = "UNKNOWN"
)

// Intents lists every intent in declaration order.
var Intents = []Intent{
	IntentAddTask,
	IntentUpdateTask,
	IntentDeleteTask,
	IntentCompleteTask,
	IntentListTasks,
	IntentCancelOperation,
	IntentProvideInformation,
	IntentUnknown,
}

// IsValid reports whether i is one of the declared intents.
func (i Intent) IsValid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}

	return false
}

// IsCommand reports whether the intent names a task command a user can start.
func (i Intent) IsCommand() bool {
	switch i {
	case IntentAddTask, IntentUpdateTask, IntentDeleteTask, IntentCompleteTask, IntentListTasks:
		return true
	default:
		return false
	}
}

// Operation returns the workflow operation started by the intent, or
// OperationNeutral for intents that do not open a multi-step workflow.
func (i Intent) Operation() Operation {
	switch i {
	case IntentAddTask:
		return OperationAddingTask
	case IntentUpdateTask:
		return OperationUpdatingTask
	case IntentDeleteTask:
		return OperationDeletingTask
	case IntentCompleteTask:
		return OperationCompletingTask
	default:
		return OperationNeutral
	}
}

// Operation is the conversation's active multi-step workflow.
type Operation string

const (
	OperationNeutral        Operation = "NEUTRAL"
	OperationAddingTask     Operation = "ADDING_TASK"
	OperationUpdatingTask   Operation = "UPDATING_TASK"
	OperationDeletingTask   Operation = "DELETING_TASK"
	OperationCompletingTask Operation = "COMPLETING_TASK"
)

// IsValid reports whether o is a known operation.
func (o Operation) IsValid() bool {
	switch o {
	case OperationNeutral, OperationAddingTask, OperationUpdatingTask, OperationDeletingTask, OperationCompletingTask:
		return true
	default:
		return false
	}
}

// Intent returns the command intent that owns the operation.
func (o Operation) Intent() Intent {
	switch o {
	case OperationAddingTask:
		return IntentAddTask
	case OperationUpdatingTask:
		return IntentUpdateTask
	case OperationDeletingTask:
		return IntentDeleteTask
	case OperationCompletingTask:
		return IntentCompleteTask
	default:
		return IntentUnknown
	}
}

// Priority is a task priority level.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid reports whether p is one of high, medium or low.
func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// StatusFilter narrows a task listing.
type StatusFilter string

const (
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"
	StatusAll       StatusFilter = "all"
)
