package models

// Entities is the structured payload extracted alongside an intent. Each
// intent has its own variant; the variant is selected by the intent tag.
type Entities interface {
	// Kind returns the intent this entity set belongs to.
	Kind() Intent
}

// NoEntities is the empty variant used by UNKNOWN and CANCEL_OPERATION.
type NoEntities struct {
	intent Intent
}

// Kind implements Entities.
func (e NoEntities) Kind() Intent { return e.intent }

// AddTaskEntities holds what an add command already supplied.
type AddTaskEntities struct {
	Title    string   `json:"title,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

// Kind implements Entities.
func (AddTaskEntities) Kind() Intent { return IntentAddTask }

// TaskReference identifies a task either by numeric id or by a name fragment.
type TaskReference struct {
	TaskID   *int   `json:"task_id,omitempty"`
	TaskName string `json:"task_name,omitempty"`
}

// IsEmpty reports whether neither an id nor a name was supplied.
func (r TaskReference) IsEmpty() bool {
	return r.TaskID == nil && r.TaskName == ""
}

// UpdateTaskEntities holds the target and any priority named with an update command.
type UpdateTaskEntities struct {
	TaskReference

	Priority Priority `json:"priority,omitempty"`
}

// Kind implements Entities.
func (UpdateTaskEntities) Kind() Intent { return IntentUpdateTask }

// DeleteTaskEntities holds the target of a delete command.
type DeleteTaskEntities struct {
	TaskReference
}

// Kind implements Entities.
func (DeleteTaskEntities) Kind() Intent { return IntentDeleteTask }

// CompleteTaskEntities holds the target of a complete command. Reopen is set
// when the user asked to mark the task incomplete instead.
type CompleteTaskEntities struct {
	TaskReference

	Reopen bool `json:"reopen,omitempty"`
}

// Kind implements Entities.
func (CompleteTaskEntities) Kind() Intent { return IntentCompleteTask }

// ListTasksEntities holds the optional status filter of a list command.
type ListTasksEntities struct {
	Status StatusFilter `json:"status,omitempty"`
}

// Kind implements Entities.
func (ListTasksEntities) Kind() Intent { return IntentListTasks }

// InformationEntities holds values a user supplied while inside a workflow.
type InformationEntities struct {
	Confirmation *bool    `json:"confirmation,omitempty"`
	Title        string   `json:"title,omitempty"`
	Priority     Priority `json:"priority,omitempty"`
}

// Kind implements Entities.
func (InformationEntities) Kind() Intent { return IntentProvideInformation }

// ClassificationResult is the immutable outcome of classifying one message.
type ClassificationResult struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   Entities `json:"entities"`
}

// NewClassification builds a result, substituting the empty variant when
// entities is nil so callers never see a nil interface.
func NewClassification(intent Intent, confidence float64, entities Entities) ClassificationResult {
	if entities == nil {
		entities = NoEntities{intent: intent}
	}

	return ClassificationResult{
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
	}
}

// Priority returns the priority carried by any variant that has one.
func (r ClassificationResult) Priority() Priority {
	switch e := r.Entities.(type) {
	case AddTaskEntities:
		return e.Priority
	case UpdateTaskEntities:
		return e.Priority
	case InformationEntities:
		return e.Priority
	default:
		return ""
	}
}

// Confirmation returns the yes/no answer when the message was one.
func (r ClassificationResult) Confirmation() (bool, bool) {
	info, ok := r.Entities.(InformationEntities)
	if !ok || info.Confirmation == nil {
		return false, false
	}

	return *info.Confirmation, true
}

// Reference returns the task reference carried by update, delete or complete entities.
func (r ClassificationResult) Reference() TaskReference {
	switch e := r.Entities.(type) {
	case UpdateTaskEntities:
		return e.TaskReference
	case DeleteTaskEntities:
		return e.TaskReference
	case CompleteTaskEntities:
		return e.TaskReference
	default:
		return TaskReference{}
	}
}

// Title returns the title carried by add or information entities.
func (r ClassificationResult) Title() string {
	switch e := r.Entities.(type) {
	case AddTaskEntities:
		return e.Title
	case InformationEntities:
		return e.Title
	default:
		return ""
	}
}
