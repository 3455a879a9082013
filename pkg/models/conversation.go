package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTargetAlreadySet is returned when a workflow tries to retarget a task mid-operation.
	ErrTargetAlreadySet = errors.New("target task already set for this operation")

	// ErrInconsistentState is returned when accumulated data does not belong to the active operation.
	ErrInconsistentState = errors.New("accumulated data does not match active operation")
)

// AddTaskData is what the add-task workflow has collected so far.
type AddTaskData struct {
	Step        AddStep    `json:"step"`
	Title       string     `json:"title"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDateRaw  string     `json:"due_date_raw,omitempty"`
	DueDate     *time.Time `json:"due_date_parsed,omitempty"`
	NoDeadline  bool       `json:"no_deadline,omitempty"`
	Description string     `json:"description,omitempty"`
	DateError   string     `json:"date_error,omitempty"`
}

// TaskChanges are the field edits requested during an update.
type TaskChanges struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Priority     Priority   `json:"priority,omitempty"`
	DueDateRaw   string     `json:"due_date_raw,omitempty"`
	DueDate      *time.Time `json:"due_date_parsed,omitempty"`
	DueDateError string     `json:"due_date_error,omitempty"`
	Completed    *bool      `json:"completed,omitempty"`
}

// IsEmpty reports whether no field change was recorded.
func (c TaskChanges) IsEmpty() bool {
	return c.Title == nil &&
		c.Description == nil &&
		c.Priority == "" &&
		c.DueDateRaw == "" &&
		c.DueDate == nil &&
		c.DueDateError == "" &&
		c.Completed == nil
}

// Merge returns c overlaid with every field set in other.
func (c TaskChanges) Merge(other TaskChanges) TaskChanges {
	merged := c

	if other.Title != nil {
		merged.Title = other.Title
	}

	if other.Description != nil {
		merged.Description = other.Description
	}

	if other.Priority != "" {
		merged.Priority = other.Priority
	}

	if other.DueDateRaw != "" {
		merged.DueDateRaw = other.DueDateRaw
		merged.DueDate = other.DueDate
		merged.DueDateError = other.DueDateError
	}

	if other.Completed != nil {
		merged.Completed = other.Completed
	}

	return merged
}

// UpdateTaskData is what the update-task workflow has collected so far.
type UpdateTaskData struct {
	Step       UpdateStep    `json:"step"`
	Target     TaskReference `json:"target"`
	Changes    TaskChanges   `json:"changes"`
	MatchScore int           `json:"match_score,omitempty"`
}

// DeleteTaskData is what the delete-task workflow has collected so far.
type DeleteTaskData struct {
	Step       DeleteStep    `json:"step"`
	Target     TaskReference `json:"target"`
	MatchScore int           `json:"match_score,omitempty"`
}

// CompleteTaskData is what the complete-task workflow has collected so far.
// ToggleTo is true to mark the task complete and false to reopen it.
type CompleteTaskData struct {
	Step       CompleteStep  `json:"step"`
	Target     TaskReference `json:"target"`
	ToggleTo   bool          `json:"toggle_to"`
	MatchScore int           `json:"match_score,omitempty"`
}

// ConversationState is the per-conversation workflow memory. At most one of the
// operation data pointers is set, and it always matches ActiveOperation.
type ConversationState struct {
	ConversationID  string
	UserID          string
	ActiveOperation Operation
	Add             *AddTaskData
	Update          *UpdateTaskData
	Delete          *DeleteTaskData
	Complete        *CompleteTaskData
	TargetTaskID    *int
	UpdatedAt       time.Time
}

// NewConversationState returns a NEUTRAL state with no accumulated data.
func NewConversationState(conversationID, userID string, now time.Time) ConversationState {
	return ConversationState{
		ConversationID:  conversationID,
		UserID:          userID,
		ActiveOperation: OperationNeutral,
		UpdatedAt:       now,
	}
}

// Reset returns the state back in NEUTRAL with everything collected dropped.
func (s ConversationState) Reset(now time.Time) ConversationState {
	return NewConversationState(s.ConversationID, s.UserID, now)
}

// IsNeutral reports whether no workflow is active.
func (s ConversationState) IsNeutral() bool {
	return s.ActiveOperation == OperationNeutral || s.ActiveOperation == ""
}

// WithAdd starts or continues the add-task workflow.
func (s ConversationState) WithAdd(data AddTaskData, now time.Time) ConversationState {
	next := s.clearedFor(OperationAddingTask, now)
	next.Add = &data

	return next
}

// WithUpdate starts or continues the update-task workflow.
func (s ConversationState) WithUpdate(data UpdateTaskData, now time.Time) ConversationState {
	next := s.clearedFor(OperationUpdatingTask, now)
	next.Update = &data

	return next
}

// WithDelete starts or continues the delete-task workflow.
func (s ConversationState) WithDelete(data DeleteTaskData, now time.Time) ConversationState {
	next := s.clearedFor(OperationDeletingTask, now)
	next.Delete = &data

	return next
}

// WithComplete starts or continues the complete-task workflow.
func (s ConversationState) WithComplete(data CompleteTaskData, now time.Time) ConversationState {
	next := s.clearedFor(OperationCompletingTask, now)
	next.Complete = &data

	return next
}

func (s ConversationState) clearedFor(op Operation, now time.Time) ConversationState {
	next := ConversationState{
		ConversationID:  s.ConversationID,
		UserID:          s.UserID,
		ActiveOperation: op,
		UpdatedAt:       now,
	}

	// The target survives only while the same operation continues.
	if s.ActiveOperation == op {
		next.TargetTaskID = s.TargetTaskID
	}

	return next
}

// SetTarget records the task the active operation acts on. Setting the same id
// twice is a no-op; setting a different one fails.
func (s *ConversationState) SetTarget(taskID int) error {
	if s.TargetTaskID != nil {
		if *s.TargetTaskID == taskID {
			return nil
		}

		return fmt.Errorf("%w: have %d, got %d", ErrTargetAlreadySet, *s.TargetTaskID, taskID)
	}

	s.TargetTaskID = &taskID

	return nil
}

// CurrentStep returns the name of the step the active workflow is waiting on.
func (s ConversationState) CurrentStep() string {
	switch {
	case s.Add != nil:
		return string(s.Add.Step)
	case s.Update != nil:
		return string(s.Update.Step)
	case s.Delete != nil:
		return string(s.Delete.Step)
	case s.Complete != nil:
		return string(s.Complete.Step)
	default:
		return ""
	}
}

// Validate checks that the accumulated data belongs to the active operation.
func (s ConversationState) Validate() error {
	if s.ActiveOperation != "" && !s.ActiveOperation.IsValid() {
		return fmt.Errorf("%w: unknown operation %q", ErrInconsistentState, s.ActiveOperation)
	}

	set := 0
	for _, present := range []bool{s.Add != nil, s.Update != nil, s.Delete != nil, s.Complete != nil} {
		if present {
			set++
		}
	}

	expected := map[Operation]bool{
		OperationAddingTask:     s.Add != nil,
		OperationUpdatingTask:   s.Update != nil,
		OperationDeletingTask:   s.Delete != nil,
		OperationCompletingTask: s.Complete != nil,
	}

	if s.IsNeutral() {
		if set != 0 || s.TargetTaskID != nil {
			return fmt.Errorf("%w: neutral state carries data", ErrInconsistentState)
		}

		return nil
	}

	if set != 1 || !expected[s.ActiveOperation] {
		return fmt.Errorf("%w: %s", ErrInconsistentState, s.ActiveOperation)
	}

	if s.Add != nil && s.TargetTaskID != nil {
		return fmt.Errorf("%w: add workflow cannot target a task", ErrInconsistentState)
	}

	return nil
}

// AccumulatedData encodes the active operation's data as a JSON object.
func (s ConversationState) AccumulatedData() (json.RawMessage, error) {
	var payload any

	switch {
	case s.Add != nil:
		payload = s.Add
	case s.Update != nil:
		payload = s.Update
	case s.Delete != nil:
		payload = s.Delete
	case s.Complete != nil:
		payload = s.Complete
	default:
		return json.RawMessage(`{}`), nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode accumulated data: %w", err)
	}

	return data, nil
}

// LoadAccumulatedData decodes raw into the data slot for op and makes op active.
func (s *ConversationState) LoadAccumulatedData(op Operation, raw []byte) error {
	s.ActiveOperation = op
	s.Add, s.Update, s.Delete, s.Complete = nil, nil, nil, nil

	if op == OperationNeutral || op == "" {
		s.ActiveOperation = OperationNeutral

		return nil
	}

	if len(raw) == 0 {
		raw = []byte(`{}`)
	}

	var err error

	switch op {
	case OperationAddingTask:
		s.Add = &AddTaskData{Step: AddStepConfirm}
		err = json.Unmarshal(raw, s.Add)
	case OperationUpdatingTask:
		s.Update = &UpdateTaskData{Step: UpdateStepIdentify}
		err = json.Unmarshal(raw, s.Update)
	case OperationDeletingTask:
		s.Delete = &DeleteTaskData{Step: DeleteStepIdentify}
		err = json.Unmarshal(raw, s.Delete)
	case OperationCompletingTask:
		s.Complete = &CompleteTaskData{Step: CompleteStepIdentify, ToggleTo: true}
		err = json.Unmarshal(raw, s.Complete)
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInconsistentState, op)
	}

	if err != nil {
		return fmt.Errorf("failed to decode accumulated data for %s: %w", op, err)
	}

	return nil
}

type conversationStateJSON struct {
	ConversationID  string          `json:"conversation_id"`
	UserID          string          `json:"user_id"`
	ActiveOperation Operation       `json:"active_operation"`
	AccumulatedData json.RawMessage `json:"accumulated_data"`
	TargetTaskID    *int            `json:"target_task_id,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MarshalJSON writes the state as the flat record the conversation store keeps.
func (s ConversationState) MarshalJSON() ([]byte, error) {
	data, err := s.AccumulatedData()
	if err != nil {
		return nil, err
	}

	op := s.ActiveOperation
	if op == "" {
		op = OperationNeutral
	}

	return json.Marshal(conversationStateJSON{
		ConversationID:  s.ConversationID,
		UserID:          s.UserID,
		ActiveOperation: op,
		AccumulatedData: data,
		TargetTaskID:    s.TargetTaskID,
		UpdatedAt:       s.UpdatedAt,
	})
}

// UnmarshalJSON reads the flat record written by MarshalJSON.
func (s *ConversationState) UnmarshalJSON(raw []byte) error {
	var record conversationStateJSON

	err := json.Unmarshal(raw, &record)
	if err != nil {
		return err
	}

	s.ConversationID = record.ConversationID
	s.UserID = record.UserID
	s.TargetTaskID = record.TargetTaskID
	s.UpdatedAt = record.UpdatedAt

	return s.LoadAccumulatedData(record.ActiveOperation, record.AccumulatedData)
}
