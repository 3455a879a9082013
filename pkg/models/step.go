package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a step change is not declared in the operation's transition table.
var ErrInvalidTransition = errors.New("invalid workflow step transition")

// Outcome tells the caller what to do after a workflow turn.
type Outcome string

const (
	// OutcomeContinue means the workflow is waiting for more input.
	OutcomeContinue Outcome = "continue"
	// OutcomeCancel means the user abandoned the workflow.
	OutcomeCancel Outcome = "cancel"
	// OutcomeSwitchIntent means the user named a different command.
	OutcomeSwitchIntent Outcome = "switch_intent"
	// OutcomeExecute means every field is collected and the operation should run.
	OutcomeExecute Outcome = "execute"
)

// AddStep is a step of the add-task workflow.
type AddStep string

const (
	AddStepConfirm     AddStep = "confirm"
	AddStepPriority    AddStep = "priority"
	AddStepDeadline    AddStep = "deadline"
	AddStepDescription AddStep = "description"
	AddStepCreate      AddStep = "create"
)

// UpdateStep is a step of the update-task workflow.
type UpdateStep string

const (
	UpdateStepIdentify       UpdateStep = "identify"
	UpdateStepShowDetails    UpdateStep = "show_details"
	UpdateStepCollectChanges UpdateStep = "collect_changes"
	UpdateStepConfirm        UpdateStep = "confirm"
	UpdateStepExecute        UpdateStep = "execute"
)

// DeleteStep is a step of the delete-task workflow.
type DeleteStep string

const (
	DeleteStepIdentify    DeleteStep = "identify"
	DeleteStepShowDetails DeleteStep = "show_details"
	DeleteStepConfirm     DeleteStep = "confirm"
	DeleteStepExecute     DeleteStep = "execute"
)

// CompleteStep is a step of the complete-task workflow.
type CompleteStep string

const (
	CompleteStepIdentify CompleteStep = "identify"
	CompleteStepConfirm  CompleteStep = "confirm"
	CompleteStepExecute  CompleteStep = "execute"
)

// Staying on the same step is always allowed and is not listed.
var (
	addTransitions = map[AddStep][]AddStep{
		AddStepConfirm:     {AddStepPriority, AddStepDeadline},
		AddStepPriority:    {AddStepDeadline},
		AddStepDeadline:    {AddStepDescription},
		AddStepDescription: {AddStepCreate},
		AddStepCreate:      nil,
	}

	updateTransitions = map[UpdateStep][]UpdateStep{
		UpdateStepIdentify:       {UpdateStepShowDetails},
		UpdateStepShowDetails:    {UpdateStepCollectChanges, UpdateStepConfirm},
		UpdateStepCollectChanges: {UpdateStepConfirm},
		UpdateStepConfirm:        {UpdateStepExecute},
		UpdateStepExecute:        nil,
	}

	deleteTransitions = map[DeleteStep][]DeleteStep{
		DeleteStepIdentify:    {DeleteStepShowDetails},
		DeleteStepShowDetails: {DeleteStepConfirm, DeleteStepExecute},
		DeleteStepConfirm:     {DeleteStepExecute},
		DeleteStepExecute:     nil,
	}

	completeTransitions = map[CompleteStep][]CompleteStep{
		CompleteStepIdentify: {CompleteStepConfirm},
		CompleteStepConfirm:  {CompleteStepExecute},
		CompleteStepExecute:  nil,
	}
)

// AddSteps returns the add-task sequence in order.
func AddSteps() []AddStep {
	return []AddStep{AddStepConfirm, AddStepPriority, AddStepDeadline, AddStepDescription, AddStepCreate}
}

// UpdateSteps returns the update-task sequence in order.
func UpdateSteps() []UpdateStep {
	return []UpdateStep{UpdateStepIdentify, UpdateStepShowDetails, UpdateStepCollectChanges, UpdateStepConfirm, UpdateStepExecute}
}

// DeleteSteps returns the delete-task sequence in order.
func DeleteSteps() []DeleteStep {
	return []DeleteStep{DeleteStepIdentify, DeleteStepShowDetails, DeleteStepConfirm, DeleteStepExecute}
}

// CompleteSteps returns the complete-task sequence in order.
func CompleteSteps() []CompleteStep {
	return []CompleteStep{CompleteStepIdentify, CompleteStepConfirm, CompleteStepExecute}
}

// IsValid reports whether s belongs to the add-task sequence.
func (s AddStep) IsValid() bool {
	_, ok := addTransitions[s]

	return ok
}

// IsValid reports whether s belongs to the update-task sequence.
func (s UpdateStep) IsValid() bool {
	_, ok := updateTransitions[s]

	return ok
}

// IsValid reports whether s belongs to the delete-task sequence.
func (s DeleteStep) IsValid() bool {
	_, ok := deleteTransitions[s]

	return ok
}

// IsValid reports whether s belongs to the complete-task sequence.
func (s CompleteStep) IsValid() bool {
	_, ok := completeTransitions[s]

	return ok
}

// IsFinal reports whether reaching the step means the operation can run.
func (s AddStep) IsFinal() bool { return s == AddStepCreate }
func (s UpdateStep) IsFinal() bool { return s == UpdateStepExecute }
func (s DeleteStep) IsFinal() bool { return s == DeleteStepExecute }
func (s CompleteStep) IsFinal() bool { return s == CompleteStepExecute }

// CanTransition reports whether the add workflow may move from s to next.
func (s AddStep) CanTransition(next AddStep) bool {
	return allowed(addTransitions, s, next)
}

// CanTransition reports whether the update workflow may move from s to next.
func (s UpdateStep) CanTransition(next UpdateStep) bool {
	return allowed(updateTransitions, s, next)
}

// CanTransition reports whether the delete workflow may move from s to next.
func (s DeleteStep) CanTransition(next DeleteStep) bool {
	return allowed(deleteTransitions, s, next)
}

// CanTransition reports whether the complete workflow may move from s to next.
func (s CompleteStep) CanTransition(next CompleteStep) bool {
	return allowed(completeTransitions, s, next)
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	targets, ok := table[from]
	if !ok {
		return false
	}

	if from == to {
		return true
	}

	for _, target := range targets {
		if target == to {
			return true
		}
	}

	return false
}

// TransitionError describes a rejected step change.
type TransitionError struct {
	Operation Operation
	From      string
	To        string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move from %q to %q", e.Operation, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
