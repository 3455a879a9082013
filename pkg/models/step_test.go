package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddStep_Sequence(t *testing.T) {
	steps := AddSteps()

	assert.Equal(t, []AddStep{"confirm", "priority", "deadline", "description", "create"}, steps)

	for i := 0; i < len(steps)-1; i++ {
		assert.True(t, steps[i].IsValid())
		assert.False(t, steps[i].IsFinal())
		assert.True(t, steps[i].CanTransition(steps[i+1]), "%s -> %s", steps[i], steps[i+1])
	}

	assert.True(t, AddStepCreate.IsFinal())
}

func TestAddStep_NoBackwardTransitions(t *testing.T) {
	assert.False(t, AddStepDescription.CanTransition(AddStepDeadline))
	assert.False(t, AddStepCreate.CanTransition(AddStepConfirm))
	assert.True(t, AddStepDeadline.CanTransition(AddStepDeadline))
	assert.True(t, AddStepConfirm.CanTransition(AddStepDeadline))
}

func TestStep_UnknownStepsRejected(t *testing.T) {
	assert.False(t, AddStep("execute").IsValid())
	assert.False(t, UpdateStep("create").IsValid())
	assert.False(t, DeleteStep("collect_changes").IsValid())
	assert.False(t, CompleteStep("show_details").IsValid())
	assert.False(t, AddStep("bogus").CanTransition(AddStepCreate))
}

func TestUpdateDeleteCompleteSequences(t *testing.T) {
	assert.Len(t, UpdateSteps(), 5)
	assert.Len(t, DeleteSteps(), 4)
	assert.Len(t, CompleteSteps(), 3)

	assert.True(t, UpdateStepShowDetails.CanTransition(UpdateStepConfirm))
	assert.True(t, UpdateStepShowDetails.CanTransition(UpdateStepCollectChanges))
	assert.False(t, UpdateStepConfirm.CanTransition(UpdateStepCollectChanges))

	assert.True(t, DeleteStepShowDetails.CanTransition(DeleteStepExecute))
	assert.False(t, DeleteStepExecute.CanTransition(DeleteStepIdentify))

	assert.True(t, CompleteStepIdentify.CanTransition(CompleteStepConfirm))
	assert.False(t, CompleteStepIdentify.CanTransition(CompleteStepExecute))
	assert.True(t, CompleteStepExecute.IsFinal())
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{Operation: OperationAddingTask, From: "create", To: "confirm"}

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "ADDING_TASK")
}

func TestStepResult_StepName(t *testing.T) {
	result := StepResult[AddTaskData, AddStep]{Step: AddStepDeadline, Outcome: OutcomeContinue}
	assert.Equal(t, "deadline", result.StepName())

	result.Outcome = OutcomeCancel
	assert.Equal(t, "cancel", result.StepName())

	result.Outcome = OutcomeSwitchIntent
	assert.Equal(t, "switch_intent", result.StepName())
}

func TestIntent_OperationRoundTrip(t *testing.T) {
	for _, op := range []Operation{OperationAddingTask, OperationUpdatingTask, OperationDeletingTask, OperationCompletingTask} {
		assert.Equal(t, op, op.Intent().Operation())
	}

	assert.Equal(t, OperationNeutral, IntentListTasks.Operation())
	assert.True(t, IntentListTasks.IsCommand())
	assert.False(t, IntentProvideInformation.IsCommand())
	assert.False(t, Intent("SING").IsValid())
}
