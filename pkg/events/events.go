// Package events defines the conversation lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/taskflow/pkg/models"
)

type EventType string

// Topic is the Watermill topic every conversation event is published on.
const Topic = "taskflow.conversations"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	OperationStartedEvent   EventType = "conversation.operation.started"
	OperationExecutedEvent  EventType = "conversation.operation.executed"
	OperationCancelledEvent EventType = "conversation.operation.cancelled"
	OperationSwitchedEvent  EventType = "conversation.operation.switched"
	OperationExpiredEvent   EventType = "conversation.operation.expired"
)

type BaseEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps an event for the conversation state belongs to.
func NewBaseEvent(id string, eventType EventType, state models.ConversationState, at time.Time) BaseEvent {
	return BaseEvent{
		ID:             id,
		Type:           eventType,
		Timestamp:      at,
		ConversationID: state.ConversationID,
		UserID:         state.UserID,
	}
}

// Key is the partition key of the event; all events of one conversation share it.
func (b BaseEvent) Key() string {
	return b.UserID + "/" + b.ConversationID
}

// OperationStarted is published when a message opens a workflow.
type OperationStarted struct {
	BaseEvent

	Operation models.Operation `json:"operation"`
	Step      string           `json:"step"`
}

func (e OperationStarted) GetType() EventType {
	return OperationStartedEvent
}

// OperationExecuted is published after the task operation was carried out.
type OperationExecuted struct {
	BaseEvent

	Operation models.Operation `json:"operation"`
	TaskID    int              `json:"task_id"`
}

func (e OperationExecuted) GetType() EventType {
	return OperationExecutedEvent
}

// OperationCancelled is published when the user abandons a workflow.
type OperationCancelled struct {
	BaseEvent

	Operation models.Operation `json:"operation"`
	Step      string           `json:"step"`
}

func (e OperationCancelled) GetType() EventType {
	return OperationCancelledEvent
}

// OperationSwitched is published when a command for another operation
// replaces the active workflow.
type OperationSwitched struct {
	BaseEvent

	From models.Operation `json:"from"`
	To   models.Operation `json:"to"`
}

func (e OperationSwitched) GetType() EventType {
	return OperationSwitchedEvent
}

// OperationExpired is published when the sweeper resets an abandoned workflow.
type OperationExpired struct {
	BaseEvent

	Operation models.Operation `json:"operation"`
	Step      string           `json:"step"`
	IdleFor   time.Duration    `json:"idle_for"`
}

func (e OperationExpired) GetType() EventType {
	return OperationExpiredEvent
}
