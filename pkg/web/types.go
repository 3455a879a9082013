// Package web provides HTTP request and response types for the conversation API.
package web

// SendMessageRequest is one user message for a conversation.
type SendMessageRequest struct {
	UserID  string `json:"user_id" validate:"required,max=128"`
	Message string `json:"message" validate:"required,max=2000"`
}

// CreateConversationResponse carries the identifier of a new conversation.
type CreateConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

// ClassifyRequest asks for the intent of a message. Phase defaults to NEUTRAL.
type ClassifyRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
	Phase   string `json:"phase"   validate:"omitempty,oneof=NEUTRAL ADDING_TASK UPDATING_TASK DELETING_TASK COMPLETING_TASK"`
}

// ResolveDateRequest asks for a deadline phrase to be resolved. Mode selects
// local parsing only, local with escalation (the default) or the oracle alone.
type ResolveDateRequest struct {
	Text string `json:"text" validate:"required,max=500"`
	Mode string `json:"mode" validate:"omitempty,oneof=local fallback oracle"`
}

// MatchRequest ranks a user's tasks against a free-text reference.
type MatchRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Query  string `json:"query"   validate:"required,max=500"`
}
