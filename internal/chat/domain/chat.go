// Package domain holds the chat session model: conversation history,
// the streaming state machine and the events pushed to the storefront.
package domain

import (
	"time"

	"github.com/somnia/storefront-bfa-go/internal/directive"
)

// Message roles. The relay speaks the OpenAI chat shape, so these are
// sent on the wire as-is.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one turn of the conversation.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionState is the streaming state machine. A session is either idle
// or has exactly one relay stream in flight; there is no queue.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateStreaming SessionState = "streaming"
)

// Guided-flow step bounds. The step indicator advances once per user
// message and parks at StepRecommendation when the assistant first shows
// product cards.
const (
	StepWelcome        = 1
	StepRecommendation = 4
)

// Session is the API view of one chat session.
type Session struct {
	ID       string                `json:"id"`
	State    SessionState          `json:"state"`
	Messages []ConversationMessage `json:"messages"`

	// Step is the guided-flow indicator, 1..4. It never moves backwards.
	Step int `json:"step"`

	// RecommendationShown latches true the first time a streamed reply
	// carries product cards, and stays true for the session's lifetime.
	RecommendationShown bool      `json:"recommendationShown"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// StreamEvent types pushed to the browser over SSE.
const (
	EventRender = "render"
	EventDone   = "done"
	EventError  = "error"
)

// StreamEvent is one server-sent event during a streamed reply.
// Render events carry the full re-parsed message so far; the final
// render (and only the final one) includes quick replies. Done closes
// the turn; error aborts it.
type StreamEvent struct {
	Type                string             `json:"type"`
	Message             *directive.Message `json:"message,omitempty"`
	Step                int                `json:"step,omitempty"`
	RecommendationShown bool               `json:"recommendationShown,omitempty"`
	Error               string             `json:"error,omitempty"`
}

// MessageRequest is the body for posting a user message to a session.
type MessageRequest struct {
	Text string `json:"text"`
}
