// Package service implements the chat orchestrator: the session
// registry, the idle/streaming state machine and the render loop that
// turns relay deltas into debounced UI events.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/somnia/storefront-bfa-go/internal/chat/domain"
	chatport "github.com/somnia/storefront-bfa-go/internal/chat/port"
	"github.com/somnia/storefront-bfa-go/internal/directive"
	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/cache"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("chat/service")

// systemPrompt steers the relay's model. Directive syntax lives here so
// the parser and the prompt stay in one repo and drift together.
const systemPrompt = `You are Luna, the sleep advisor for an online mattress store.
Help shoppers find their mattress. When recommending, emit directive lines:
PRODUCT_RECOMMENDATION: handle|reason|features|price[|match]
COMPARISON: handle1|handle2[|handle3]
FIRMNESS_VISUAL: min-max
SOCIAL_PROOF: kind|text
QUICK_REPLIES: reply1|reply2|...
Each directive goes on its own line. Everything else is shown as prose.`

// greeting opens every session.
const greeting = "Hey! I'm Luna, your sleep advisor. Tell me a bit about how you sleep and I'll find your perfect mattress."

// sessionState is the mutable server-side session. The mutex orders all
// state transitions; the streaming goroutines only touch the text
// accumulator under it.
type sessionState struct {
	mu                  sync.Mutex
	id                  string
	state               chatdomain.SessionState
	messages            []chatdomain.ConversationMessage
	step                int
	recommendationShown bool
	createdAt           time.Time
	updatedAt           time.Time
}

// Orchestrator owns chat sessions and drives streamed replies. One
// stream at most per session; a process-wide bulkhead caps streams
// across sessions so a relay slowdown cannot pile up goroutines.
type Orchestrator struct {
	relay         chatport.StreamRelay
	parser        *directive.Parser
	sessions      *cache.InMemory[*sessionState]
	bulkhead      *resilience.Bulkhead
	flushInterval time.Duration
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewOrchestrator creates the chat orchestrator. flushInterval is the
// render debounce; sessionTTL is the registry lifetime, refreshed on
// every touch.
func NewOrchestrator(relay chatport.StreamRelay, flushInterval, sessionTTL time.Duration, maxStreams int, metrics *observability.Metrics, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		relay:         relay,
		parser:        directive.NewParser(logger, metrics),
		sessions:      cache.New[*sessionState](sessionTTL),
		bulkhead:      resilience.NewBulkhead(maxStreams),
		flushInterval: flushInterval,
		metrics:       metrics,
		logger:        logger,
	}
}

// CreateSession registers a new session seeded with the greeting.
func (o *Orchestrator) CreateSession() *chatdomain.Session {
	now := time.Now()
	state := &sessionState{
		id:    uuid.NewString(),
		state: chatdomain.StateIdle,
		messages: []chatdomain.ConversationMessage{
			{Role: chatdomain.RoleAssistant, Content: greeting},
		},
		step:      chatdomain.StepWelcome,
		createdAt: now,
		updatedAt: now,
	}
	o.sessions.Set(state.id, state)
	return o.view(state)
}

// GetSession returns the session's current view.
func (o *Orchestrator) GetSession(sessionID string) (*chatdomain.Session, error) {
	state, err := o.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return o.view(state), nil
}

// Submit sends a user message and streams the reply through emit. It
// blocks until the turn finishes. Rejected submissions (blank text, a
// stream already in flight, the bulkhead full) leave the session
// exactly as it was, message history included.
func (o *Orchestrator) Submit(ctx context.Context, sessionID, text string, emit func(chatdomain.StreamEvent)) error {
	ctx, span := tracer.Start(ctx, "Orchestrator.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("chat.session_id", sessionID))

	if strings.TrimSpace(text) == "" {
		return &domain.ErrValidation{Field: "text", Message: "message text is required"}
	}

	state, err := o.lookup(sessionID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	if state.state == chatdomain.StateStreaming {
		state.mu.Unlock()
		return &domain.ErrStreamInFlight{SessionID: sessionID}
	}
	if !o.bulkhead.TryAcquire() {
		state.mu.Unlock()
		o.metrics.IncrChatStream("rejected")
		return &domain.ErrRateLimited{Resource: "chat streams"}
	}
	defer o.bulkhead.Release()

	state.state = chatdomain.StateStreaming
	state.messages = append(state.messages, chatdomain.ConversationMessage{
		Role:    chatdomain.RoleUser,
		Content: text,
	})
	if !state.recommendationShown && state.step < chatdomain.StepRecommendation-1 {
		state.step++
	}
	history := o.relayHistory(state)
	o.touch(state)
	state.mu.Unlock()

	reply, streamErr := o.streamReply(ctx, state, history, emit)

	state.mu.Lock()
	defer state.mu.Unlock()
	state.state = chatdomain.StateIdle

	if streamErr != nil {
		o.metrics.IncrChatStream("error")
		o.logger.Error("chat stream failed",
			zap.String("session_id", sessionID),
			zap.Error(streamErr),
		)
		emit(chatdomain.StreamEvent{Type: chatdomain.EventError, Error: publicStreamError(streamErr)})
		o.touch(state)
		return streamErr
	}

	state.messages = append(state.messages, chatdomain.ConversationMessage{
		Role:    chatdomain.RoleAssistant,
		Content: reply,
	})
	o.touch(state)
	o.metrics.IncrChatStream("success")

	emit(chatdomain.StreamEvent{
		Type:                chatdomain.EventDone,
		Step:                state.step,
		RecommendationShown: state.recommendationShown,
	})
	return nil
}

// streamReply runs the relay stream and the debounced render loop.
// Every flush re-parses the full accumulated text, so a directive split
// across deltas renders as prose at most one flush before snapping into
// its block form. The final flush always runs and is the only one that
// carries quick replies.
func (o *Orchestrator) streamReply(ctx context.Context, state *sessionState, history []chatdomain.ConversationMessage, emit func(chatdomain.StreamEvent)) (string, error) {
	var mu sync.Mutex
	var buf strings.Builder
	dirty := false

	done := make(chan error, 1)
	go func() {
		done <- o.relay.Stream(ctx, history, func(delta string) error {
			mu.Lock()
			buf.WriteString(delta)
			dirty = true
			mu.Unlock()
			o.metrics.IncrChatChunk()
			return nil
		})
	}()

	ticker := time.NewTicker(o.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mu.Lock()
			if !dirty {
				mu.Unlock()
				continue
			}
			text := buf.String()
			dirty = false
			mu.Unlock()
			o.render(state, text, false, emit)

		case err := <-done:
			mu.Lock()
			text := buf.String()
			mu.Unlock()
			if err != nil {
				return "", err
			}
			o.render(state, text, true, emit)
			return text, nil
		}
	}
}

// render parses the accumulated text and emits one render event.
func (o *Orchestrator) render(state *sessionState, text string, final bool, emit func(chatdomain.StreamEvent)) {
	msg := o.parser.Parse(text)
	if !final {
		// Quick replies only make sense once the answer is complete;
		// mid-stream they would flicker in and out.
		msg.QuickReplies = nil
	}

	state.mu.Lock()
	if msg.HasRecommendation() && !state.recommendationShown {
		state.recommendationShown = true
		state.step = chatdomain.StepRecommendation
	}
	step := state.step
	shown := state.recommendationShown
	state.mu.Unlock()

	emit(chatdomain.StreamEvent{
		Type:                chatdomain.EventRender,
		Message:             msg,
		Step:                step,
		RecommendationShown: shown,
	})
}

// relayHistory is the wire history: the system prompt plus every turn.
// Caller holds state.mu.
func (o *Orchestrator) relayHistory(state *sessionState) []chatdomain.ConversationMessage {
	history := make([]chatdomain.ConversationMessage, 0, len(state.messages)+1)
	history = append(history, chatdomain.ConversationMessage{
		Role:    chatdomain.RoleSystem,
		Content: systemPrompt,
	})
	return append(history, state.messages...)
}

func (o *Orchestrator) lookup(sessionID string) (*sessionState, error) {
	state, ok := o.sessions.Get(sessionID)
	if !ok {
		return nil, &domain.ErrSessionNotFound{SessionID: sessionID}
	}
	return state, nil
}

// touch refreshes the registry TTL. Caller holds state.mu.
func (o *Orchestrator) touch(state *sessionState) {
	state.updatedAt = time.Now()
	o.sessions.Set(state.id, state)
}

// view renders the API shape. Caller holds state.mu (CreateSession is
// the exception: the state is not yet shared).
func (o *Orchestrator) view(state *sessionState) *chatdomain.Session {
	messages := make([]chatdomain.ConversationMessage, len(state.messages))
	copy(messages, state.messages)

	return &chatdomain.Session{
		ID:                  state.id,
		State:               state.state,
		Messages:            messages,
		Step:                state.step,
		RecommendationShown: state.recommendationShown,
		CreatedAt:           state.createdAt,
		UpdatedAt:           state.updatedAt,
	}
}

// publicStreamError keeps upstream detail out of the browser-facing event.
func publicStreamError(err error) string {
	switch err.(type) {
	case *domain.ErrTimeout:
		return "the assistant took too long to respond, please try again"
	case *domain.ErrCircuitOpen:
		return "the assistant is temporarily unavailable, please try again shortly"
	default:
		return "something went wrong while answering, please try again"
	}
}
