// Package port defines the chat module's outbound interface.
package port

import (
	"context"

	"github.com/somnia/storefront-bfa-go/internal/chat/domain"
)

// StreamRelay streams an assistant reply for the given conversation.
// onChunk is called once per content delta, in arrival order, from a
// single goroutine. Stream returns after the relay signals completion,
// the context is done, or onChunk returns an error.
type StreamRelay interface {
	Stream(ctx context.Context, messages []domain.ConversationMessage, onChunk func(delta string) error) error
}
