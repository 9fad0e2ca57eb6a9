// Package infra implements the chat module's relay client: a streaming
// HTTP client for the upstream AI completion relay.
package infra

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	chatdomain "github.com/somnia/storefront-bfa-go/internal/chat/domain"
	"github.com/somnia/storefront-bfa-go/internal/domain"
)

var tracer = otel.Tracer("chat/infra")

// doneSentinel terminates the upstream stream.
const doneSentinel = "[DONE]"

// RelayClient streams completions from the AI relay. The wire contract
// is the OpenAI-style SSE stream:
//
//	Request:  POST {baseURL}/v1/chat/completions
//	          {"messages": [{"role": "user", "content": "..."}], "stream": true}
//	Response: text/event-stream of
//	          data: {"choices":[{"delta":{"content":"..."}}]}
//	          ...
//	          data: [DONE]
//
// Comment lines (": keep-alive") and blank lines are protocol noise and
// skipped. A data payload that fails to parse is carried over and
// retried joined with the next one, since the relay may split a JSON
// document across events under load.
type RelayClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	cb          *gobreaker.CircuitBreaker
	idleTimeout time.Duration
}

// NewRelayClient creates the relay client. idleTimeout bounds the gap
// between consecutive reads, not the total stream duration.
func NewRelayClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, idleTimeout time.Duration) *RelayClient {
	return &RelayClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      apiKey,
		cb:          cb,
		idleTimeout: idleTimeout,
	}
}

type relayRequest struct {
	Messages []chatdomain.ConversationMessage `json:"messages"`
	Stream   bool                             `json:"stream"`
}

type relayChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream opens one completion stream and feeds every content delta to
// onChunk. The circuit breaker guards the connection attempt only; a
// stream that dies mid-flight counts as that one call's failure.
func (c *RelayClient) Stream(ctx context.Context, messages []chatdomain.ConversationMessage, onChunk func(delta string) error) error {
	ctx, span := tracer.Start(ctx, "RelayClient.Stream")
	defer span.End()
	span.SetAttributes(attribute.Int("chat.history_length", len(messages)))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.stream(ctx, messages, onChunk)
	})
	if err != nil {
		var timeout *domain.ErrTimeout
		if errors.As(err, &timeout) {
			return err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "chat-relay"}
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &domain.ErrExternalService{Service: "chat-relay", Err: err}
	}
	return nil
}

func (c *RelayClient) stream(ctx context.Context, messages []chatdomain.ConversationMessage, onChunk func(delta string) error) error {
	body, err := json.Marshal(relayRequest{Messages: messages, Stream: true})
	if err != nil {
		return fmt.Errorf("marshal relay request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)

	// The idle watchdog cancels the request when the relay goes quiet.
	// Resetting it on every read distinguishes "slow but alive" from
	// "stuck"; a long answer can legitimately take minutes.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var idle atomic.Bool
	watchdog := time.AfterFunc(c.idleTimeout, func() {
		idle.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if idle.Load() {
			return &domain.ErrTimeout{Operation: "chat stream"}
		}
		return fmt.Errorf("connect to relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	var carry string

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if idle.Load() {
				return &domain.ErrTimeout{Operation: "chat stream"}
			}
			if errors.Is(err, io.EOF) {
				// Stream ended without [DONE]; treat the turn as complete
				// rather than failing a fully delivered answer.
				return nil
			}
			return fmt.Errorf("read relay stream: %w", err)
		}
		watchdog.Reset(c.idleTimeout)

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)

		if payload == doneSentinel {
			return nil
		}

		payload = carry + payload
		var chunk relayChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			carry = payload
			continue
		}
		carry = ""

		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := onChunk(delta); err != nil {
				return err
			}
		}
	}
}
