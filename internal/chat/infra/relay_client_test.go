package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatdomain "github.com/somnia/storefront-bfa-go/internal/chat/domain"
	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/resilience"
)

func newTestRelay(t *testing.T, handler http.HandlerFunc, idleTimeout time.Duration) *RelayClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRelayClient(
		server.Client(),
		server.URL,
		"test-key",
		resilience.NewCircuitBreaker("relay-test"),
		idleTimeout,
	)
}

func sseHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			flusher.Flush()
		}
	}
}

func collect(t *testing.T, client *RelayClient) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := client.Stream(context.Background(), []chatdomain.ConversationMessage{
		{Role: chatdomain.RoleUser, Content: "which mattress is best for side sleepers?"},
	}, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	return sb.String(), err
}

func TestRelayStreamDeltas(t *testing.T) {
	client := newTestRelay(t, sseHandler(
		`data: {"choices":[{"delta":{"content":"The "}}]}`,
		``,
		`: keep-alive`,
		`data: {"choices":[{"delta":{"content":"Cloud "}}]}`,
		`data: {"choices":[{"delta":{"content":"Nine."}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"ignored after done"}}]}`,
	), time.Second)

	got, err := collect(t, client)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got != "The Cloud Nine." {
		t.Errorf("assembled text = %q", got)
	}
}

func TestRelayStreamReassemblesSplitJSON(t *testing.T) {
	// One JSON document split across two data events: the first half
	// fails to parse alone and must be carried into the second.
	client := newTestRelay(t, sseHandler(
		`data: {"choices":[{"delta":{"con`,
		`data: tent":"soft yet supportive"}}]}`,
		`data: [DONE]`,
	), time.Second)

	got, err := collect(t, client)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got != "soft yet supportive" {
		t.Errorf("assembled text = %q", got)
	}
}

func TestRelayStreamEOFWithoutDone(t *testing.T) {
	client := newTestRelay(t, sseHandler(
		`data: {"choices":[{"delta":{"content":"partial answer"}}]}`,
	), time.Second)

	got, err := collect(t, client)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got != "partial answer" {
		t.Errorf("assembled text = %q", got)
	}
}

func TestRelayStreamIdleTimeout(t *testing.T) {
	client := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n")
		flusher.Flush()
		// Go quiet for longer than the idle timeout.
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := collect(t, client)
	var timeout *domain.ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRelayStreamUpstreamError(t *testing.T) {
	client := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay overloaded", http.StatusServiceUnavailable)
	}, time.Second)

	_, err := collect(t, client)
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestRelayStreamOnChunkErrorAborts(t *testing.T) {
	client := newTestRelay(t, sseHandler(
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		`data: [DONE]`,
	), time.Second)

	abort := errors.New("downstream gone")
	calls := 0
	err := client.Stream(context.Background(), nil, func(delta string) error {
		calls++
		return abort
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 chunk before abort, got %d", calls)
	}
}
