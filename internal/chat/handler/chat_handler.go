// Package handler exposes the chat module over HTTP: session creation,
// session reads and the message route that streams the reply back to
// the browser as server-sent events.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/somnia/storefront-bfa-go/internal/chat/domain"
	"github.com/somnia/storefront-bfa-go/internal/chat/service"
	maindomain "github.com/somnia/storefront-bfa-go/internal/domain"
)

var tracer = otel.Tracer("chat/handler")

// CreateSessionHandler handles POST /v1/chat/sessions.
//
// Response (201 Created): the fresh session, greeting included, so the
// storefront can paint the opening message without a second call.
func CreateSessionHandler(orchestrator *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/chat/sessions")
		defer span.End()

		session := orchestrator.CreateSession()
		span.SetAttributes(attribute.String("chat.session_id", session.ID))
		writeJSON(w, http.StatusCreated, session)
	}
}

// GetSessionHandler handles GET /v1/chat/sessions/{sessionId}.
func GetSessionHandler(orchestrator *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/chat/sessions/{sessionId}")
		defer span.End()

		session, err := orchestrator.GetSession(chi.URLParam(r, "sessionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// MessageHandler handles POST /v1/chat/sessions/{sessionId}/messages.
//
// Request:
//
//	Content-Type: application/json
//	Body: {"text": "I sleep hot and my partner steals the covers"}
//
// Response: text/event-stream. Each event is one StreamEvent JSON:
// debounced "render" events while the reply streams, then a single
// terminal "done" or "error".
//
// Guard failures (blank text, stream already in flight, session gone)
// happen before the stream starts and come back as plain JSON errors.
// Once streaming has begun the status line is already on the wire, so
// later failures are delivered as an "error" event instead.
func MessageHandler(orchestrator *service.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/messages")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		span.SetAttributes(attribute.String("chat.session_id", sessionID))

		var req chatdomain.MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"text\": \"your message\"}")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		started := false
		emit := func(ev chatdomain.StreamEvent) {
			if !started {
				started = true
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				w.Header().Set("Connection", "keep-alive")
				w.WriteHeader(http.StatusOK)
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Error("marshal stream event", zap.Error(err))
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}

		if err := orchestrator.Submit(ctx, sessionID, req.Text, emit); err != nil && !started {
			handleServiceError(w, err, logger)
		}
	}
}

// writeJSON serializes data as JSON onto the response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a standardized error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError maps domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *maindomain.ErrValidation:
		writeError(w, http.StatusUnprocessableEntity, e.Error())
	case *maindomain.ErrSessionNotFound:
		writeError(w, http.StatusNotFound, e.Error())
	case *maindomain.ErrStreamInFlight:
		writeError(w, http.StatusConflict, e.Error())
	case *maindomain.ErrRateLimited:
		writeError(w, http.StatusTooManyRequests, e.Error())
	case *maindomain.ErrCircuitOpen:
		writeError(w, http.StatusServiceUnavailable, e.Error())
	case *maindomain.ErrTimeout:
		writeError(w, http.StatusGatewayTimeout, e.Error())
	case *maindomain.ErrExternalService:
		logger.Error("external service error", zap.String("service", e.Service), zap.Error(e.Err))
		writeError(w, http.StatusBadGateway, "external service unavailable: "+e.Service)
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
