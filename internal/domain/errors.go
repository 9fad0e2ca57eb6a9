package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrEmptyCart indicates a checkout was attempted on a cart with no items.
type ErrEmptyCart struct {
	CartID string
}

func (e *ErrEmptyCart) Error() string {
	return fmt.Sprintf("cannot create checkout for empty cart: %s", e.CartID)
}

// ErrCheckoutInFlight indicates a checkout is already being created for
// this cart. Concurrent calls are rejected, not queued.
type ErrCheckoutInFlight struct {
	CartID string
}

func (e *ErrCheckoutInFlight) Error() string {
	return fmt.Sprintf("checkout already in flight for cart: %s", e.CartID)
}

// ErrStreamInFlight indicates a chat turn was submitted while a prior
// stream is still active. At most one stream runs per session.
type ErrStreamInFlight struct {
	SessionID string
}

func (e *ErrStreamInFlight) Error() string {
	return fmt.Sprintf("a response is already streaming for session: %s", e.SessionID)
}

// ErrSessionNotFound indicates an unknown or expired chat session.
type ErrSessionNotFound struct {
	SessionID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("chat session not found or expired: %s", e.SessionID)
}

// ErrRateLimited indicates the caller exceeded a rate limit.
type ErrRateLimited struct {
	Resource string
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s", e.Resource)
}

// ErrInvalidSignature indicates a webhook signature check failed.
type ErrInvalidSignature struct {
	Reason string
}

func (e *ErrInvalidSignature) Error() string {
	return fmt.Sprintf("invalid webhook signature: %s", e.Reason)
}
