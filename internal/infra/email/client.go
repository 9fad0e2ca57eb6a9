// Package email implements the EmailSender port against a Resend-style
// transactional email API. Delivery internals (queues, bounces) belong to
// the provider; this client only submits messages.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("infra/email")

// Client calls the transactional email provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewClient creates an email client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
	}
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send submits one email and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg *domain.EmailMessage) (string, error) {
	ctx, span := tracer.Start(ctx, "Email.Send")
	defer span.End()
	span.SetAttributes(attribute.String("email.subject", msg.Subject))

	var result sendResponse

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("marshal email: %w", err)
			}

			url := fmt.Sprintf("%s/emails", c.baseURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				raw, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("email API returned %d: %s", resp.StatusCode, raw)
			}

			return json.NewDecoder(resp.Body).Decode(&result)
		})
		return nil, innerErr
	})
	if err != nil {
		return "", &domain.ErrExternalService{Service: "email", Err: err}
	}

	return result.ID, nil
}
