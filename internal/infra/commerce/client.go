// Package commerce implements the CommerceGateway port against the hosted
// commerce backend's REST API (Shopify-Storefront-equivalent). The backend
// is the system of record for products and the sole authority on checkout
// pricing; this client only reads the catalog and hands carts off.
package commerce

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

var tracer = otel.Tracer("infra/commerce")

// Client calls the commerce backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewClient creates a commerce client.
func NewClient(httpClient *http.Client, baseURL, token string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		cb:         cb,
		cfg:        cfg,
	}
}

// get executes an authenticated GET and decodes the JSON response into out.
// Wrapped in circuit breaker + retry like every external call.
func (c *Client) get(ctx context.Context, path string, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s%s", c.baseURL, path)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			req.Header.Set("X-Storefront-Token", c.token)
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				// Not retryable; surface as-is and let the caller map it.
				return errNotFound
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("commerce API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
		return nil, innerErr
	})
	return err
}

var errNotFound = fmt.Errorf("commerce: not found")

// ListProducts returns one page of the product catalog.
func (c *Client) ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error) {
	ctx, span := tracer.Start(ctx, "Commerce.ListProducts")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	var result domain.ProductPage
	path := fmt.Sprintf("/storefront/products?page=%d&page_size=%d", page, pageSize)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, &domain.ErrExternalService{Service: "commerce", Err: err}
	}
	result.Page = page
	result.PageSize = pageSize
	return &result, nil
}

// GetProduct looks a single product up by handle.
func (c *Client) GetProduct(ctx context.Context, handle string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Commerce.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.handle", handle))

	var result domain.Product
	path := fmt.Sprintf("/storefront/products/%s", handle)
	if err := c.get(ctx, path, &result); err != nil {
		if err == errNotFound {
			return nil, &domain.ErrNotFound{Resource: "product", ID: handle}
		}
		return nil, &domain.ErrExternalService{Service: "commerce", Err: err}
	}
	return &result, nil
}

// ListCollectionProducts returns one page of a collection.
func (c *Client) ListCollectionProducts(ctx context.Context, collection string, page, pageSize int) (*domain.ProductPage, error) {
	ctx, span := tracer.Start(ctx, "Commerce.ListCollectionProducts")
	defer span.End()
	span.SetAttributes(attribute.String("collection.handle", collection))

	var result domain.ProductPage
	path := fmt.Sprintf("/storefront/collections/%s/products?page=%d&page_size=%d", collection, page, pageSize)
	if err := c.get(ctx, path, &result); err != nil {
		if err == errNotFound {
			return nil, &domain.ErrNotFound{Resource: "collection", ID: collection}
		}
		return nil, &domain.ErrExternalService{Service: "commerce", Err: err}
	}
	result.Page = page
	result.PageSize = pageSize
	return &result, nil
}

// CreateCheckout asks the commerce backend for a hosted checkout URL.
// Checkout creation is NOT retried: the call is not idempotent and a
// timed-out first attempt may still have created a checkout.
func (c *Client) CreateCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.Checkout, error) {
	ctx, span := tracer.Start(ctx, "Commerce.CreateCheckout")
	defer span.End()
	span.SetAttributes(attribute.Int("line_items", len(req.LineItems)))

	var checkout domain.Checkout

	_, err := c.cb.Execute(func() (any, error) {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal checkout request: %w", err)
		}

		url := fmt.Sprintf("%s/storefront/checkouts", c.baseURL)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("X-Storefront-Token", c.token)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			raw, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("checkout creation returned %d: %s", resp.StatusCode, raw)
		}

		return nil, json.NewDecoder(resp.Body).Decode(&checkout)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "commerce", Err: err}
	}

	return &checkout, nil
}
