package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/port"
)

var tracer = otel.Tracer("service")

// CatalogService exposes the product catalog to the frontend with a short
// staleness window so repeat navigation doesn't re-fetch the backend.
type CatalogService struct {
	commerce port.CommerceGateway
	cache    port.Cache[any]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCatalogService creates the catalog service with dependencies injected.
func NewCatalogService(commerce port.CommerceGateway, cache port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		commerce: commerce,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// ListProducts returns one catalog page, cached per (page, pageSize).
func (s *CatalogService) ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error) {
	ctx, span := tracer.Start(ctx, "Catalog.ListProducts")
	defer span.End()

	cacheKey := fmt.Sprintf("products:%d:%d", page, pageSize)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if p, ok := cached.(*domain.ProductPage); ok {
			s.metrics.IncrCacheHit("catalog")
			return p, nil
		}
	}
	s.metrics.IncrCacheMiss("catalog")

	p, err := s.commerce.ListProducts(ctx, page, pageSize)
	if err != nil {
		s.metrics.IncrExternalError("commerce")
		return nil, fmt.Errorf("product listing: %w", err)
	}
	s.cache.Set(cacheKey, p)
	return p, nil
}

// GetProduct looks one product up by handle, cached.
func (s *CatalogService) GetProduct(ctx context.Context, handle string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Catalog.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.handle", handle))

	cacheKey := fmt.Sprintf("product:%s", handle)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if p, ok := cached.(*domain.Product); ok {
			s.metrics.IncrCacheHit("catalog")
			return p, nil
		}
	}
	s.metrics.IncrCacheMiss("catalog")

	p, err := s.commerce.GetProduct(ctx, handle)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			s.metrics.IncrExternalError("commerce")
		}
		return nil, err
	}
	s.cache.Set(cacheKey, p)
	return p, nil
}

// ListCollectionProducts returns one page of a collection, cached.
func (s *CatalogService) ListCollectionProducts(ctx context.Context, collection string, page, pageSize int) (*domain.ProductPage, error) {
	ctx, span := tracer.Start(ctx, "Catalog.ListCollectionProducts")
	defer span.End()
	span.SetAttributes(attribute.String("collection.handle", collection))

	cacheKey := fmt.Sprintf("collection:%s:%d:%d", collection, page, pageSize)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if p, ok := cached.(*domain.ProductPage); ok {
			s.metrics.IncrCacheHit("catalog")
			return p, nil
		}
	}
	s.metrics.IncrCacheMiss("catalog")

	p, err := s.commerce.ListCollectionProducts(ctx, collection, page, pageSize)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKey, p)
	return p, nil
}

// Compare resolves the given handles concurrently. A handle the backend
// doesn't know becomes a not-found entry; only infrastructure failures
// abort the comparison.
func (s *CatalogService) Compare(ctx context.Context, handles []string) ([]domain.CompareEntry, error) {
	ctx, span := tracer.Start(ctx, "Catalog.Compare")
	defer span.End()
	span.SetAttributes(attribute.Int("handles", len(handles)))

	if len(handles) < 2 {
		return nil, &domain.ErrValidation{Field: "handles", Message: "at least two product handles required"}
	}

	entries := make([]domain.CompareEntry, len(handles))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for i, handle := range handles {
		i, handle := i, handle
		g.Go(func() error {
			p, err := s.GetProduct(gCtx, handle)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				entries[i] = domain.CompareEntry{Handle: handle, Product: p}
				return nil
			default:
				var notFound *domain.ErrNotFound
				if errors.As(err, &notFound) {
					s.logger.Warn("compare: product not found", zap.String("handle", handle))
					entries[i] = domain.CompareEntry{Handle: handle, NotFound: true}
					return nil
				}
				return err
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
