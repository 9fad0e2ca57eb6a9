package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/cache"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
)

// catalogStub serves a small fixed catalog and counts backend hits.
type catalogStub struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	getCalls int
	listErr  error
}

func (s *catalogStub) ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var products []domain.Product
	for _, p := range s.products {
		products = append(products, *p)
	}
	return &domain.ProductPage{Products: products, Page: page, PageSize: pageSize}, nil
}

func (s *catalogStub) GetProduct(ctx context.Context, handle string) (*domain.Product, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()
	if p, ok := s.products[handle]; ok {
		return p, nil
	}
	return nil, &domain.ErrNotFound{Resource: "product", ID: handle}
}

func (s *catalogStub) ListCollectionProducts(ctx context.Context, collection string, page, pageSize int) (*domain.ProductPage, error) {
	return &domain.ProductPage{Page: page, PageSize: pageSize}, nil
}

func (s *catalogStub) CreateCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.Checkout, error) {
	return nil, errors.New("not implemented")
}

func newTestCatalogService(stub *catalogStub) *CatalogService {
	return NewCatalogService(stub, cache.New[any](time.Minute), observability.NewMetrics(), zap.NewNop())
}

func twoProducts() map[string]*domain.Product {
	return map[string]*domain.Product{
		"the-cloud-nine":    {Handle: "the-cloud-nine", Title: "The Cloud Nine"},
		"the-firm-believer": {Handle: "the-firm-believer", Title: "The Firm Believer"},
	}
}

func TestGetProductCaches(t *testing.T) {
	stub := &catalogStub{products: twoProducts()}
	svc := newTestCatalogService(stub)

	for i := 0; i < 3; i++ {
		if _, err := svc.GetProduct(context.Background(), "the-cloud-nine"); err != nil {
			t.Fatalf("GetProduct: %v", err)
		}
	}
	if stub.getCalls != 1 {
		t.Errorf("expected 1 backend call, got %d", stub.getCalls)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestCatalogService(&catalogStub{products: twoProducts()})

	_, err := svc.GetProduct(context.Background(), "the-imaginary-one")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompareIsolatesUnknownHandles(t *testing.T) {
	svc := newTestCatalogService(&catalogStub{products: twoProducts()})

	entries, err := svc.Compare(context.Background(), []string{"the-cloud-nine", "the-imaginary-one", "the-firm-believer"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Product == nil || entries[0].Handle != "the-cloud-nine" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if !entries[1].NotFound {
		t.Errorf("unknown handle should be a not-found entry, got %+v", entries[1])
	}
	if entries[2].Product == nil {
		t.Errorf("entry 2 = %+v", entries[2])
	}
}

func TestCompareNeedsTwoHandles(t *testing.T) {
	svc := newTestCatalogService(&catalogStub{products: twoProducts()})

	_, err := svc.Compare(context.Background(), []string{"the-cloud-nine"})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListProductsPropagatesBackendFailure(t *testing.T) {
	stub := &catalogStub{listErr: &domain.ErrExternalService{Service: "commerce", Err: errors.New("boom")}}
	svc := newTestCatalogService(stub)

	_, err := svc.ListProducts(context.Background(), 1, 20)
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}
