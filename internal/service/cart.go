package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/cache"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/port"
	"github.com/somnia/storefront-bfa-go/internal/pricing"
)

// cartState is the mutable server-side cart. All mutations go through its
// mutex, so they are total-ordered by call order; no two can interleave
// mid-update.
type cartState struct {
	mu           sync.Mutex
	id           string
	items        []domain.CartLineItem
	referralCode string
	checkoutURL  string
	loading      bool
	updatedAt    time.Time
}

// CartService owns every cart for its lifetime: line items keyed by
// variant id, the advisory referral code, and the checkout handoff.
type CartService struct {
	carts           port.Cache[*cartState]
	commerce        port.CommerceGateway
	sale            pricing.Sale
	checkoutTimeout time.Duration
	metrics         *observability.Metrics
	logger          *zap.Logger
}

// NewCartService creates the cart service. The TTL cache doubles as the
// registry; sessionTTL is the cart lifetime, refreshed on every touch.
func NewCartService(sessionTTL time.Duration, commerce port.CommerceGateway, sale pricing.Sale, checkoutTimeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *CartService {
	return &CartService{
		carts:           cache.New[*cartState](sessionTTL),
		commerce:        commerce,
		sale:            sale,
		checkoutTimeout: checkoutTimeout,
		metrics:         metrics,
		logger:          logger,
	}
}

// CreateCart registers a new empty cart and returns its view.
func (s *CartService) CreateCart() *domain.Cart {
	state := &cartState{id: uuid.NewString(), updatedAt: time.Now()}
	s.carts.Set(state.id, state)
	return s.view(state)
}

// GetCart returns the current cart view.
func (s *CartService) GetCart(cartID string) (*domain.Cart, error) {
	state, err := s.lookup(cartID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return s.view(state), nil
}

// AddItem upserts a line item keyed by variant id. Adding a variant that
// is already present increments its quantity by one; any quantity in the
// request beyond that is ignored for duplicate adds.
func (s *CartService) AddItem(cartID string, req *domain.AddItemRequest) (*domain.Cart, error) {
	if req.VariantID == "" {
		return nil, &domain.ErrValidation{Field: "variantId", Message: "variant id is required"}
	}

	state, err := s.lookup(cartID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	for i := range state.items {
		if state.items[i].VariantID == req.VariantID {
			state.items[i].Quantity++
			s.touch(state)
			return s.view(state), nil
		}
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	state.items = append(state.items, domain.CartLineItem{
		ProductHandle:   req.ProductHandle,
		ProductTitle:    req.ProductTitle,
		ImageURL:        req.ImageURL,
		VariantID:       req.VariantID,
		VariantTitle:    req.VariantTitle,
		Price:           req.Price,
		Quantity:        qty,
		SelectedOptions: req.SelectedOptions,
	})
	s.touch(state)
	return s.view(state), nil
}

// UpdateQuantity sets a line item's quantity; zero or negative removes it.
func (s *CartService) UpdateQuantity(cartID, variantID string, quantity int) (*domain.Cart, error) {
	state, err := s.lookup(cartID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	for i := range state.items {
		if state.items[i].VariantID == variantID {
			if quantity <= 0 {
				state.items = append(state.items[:i], state.items[i+1:]...)
			} else {
				state.items[i].Quantity = quantity
			}
			s.touch(state)
			return s.view(state), nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "line item", ID: variantID}
}

// RemoveItem deletes a line item. Removing an absent variant is a no-op,
// not an error.
func (s *CartService) RemoveItem(cartID, variantID string) (*domain.Cart, error) {
	state, err := s.lookup(cartID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	for i := range state.items {
		if state.items[i].VariantID == variantID {
			state.items = append(state.items[:i], state.items[i+1:]...)
			s.touch(state)
			break
		}
	}
	return s.view(state), nil
}

// SetReferralCode stores (or clears, with "") the cart's referral code.
// The code's format is validated at the handler boundary; storing it never
// alters computed prices; the commerce backend applies discounts at
// checkout.
func (s *CartService) SetReferralCode(cartID, code string) (*domain.Cart, error) {
	state, err := s.lookup(cartID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.referralCode = code
	s.touch(state)
	return s.view(state), nil
}

// CreateCheckout hands the cart to the commerce backend and stores the
// hosted checkout URL. Refuses empty carts; concurrent calls while one is
// in flight are rejected, not queued. On failure the cart is untouched so
// the user can retry without re-adding items.
func (s *CartService) CreateCheckout(ctx context.Context, cartID string) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "Cart.CreateCheckout")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", cartID))

	state, err := s.lookup(cartID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	if state.loading {
		state.mu.Unlock()
		return nil, &domain.ErrCheckoutInFlight{CartID: cartID}
	}
	if len(state.items) == 0 {
		state.mu.Unlock()
		return nil, &domain.ErrEmptyCart{CartID: cartID}
	}
	state.loading = true

	req := &domain.CheckoutRequest{}
	for _, item := range state.items {
		req.LineItems = append(req.LineItems, domain.CheckoutLineItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	if state.referralCode != "" {
		req.Attributes = append(req.Attributes, domain.CheckoutAttribute{Key: "referral_code", Value: state.referralCode})
	}
	if s.sale.Active {
		req.Attributes = append(req.Attributes, domain.CheckoutAttribute{Key: "sale_active", Value: "true"})
	}
	state.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()

	checkout, err := s.commerce.CreateCheckout(callCtx, req)

	state.mu.Lock()
	defer state.mu.Unlock()
	state.loading = false

	if err != nil {
		s.metrics.IncrCheckout("error")
		s.logger.Error("checkout creation failed",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &domain.ErrTimeout{Operation: "checkout"}
		}
		return nil, err
	}

	s.metrics.IncrCheckout("success")
	state.checkoutURL = checkout.WebURL
	// Successful handoff means the cart is done; line items are cleared.
	state.items = nil
	s.touch(state)
	return s.view(state), nil
}

// lookup resolves a cart id, refreshing its registry TTL.
func (s *CartService) lookup(cartID string) (*cartState, error) {
	state, ok := s.carts.Get(cartID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "cart", ID: cartID}
	}
	return state, nil
}

// touch bumps updatedAt and refreshes the registry entry's TTL.
func (s *CartService) touch(state *cartState) {
	state.updatedAt = time.Now()
	s.carts.Set(state.id, state)
}

// view renders the API shape. Caller must hold state.mu (CreateCart is
// the exception: the state is not yet shared).
func (s *CartService) view(state *cartState) *domain.Cart {
	items := make([]domain.CartLineItem, len(state.items))
	copy(items, state.items)

	return &domain.Cart{
		ID:                          state.id,
		Items:                       items,
		ReferralCode:                state.referralCode,
		CheckoutURL:                 state.checkoutURL,
		Loading:                     state.loading,
		DiscountPendingConfirmation: s.sale.Active && state.referralCode != "",
		UpdatedAt:                   state.updatedAt,
	}
}
