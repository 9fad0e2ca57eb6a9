package domain

import "time"

// ============================================================
// Cart: line items, referral code, checkout handoff
// ============================================================

// CartLineItem is one entry in a cart, keyed by variant ID.
// At most one line item exists per variant; duplicate adds increment
// the quantity instead of inserting a second line.
type CartLineItem struct {
	ProductHandle   string           `json:"productHandle"`
	ProductTitle    string           `json:"productTitle"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	VariantID       string           `json:"variantId"`
	VariantTitle    string           `json:"variantTitle"`
	Price           Money            `json:"price"`
	Quantity        int              `json:"quantity"`
	SelectedOptions []SelectedOption `json:"selectedOptions,omitempty"`
}

// Cart is the API view of one cart. Prices shown here are advisory;
// the commerce backend computes the authoritative total at checkout.
type Cart struct {
	ID           string         `json:"id"`
	Items        []CartLineItem `json:"items"`
	ReferralCode string         `json:"referralCode,omitempty"`
	CheckoutURL  string         `json:"checkoutUrl,omitempty"`
	Loading      bool           `json:"loading"`

	// DiscountPendingConfirmation is set whenever both the sitewide sale
	// and a referral code could apply. The BFA never stacks discounts on
	// its own; the commerce backend decides at checkout.
	DiscountPendingConfirmation bool      `json:"discountPendingConfirmation"`
	UpdatedAt                   time.Time `json:"updatedAt"`
}

// AddItemRequest is the body for POST /v1/carts/{cartId}/items.
type AddItemRequest struct {
	ProductHandle   string           `json:"productHandle"`
	ProductTitle    string           `json:"productTitle"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	VariantID       string           `json:"variantId"`
	VariantTitle    string           `json:"variantTitle"`
	Price           Money            `json:"price"`
	Quantity        int              `json:"quantity"`
	SelectedOptions []SelectedOption `json:"selectedOptions,omitempty"`
}

// CheckoutLineItem is the line-item shape the commerce backend accepts.
type CheckoutLineItem struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutAttribute is a custom key/value attached to a checkout
// (referral code, sale flag). Echoed back on the order webhook.
type CheckoutAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CheckoutRequest is sent to the commerce backend to create a hosted checkout.
type CheckoutRequest struct {
	LineItems  []CheckoutLineItem  `json:"lineItems"`
	Attributes []CheckoutAttribute `json:"customAttributes,omitempty"`
}

// Checkout is the commerce backend's checkout-creation response.
type Checkout struct {
	ID     string `json:"id"`
	WebURL string `json:"webUrl"`
}
