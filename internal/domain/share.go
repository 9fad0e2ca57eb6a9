package domain

import "time"

// ============================================================
// Viral growth: comparison emails, sleep profiles, referral ledger
// ============================================================

// ComparedProduct is one product inside a comparison email payload.
type ComparedProduct struct {
	Handle string `json:"handle"`
	Title  string `json:"title"`
	Price  string `json:"price,omitempty"`
}

// ComparisonShare is a partner-comparison email request plus its stored row.
type ComparisonShare struct {
	ID             string            `json:"id,omitempty"`
	RecipientEmail string            `json:"recipient_email"`
	SenderName     string            `json:"sender_name"`
	PersonalNote   string            `json:"personal_note,omitempty"`
	Products       []ComparedProduct `json:"products"`
	IncludePricing bool              `json:"include_pricing"`
	CreatedAt      time.Time         `json:"created_at,omitempty"`
}

// SleepProfile is a completed sleep-style quiz result persisted for sharing.
type SleepProfile struct {
	ID            string            `json:"id,omitempty"`
	PersonalityID string            `json:"personality_id"`
	Answers       map[string]string `json:"answers"`
	CreatedAt     time.Time         `json:"created_at,omitempty"`
}

// ReferralEvent is one row in the referral ledger, written when an order
// webhook arrives carrying a referral code attribute.
type ReferralEvent struct {
	ID           string    `json:"id,omitempty"`
	ReferralCode string    `json:"referral_code"`
	OrderID      string    `json:"order_id"`
	OrderTotal   string    `json:"order_total,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// EmailMessage is the provider-facing shape of an outbound email.
type EmailMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// OrderWebhook is the subset of the commerce backend's order payload
// the BFA cares about. Attributes carry the referral code, if any.
type OrderWebhook struct {
	ID         string              `json:"id"`
	TotalPrice string              `json:"total_price"`
	Currency   string              `json:"currency"`
	Attributes []CheckoutAttribute `json:"note_attributes"`
}
