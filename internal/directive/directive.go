// Package directive parses assistant output into renderable structure.
//
// The LLM is prompted to embed structured instructions in its replies, one
// per line, introduced by a fixed prefix token (PRODUCT_RECOMMENDATION:,
// COMPARISON:, FIRMNESS_VISUAL:, SOCIAL_PROOF:, QUICK_REPLIES:). Everything
// else is narrative text with a minimal inline markup (links and bold).
// The parser re-runs over the full accumulated text on every stream flush,
// so it is pure and idempotent: same input, same output, no state.
package directive

// SpanKind classifies one inline narrative span.
type SpanKind string

const (
	SpanText SpanKind = "text"
	SpanBold SpanKind = "bold"
	SpanLink SpanKind = "link"
)

// Span is one inline run of narrative text. URL is set for link spans only.
type Span struct {
	Kind SpanKind `json:"kind"`
	Text string   `json:"text"`
	URL  string   `json:"url,omitempty"`
}

// Paragraph is one narrative line, resolved into inline spans.
type Paragraph struct {
	Spans []Span `json:"spans"`
}

// ProductCard is a parsed PRODUCT_RECOMMENDATION directive.
type ProductCard struct {
	Handle       string   `json:"handle"`
	QueryParams  string   `json:"queryParams,omitempty"`
	Reason       string   `json:"reason"`
	Features     []string `json:"features"`
	Price        string   `json:"price"`
	MatchPercent int      `json:"matchPercent,omitempty"` // 0 = not provided
}

// Comparison is a parsed COMPARISON directive.
type Comparison struct {
	Handles []string `json:"handles"`
}

// Firmness is a parsed FIRMNESS_VISUAL directive on the 1-10 scale.
type Firmness struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SocialProofKind is the badge flavor of a SOCIAL_PROOF directive.
type SocialProofKind string

const (
	ProofPopular  SocialProofKind = "popular"
	ProofRated    SocialProofKind = "rated"
	ProofTrending SocialProofKind = "trending"
)

// SocialProof is a parsed SOCIAL_PROOF badge.
type SocialProof struct {
	Kind SocialProofKind `json:"kind"`
	Text string          `json:"text"`
}

// Message is the rendered form of one assistant reply. Blocks appear in a
// fixed output order regardless of where their lines occurred in the raw
// text: narrative, product cards, comparison, firmness, social proof,
// quick replies.
type Message struct {
	Narrative    []Paragraph   `json:"narrative"`
	Products     []ProductCard `json:"products,omitempty"`
	Comparison   *Comparison   `json:"comparison,omitempty"`
	Firmness     *Firmness     `json:"firmness,omitempty"`
	SocialProof  []SocialProof `json:"socialProof,omitempty"`
	QuickReplies []string      `json:"quickReplies,omitempty"`
}

// HasRecommendation reports whether at least one product card was parsed.
// The chat orchestrator latches its post-recommendation state on this.
func (m *Message) HasRecommendation() bool {
	return len(m.Products) > 0
}
