package domain

// ============================================================
// Catalog: products, variants, pricing
// ============================================================

// Money is a decimal amount with its currency, as the commerce backend
// serializes prices. Amount stays a string end to end; the BFA never does
// float arithmetic on catalog prices.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// SelectedOption is one named variant option (e.g. Size: Queen).
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is a purchasable SKU of a product.
type Variant struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Price           Money            `json:"price"`
	Available       bool             `json:"available"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
}

// Product is the normalized product shape exposed to the frontend.
// The commerce backend is the system of record; this is a projection.
type Product struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PriceMin    Money     `json:"priceMin"`
	PriceMax    Money     `json:"priceMax"`
	Variants    []Variant `json:"variants"`
	Tags        []string  `json:"tags,omitempty"`
}

// ProductPage is one page of a paginated product listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	HasMore  bool      `json:"has_more"`
}

// CompareEntry is one column of a product comparison. A handle the
// catalog can't resolve becomes a not-found entry; it never fails the
// comparison as a whole.
type CompareEntry struct {
	Handle   string   `json:"handle"`
	Product  *Product `json:"product,omitempty"`
	NotFound bool     `json:"notFound,omitempty"`
}
