package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/pricing"
	"github.com/somnia/storefront-bfa-go/internal/service"
)

// ============================================================
// Catalog: products, collections, comparison
// ============================================================

func listProductsHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products")
		defer span.End()

		page, pageSize := parsePagination(r)
		result, err := catalogSvc.ListProducts(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// variantPricing decorates one variant with the sitewide sale price.
type variantPricing struct {
	VariantID string `json:"variantId"`
	SalePrice string `json:"salePrice"`
	Discount  string `json:"discount"`
}

// productResponse is a product plus its computed sale pricing. The sale
// block is absent entirely when no sale is running.
type productResponse struct {
	*domain.Product
	Sale        *pricing.Sale    `json:"sale,omitempty"`
	SalePricing []variantPricing `json:"salePricing,omitempty"`
}

func getProductHandler(catalogSvc *service.CatalogService, sale pricing.Sale, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products/{handle}")
		defer span.End()

		handle := chi.URLParam(r, "handle")
		span.SetAttributes(attribute.String("product.handle", handle))

		product, err := catalogSvc.GetProduct(ctx, handle)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := productResponse{Product: product}
		if sale.Active {
			resp.Sale = &sale
			for _, v := range product.Variants {
				original, err := strconv.ParseFloat(v.Price.Amount, 64)
				if err != nil {
					logger.Warn("unparseable variant price",
						zap.String("variant_id", v.ID),
						zap.String("amount", v.Price.Amount),
					)
					continue
				}
				salePrice, err := pricing.SalePrice(sale, original)
				if err != nil {
					continue
				}
				discount, err := pricing.DiscountAmount(sale, original)
				if err != nil {
					continue
				}
				resp.SalePricing = append(resp.SalePricing, variantPricing{
					VariantID: v.ID,
					SalePrice: salePrice,
					Discount:  discount,
				})
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listCollectionProductsHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/collections/{collection}/products")
		defer span.End()

		collection := chi.URLParam(r, "collection")
		span.SetAttributes(attribute.String("collection", collection))

		page, pageSize := parsePagination(r)
		result, err := catalogSvc.ListCollectionProducts(ctx, collection, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// compareProductsHandler handles GET /v1/compare?handles=a,b,c.
func compareProductsHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/compare")
		defer span.End()

		raw := r.URL.Query().Get("handles")
		var handles []string
		for _, h := range strings.Split(raw, ",") {
			if h = strings.TrimSpace(h); h != "" {
				handles = append(handles, h)
			}
		}
		span.SetAttributes(attribute.Int("compare.count", len(handles)))

		entries, err := catalogSvc.Compare(ctx, handles)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	}
}
