package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/platform/auth"
	"github.com/indicrafts/api/internal/platform/pagination"
	"github.com/indicrafts/api/internal/services"
)

// AdminCatalogHandlers exposes the moderation queue and dashboard aggregations.
// The router mounts these behind the admin role middleware.
type AdminCatalogHandlers struct {
	catalog   services.CatalogService
	shipping  services.ShippingService
	reporting services.AdminReportingService
	system    services.SystemService
}

// NewAdminCatalogHandlers constructs the admin handlers.
func NewAdminCatalogHandlers(
	catalog services.CatalogService,
	shipping services.ShippingService,
	reporting services.AdminReportingService,
	system services.SystemService,
) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{
		catalog:   catalog,
		shipping:  shipping,
		reporting: reporting,
		system:    system,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Post("/products/{productID}/approve", h.approveProduct)
	r.Post("/products/{productID}/reject", h.rejectProduct)
	r.Get("/shipping-summary", h.shippingSummary)
	r.Get("/stats", h.stats)
	r.Get("/audit-logs", h.auditLogs)
}

// listProducts pages the moderation queue. Every product is annotated with a
// price breakdown: the persisted snapshot for decided products, a live
// producer-side preview for pending ones.
func (h *AdminCatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	var status domain.ApprovalStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, ok := domain.ParseApprovalStatus(raw)
		if !ok {
			writeFailure(w, http.StatusBadRequest, "status must be pending, approved, or rejected")
			return
		}
		status = parsed
	}

	page, err := h.catalog.ListByStatus(r.Context(), services.ModerationListCommand{
		Status: status,
		Params: params,
	})
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "unable to list products")
		return
	}

	items := make([]services.PricedProduct, 0, len(page.Items))
	for _, product := range page.Items {
		priced := services.PricedProduct{Product: product}
		if product.ApprovedPriceBreakdown != nil {
			priced.DeliveredPrice = product.ApprovedPriceBreakdown
		} else {
			preview := h.shipping.CalculateTotalPrice(r.Context(), services.TotalPriceCommand{
				BasePrice: product.Price,
				ShippingCostCommand: services.ShippingCostCommand{
					WeightGrams: product.WeightGrams,
					ServiceType: domain.ServiceTypeDomestic,
					Location:    product.Location,
				},
			})
			priced.DeliveredPrice = &preview
		}
		items = append(items, priced)
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": items,
		"pagination": map[string]any{
			"page":       params.Page,
			"limit":      params.Limit,
			"total":      page.Total,
			"totalPages": page.TotalPages,
		},
	})
}

type moderationRequest struct {
	Notes string `json:"notes"`
}

func (h *AdminCatalogHandlers) approveProduct(w http.ResponseWriter, r *http.Request) {
	notes, ok := h.moderationNotes(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.ApproveProduct(r.Context(), services.ApproveProductCommand{
		ProductID: chi.URLParam(r, "productID"),
		AdminID:   adminID(r),
		Notes:     notes,
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"product": product,
	})
}

func (h *AdminCatalogHandlers) rejectProduct(w http.ResponseWriter, r *http.Request) {
	notes, ok := h.moderationNotes(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.RejectProduct(r.Context(), services.RejectProductCommand{
		ProductID: chi.URLParam(r, "productID"),
		AdminID:   adminID(r),
		Notes:     notes,
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"product": product,
	})
}

// moderationNotes reads the optional decision notes. A missing body is fine;
// a malformed one is not.
func (h *AdminCatalogHandlers) moderationNotes(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req moderationRequest
	if err := decodeBody(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			return "", true
		}
		writeBodyError(w, err)
		return "", false
	}
	return req.Notes, true
}

func (h *AdminCatalogHandlers) shippingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reporting.ShippingSummary(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "unable to build shipping summary")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": summary,
	})
}

func (h *AdminCatalogHandlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reporting.MarketplaceStats(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "unable to build marketplace stats")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

func (h *AdminCatalogHandlers) auditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeFailure(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.system.ListAuditLogs(r.Context(), limit)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "unable to list audit logs")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"logs":    entries,
	})
}

func adminID(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity != nil {
		return identity.UserID
	}
	return ""
}
