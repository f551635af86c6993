package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/platform/auth"
	"github.com/indicrafts/api/internal/platform/config"
	"github.com/indicrafts/api/internal/services"
)

type stubCatalogService struct {
	page      services.ModerationPage
	listCmd   services.ModerationListCommand
	listErr   error
	decided   services.Product
	decideErr error

	approveCmd services.ApproveProductCommand
	rejectCmd  services.RejectProductCommand
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.CreateProductCommand) (services.Product, error) {
	return services.Product{}, errors.New("not implemented")
}

func (s *stubCatalogService) ListApproved(ctx context.Context, cmd services.ListApprovedCommand) (services.ProductListing, error) {
	return services.ProductListing{}, errors.New("not implemented")
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (services.Product, error) {
	return services.Product{}, errors.New("not implemented")
}

func (s *stubCatalogService) ListByStatus(ctx context.Context, cmd services.ModerationListCommand) (services.ModerationPage, error) {
	s.listCmd = cmd
	return s.page, s.listErr
}

func (s *stubCatalogService) ApproveProduct(ctx context.Context, cmd services.ApproveProductCommand) (services.Product, error) {
	s.approveCmd = cmd
	return s.decided, s.decideErr
}

func (s *stubCatalogService) RejectProduct(ctx context.Context, cmd services.RejectProductCommand) (services.Product, error) {
	s.rejectCmd = cmd
	return s.decided, s.decideErr
}

type stubReportingService struct {
	summary services.ShippingSummary
	stats   services.MarketplaceStats
	err     error
}

func (s *stubReportingService) ShippingSummary(ctx context.Context) (services.ShippingSummary, error) {
	return s.summary, s.err
}

func (s *stubReportingService) MarketplaceStats(ctx context.Context) (services.MarketplaceStats, error) {
	return s.stats, s.err
}

type stubSystemService struct {
	entries []services.AuditLogEntry
	limit   int
	err     error
}

func (s *stubSystemService) HealthReport(ctx context.Context) (services.SystemHealthReport, error) {
	return services.SystemHealthReport{}, errors.New("not implemented")
}

func (s *stubSystemService) ListAuditLogs(ctx context.Context, limit int) ([]services.AuditLogEntry, error) {
	s.limit = limit
	return s.entries, s.err
}

func newAdminEngine(t *testing.T) services.ShippingService {
	t.Helper()
	engine, err := services.NewShippingEngine(services.ShippingEngineDeps{
		Config: config.ShippingConfig{
			HubLatitude:    22.3149,
			HubLongitude:   87.3105,
			CommissionRate: 0.05,
		},
	})
	if err != nil {
		t.Fatalf("NewShippingEngine: %v", err)
	}
	return engine
}

func newAdminRouter(t *testing.T, catalog *stubCatalogService, reporting *stubReportingService, system *stubSystemService) http.Handler {
	t.Helper()
	handlers := NewAdminCatalogHandlers(catalog, newAdminEngine(t), reporting, system)
	r := chi.NewRouter()
	r.Route("/admin", handlers.Routes)
	return r
}

func adminRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := auth.WithIdentity(req.Context(), &auth.Identity{UserID: "admin-1", Role: "admin"})
	return req.WithContext(ctx)
}

func TestAdminListProductsAnnotatesPrices(t *testing.T) {
	snapshot := &domain.PriceBreakdown{BasePrice: 900, TotalPrice: 990}
	catalog := &stubCatalogService{
		page: services.ModerationPage{
			Items: []services.Product{
				{
					ID:                     "prod-approved",
					Price:                  900,
					WeightGrams:            100,
					ApprovalStatus:         domain.ApprovalStatusApproved,
					ApprovedPriceBreakdown: snapshot,
				},
				{
					ID:             "prod-pending",
					Price:          1000,
					WeightGrams:    30,
					ApprovalStatus: domain.ApprovalStatusPending,
				},
			},
			Total:      2,
			TotalPages: 1,
		},
	}
	router := newAdminRouter(t, catalog, &stubReportingService{}, &stubSystemService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodGet, "/admin/products?status=pending&page=1&limit=10", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if catalog.listCmd.Status != domain.ApprovalStatusPending {
		t.Fatalf("expected pending filter, got %q", catalog.listCmd.Status)
	}
	if catalog.listCmd.Params.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", catalog.listCmd.Params.Limit)
	}

	var body struct {
		Success  bool `json:"success"`
		Products []struct {
			ID        string                 `json:"id"`
			Breakdown *domain.PriceBreakdown `json:"priceBreakdown"`
		} `json:"products"`
		Pagination struct {
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || len(body.Products) != 2 {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if body.Products[0].Breakdown == nil || body.Products[0].Breakdown.TotalPrice != 990 {
		t.Fatalf("expected persisted snapshot, got %+v", body.Products[0].Breakdown)
	}
	// Pending listing without a location: base 1000, shipping 25, commission 50.
	if body.Products[1].Breakdown == nil || body.Products[1].Breakdown.TotalPrice != 1075 {
		t.Fatalf("expected live preview total 1075, got %+v", body.Products[1].Breakdown)
	}
	if body.Pagination.Total != 2 || body.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected pagination %+v", body.Pagination)
	}
}

func TestAdminListProductsRejectsUnknownStatus(t *testing.T) {
	router := newAdminRouter(t, &stubCatalogService{}, &stubReportingService{}, &stubSystemService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodGet, "/admin/products?status=archived", ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAdminApproveProduct(t *testing.T) {
	catalog := &stubCatalogService{
		decided: services.Product{ID: "prod-1", ApprovalStatus: domain.ApprovalStatusApproved},
	}
	router := newAdminRouter(t, catalog, &stubReportingService{}, &stubSystemService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodPost, "/admin/products/prod-1/approve", `{"notes": "looks good"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if catalog.approveCmd.ProductID != "prod-1" {
		t.Fatalf("unexpected product id %q", catalog.approveCmd.ProductID)
	}
	if catalog.approveCmd.AdminID != "admin-1" {
		t.Fatalf("expected admin identity, got %q", catalog.approveCmd.AdminID)
	}
	if catalog.approveCmd.Notes != "looks good" {
		t.Fatalf("unexpected notes %q", catalog.approveCmd.Notes)
	}
}

func TestAdminApproveWithoutBody(t *testing.T) {
	catalog := &stubCatalogService{decided: services.Product{ID: "prod-1"}}
	router := newAdminRouter(t, catalog, &stubReportingService{}, &stubSystemService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodPost, "/admin/products/prod-1/approve", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty body, got %d: %s", rr.Code, rr.Body.String())
	}
	if catalog.approveCmd.Notes != "" {
		t.Fatalf("expected empty notes, got %q", catalog.approveCmd.Notes)
	}
}

func TestAdminRejectErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "missing", err: services.ErrProductNotFound, status: http.StatusNotFound},
		{name: "already decided", err: services.ErrProductNotPending, status: http.StatusConflict},
		{name: "backend failure", err: errors.New("firestore down"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := &stubCatalogService{decideErr: tc.err}
			router := newAdminRouter(t, catalog, &stubReportingService{}, &stubSystemService{})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, adminRequest(http.MethodPost, "/admin/products/prod-9/reject", `{"notes": "no"}`))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}

			var body struct {
				Success bool `json:"success"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Success {
				t.Fatal("expected success=false")
			}
		})
	}
}

func TestAdminShippingSummary(t *testing.T) {
	reporting := &stubReportingService{
		summary: services.ShippingSummary{
			ProductCount:        2,
			TotalShippingCost:   235,
			AverageShippingCost: 117.5,
			ByWeightCategory:    map[string]int{"Up to 50g": 1, "1kg to 2kg": 1},
		},
	}
	router := newAdminRouter(t, &stubCatalogService{}, reporting, &stubSystemService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodGet, "/admin/shipping-summary", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Success bool                   `json:"success"`
		Summary domain.ShippingSummary `json:"summary"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || body.Summary.ProductCount != 2 || body.Summary.AverageShippingCost != 117.5 {
		t.Fatalf("unexpected summary %+v", body.Summary)
	}
}

func TestAdminStats(t *testing.T) {
	reporting := &stubReportingService{
		stats: services.MarketplaceStats{
			ProductCounts: map[domain.ApprovalStatus]int{domain.ApprovalStatusPending: 3},
			GeneratedAt:   time.Date(2025, 5, 6, 12, 0, 0, 0, time.UTC),
		},
	}
	router := newAdminRouter(t, &stubCatalogService{}, reporting, &stubSystemService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodGet, "/admin/stats", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Stats   struct {
			ProductCounts map[string]int `json:"productCounts"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || body.Stats.ProductCounts["pending"] != 3 {
		t.Fatalf("unexpected stats %s", rr.Body.String())
	}
}

func TestAdminAuditLogs(t *testing.T) {
	system := &stubSystemService{
		entries: []services.AuditLogEntry{{ID: "log-1", Action: "product.approve"}},
	}
	router := newAdminRouter(t, &stubCatalogService{}, &stubReportingService{}, system)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodGet, "/admin/audit-logs?limit=5", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if system.limit != 5 {
		t.Fatalf("expected limit 5, got %d", system.limit)
	}

	var body struct {
		Success bool `json:"success"`
		Logs    []struct {
			Action string `json:"action"`
		} `json:"logs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || len(body.Logs) != 1 || body.Logs[0].Action != "product.approve" {
		t.Fatalf("unexpected logs %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodGet, "/admin/audit-logs?limit=abc", ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}
}
