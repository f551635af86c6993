package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/platform/config"
	"github.com/indicrafts/api/internal/repositories"
)

type stubOrderRepo struct {
	counts   map[domain.OrderStatus]int
	revenue  repositories.OrderRevenue
	statuses []domain.OrderStatus
	err      error
}

func (s *stubOrderRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.counts, nil
}

func (s *stubOrderRepo) RevenueTotals(ctx context.Context, statuses []domain.OrderStatus) (repositories.OrderRevenue, error) {
	if s.err != nil {
		return repositories.OrderRevenue{}, s.err
	}
	s.statuses = statuses
	return s.revenue, nil
}

func newTestReporting(t *testing.T, products repositories.ProductRepository, orders repositories.OrderRepository) AdminReportingService {
	t.Helper()
	engine, err := NewShippingEngine(ShippingEngineDeps{
		Config: config.ShippingConfig{
			HubLatitude:    22.3149,
			HubLongitude:   87.3105,
			CommissionRate: 0.05,
		},
	})
	if err != nil {
		t.Fatalf("NewShippingEngine: %v", err)
	}
	svc, err := NewReportingService(ReportingServiceDeps{
		Products: products,
		Orders:   orders,
		Shipping: engine,
		Clock:    func() time.Time { return time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewReportingService: %v", err)
	}
	return svc
}

func TestShippingSummaryAggregates(t *testing.T) {
	repo := newMemoryProductRepo()
	ctx := context.Background()

	seed := []domain.Product{
		{
			ID:             "prod-1",
			Price:          1000,
			WeightGrams:    30,
			Location:       &domain.Location{Latitude: 22.3149, Longitude: 87.3105, State: "West Bengal"},
			ApprovalStatus: domain.ApprovalStatusApproved,
		},
		{
			ID:             "prod-2",
			Price:          500,
			WeightGrams:    1500,
			ApprovalStatus: domain.ApprovalStatusApproved,
		},
		{
			ID:             "prod-3",
			Price:          999,
			WeightGrams:    100,
			ApprovalStatus: domain.ApprovalStatusPending,
		},
	}
	for _, product := range seed {
		if err := repo.Insert(ctx, product); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	summary, err := newTestReporting(t, repo, &stubOrderRepo{}).ShippingSummary(ctx)
	if err != nil {
		t.Fatalf("ShippingSummary: %v", err)
	}

	if summary.ProductCount != 2 {
		t.Fatalf("expected 2 approved products, got %d", summary.ProductCount)
	}
	// prod-1: 25 base + 10 at-hub surcharge = 35. prod-2: 200 base, no location.
	if summary.TotalShippingCost != 235 {
		t.Fatalf("expected total shipping 235, got %v", summary.TotalShippingCost)
	}
	if summary.AverageShippingCost != 117.5 {
		t.Fatalf("expected average 117.5, got %v", summary.AverageShippingCost)
	}
	if summary.TotalBasePrice != 1500 {
		t.Fatalf("expected base total 1500, got %v", summary.TotalBasePrice)
	}
	if summary.ByWeightCategory["Up to 50g"] != 1 || summary.ByWeightCategory["1kg to 2kg"] != 1 {
		t.Fatalf("unexpected weight histogram %+v", summary.ByWeightCategory)
	}
	if summary.ByState["West Bengal"] != 1 || len(summary.ByState) != 1 {
		t.Fatalf("unexpected state histogram %+v", summary.ByState)
	}
}

func TestShippingSummaryEmptyCatalogue(t *testing.T) {
	summary, err := newTestReporting(t, newMemoryProductRepo(), &stubOrderRepo{}).ShippingSummary(context.Background())
	if err != nil {
		t.Fatalf("ShippingSummary: %v", err)
	}
	if summary.ProductCount != 0 || summary.AverageShippingCost != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestMarketplaceStats(t *testing.T) {
	repo := newMemoryProductRepo()
	ctx := context.Background()
	if err := repo.Insert(ctx, domain.Product{ID: "prod-1", ApprovalStatus: domain.ApprovalStatusPending}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	orders := &stubOrderRepo{
		counts: map[domain.OrderStatus]int{domain.OrderStatusPaid: 3},
		revenue: repositories.OrderRevenue{
			OrderCount:      3,
			TotalRevenue:    4500,
			TotalCommission: 225,
			TotalShipping:   300,
		},
	}

	stats, err := newTestReporting(t, repo, orders).MarketplaceStats(ctx)
	if err != nil {
		t.Fatalf("MarketplaceStats: %v", err)
	}

	if stats.ProductCounts[domain.ApprovalStatusPending] != 1 {
		t.Fatalf("unexpected product counts %+v", stats.ProductCounts)
	}
	if stats.Revenue.TotalRevenue != 4500 {
		t.Fatalf("unexpected revenue %+v", stats.Revenue)
	}
	if len(orders.statuses) != 3 {
		t.Fatalf("expected revenue statuses paid/shipped/delivered, got %+v", orders.statuses)
	}
	if stats.GeneratedAt.IsZero() {
		t.Fatal("expected generated timestamp")
	}
}

func TestMarketplaceStatsPropagatesErrors(t *testing.T) {
	orders := &stubOrderRepo{err: errors.New("unavailable")}
	if _, err := newTestReporting(t, newMemoryProductRepo(), orders).MarketplaceStats(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
