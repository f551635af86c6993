package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/repositories"
)

type reportingService struct {
	products repositories.ProductRepository
	orders   repositories.OrderRepository
	shipping ShippingService
	clock    func() time.Time
}

// ReportingServiceDeps bundles constructor inputs for the admin reporting service.
type ReportingServiceDeps struct {
	Products repositories.ProductRepository
	Orders   repositories.OrderRepository
	Shipping ShippingService
	Clock    func() time.Time
}

// NewReportingService assembles the admin dashboard aggregations.
func NewReportingService(deps ReportingServiceDeps) (AdminReportingService, error) {
	if deps.Products == nil {
		return nil, errors.New("reporting service: product repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("reporting service: order repository is required")
	}
	if deps.Shipping == nil {
		return nil, errors.New("reporting service: shipping service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &reportingService{
		products: deps.Products,
		orders:   deps.Orders,
		shipping: deps.Shipping,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

// ShippingSummary scans the approved catalogue and prices every product with
// its own weight and location. Products without location or state are counted
// in the totals but skipped in the state histogram; partial data never fails
// the whole aggregation.
func (s *reportingService) ShippingSummary(ctx context.Context) (ShippingSummary, error) {
	products, err := s.products.ListApproved(ctx)
	if err != nil {
		return ShippingSummary{}, err
	}

	summary := ShippingSummary{
		ByWeightCategory: make(map[string]int),
		ByState:          make(map[string]int),
	}

	for _, product := range products {
		price := s.shipping.CalculateTotalPrice(ctx, TotalPriceCommand{
			BasePrice: product.Price,
			ShippingCostCommand: ShippingCostCommand{
				WeightGrams: product.WeightGrams,
				ServiceType: domain.ServiceTypeDomestic,
				Location:    product.Location,
			},
		})

		summary.ProductCount++
		summary.TotalBasePrice += product.Price
		summary.TotalShippingCost += float64(price.ShippingCost)
		summary.TotalCustomerPrice += price.TotalPrice

		if breakdown := price.Breakdown.Shipping.Breakdown; breakdown != nil {
			summary.ByWeightCategory[breakdown.WeightCategory]++
		}
		if product.Location != nil && product.Location.State != "" {
			summary.ByState[product.Location.State]++
		}
	}

	if summary.ProductCount > 0 {
		summary.AverageShippingCost = round2(summary.TotalShippingCost / float64(summary.ProductCount))
	}
	summary.TotalBasePrice = round2(summary.TotalBasePrice)
	summary.TotalCustomerPrice = round2(summary.TotalCustomerPrice)

	return summary, nil
}

// MarketplaceStats collects the dashboard headline counts and revenue totals.
func (s *reportingService) MarketplaceStats(ctx context.Context) (MarketplaceStats, error) {
	productCounts, err := s.products.CountByStatus(ctx)
	if err != nil {
		return MarketplaceStats{}, err
	}

	orderCounts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return MarketplaceStats{}, err
	}

	revenue, err := s.orders.RevenueTotals(ctx, domain.RevenueStatuses())
	if err != nil {
		return MarketplaceStats{}, err
	}

	return MarketplaceStats{
		ProductCounts: productCounts,
		OrderCounts:   orderCounts,
		Revenue:       revenue,
		GeneratedAt:   s.clock(),
	}, nil
}
