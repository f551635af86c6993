package services

import (
	"context"
	"time"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/platform/pagination"
	"github.com/indicrafts/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	ServiceType        = domain.ServiceType
	Location           = domain.Location
	Product            = domain.Product
	ApprovalStatus     = domain.ApprovalStatus
	ShippingCostResult = domain.ShippingCostResult
	ShippingBreakdown  = domain.ShippingBreakdown
	PriceBreakdown     = domain.PriceBreakdown
	ShippingSummary    = domain.ShippingSummary
	SystemHealthReport = domain.SystemHealthReport
	AuditLogEntry      = domain.AuditLog
)

// GeocodeResolver turns an Indian postal code into coordinates. A nil result
// with a nil error means the code could not be resolved; callers degrade to
// distance-free pricing rather than failing.
type GeocodeResolver interface {
	Resolve(ctx context.Context, postalCode string) (*domain.Location, error)
}

// ProductApprovedMessage is the payload published when an admin approves a listing.
type ProductApprovedMessage struct {
	EventID      string    `json:"eventId"`
	ProductID    string    `json:"productId"`
	ProducerID   string    `json:"producerId"`
	ProductName  string    `json:"productName"`
	FinalPrice   float64   `json:"finalPrice"`
	ShippingCost float64   `json:"shippingCost"`
	Commission   float64   `json:"commission"`
	ApprovedBy   string    `json:"approvedBy"`
	ApprovedAt   time.Time `json:"approvedAt"`
}

// ApprovalEventPublisher notifies downstream consumers of approval decisions.
type ApprovalEventPublisher interface {
	PublishProductApproved(ctx context.Context, message ProductApprovedMessage) (string, error)
}

// ShippingService computes shipping costs and composed prices.
type ShippingService interface {
	CalculateShippingCost(ctx context.Context, cmd ShippingCostCommand) ShippingCostResult
	CalculateTotalPrice(ctx context.Context, cmd TotalPriceCommand) PriceBreakdown
	ResolvePincode(ctx context.Context, pincode string) (*Location, error)
	Rates() RateCard
}

// ShippingCostCommand carries the inputs of one shipping quote. Location is
// the single counterparty leg (producer or customer); the engine measures it
// against the hub and never sums two legs.
type ShippingCostCommand struct {
	WeightGrams float64
	ServiceType ServiceType
	Location    *Location
}

// TotalPriceCommand composes a base price with shipping and commission.
type TotalPriceCommand struct {
	BasePrice float64
	ShippingCostCommand
}

// RateTier is one weight band of the rate card.
type RateTier struct {
	Label    string  `json:"label"`
	MinGrams float64 `json:"minGrams"`
	Rate     float64 `json:"rate"`
}

// RateCard is the full published rate structure.
type RateCard struct {
	Domestic           []RateTier         `json:"domestic"`
	Express            []RateTier         `json:"express"`
	DistanceSurcharges []SurchargeBand    `json:"distanceSurcharges"`
	CommissionRate     float64            `json:"commissionRate"`
	Hub                map[string]float64 `json:"hub"`
}

// SurchargeBand maps a distance ceiling in km to a flat surcharge.
type SurchargeBand struct {
	MaxKm     float64 `json:"maxKm"`
	Surcharge float64 `json:"surcharge"`
}

// CatalogService manages the producer listing lifecycle and the admin moderation queue.
type CatalogService interface {
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (Product, error)
	ListApproved(ctx context.Context, cmd ListApprovedCommand) (ProductListing, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListByStatus(ctx context.Context, cmd ModerationListCommand) (ModerationPage, error)
	ApproveProduct(ctx context.Context, cmd ApproveProductCommand) (Product, error)
	RejectProduct(ctx context.Context, cmd RejectProductCommand) (Product, error)
}

// CreateProductCommand carries a producer's new listing.
type CreateProductCommand struct {
	Name         string
	Description  string
	Price        float64
	Category     string
	ImageURL     string
	Quantity     int
	WeightGrams  float64
	Pincode      string
	ProducerID   string
	ProducerName string
}

// ListApprovedCommand pages the public catalogue, optionally annotating each
// product with a delivered price for the given customer location.
type ListApprovedCommand struct {
	CustomerLocation *Location
	Params           pagination.Params
}

// ProductListing is one page of the public catalogue with per-product pricing.
type ProductListing struct {
	Items      []PricedProduct
	Total      int
	TotalPages int
}

// PricedProduct pairs a product with the price breakdown computed for a
// specific customer location. DeliveredPrice is nil when no location was supplied.
type PricedProduct struct {
	Product
	DeliveredPrice *PriceBreakdown `json:"priceBreakdown,omitempty"`
}

// ModerationListCommand pages the admin moderation queue.
type ModerationListCommand struct {
	Status ApprovalStatus
	Params pagination.Params
}

// ModerationPage is one page of the moderation queue.
type ModerationPage struct {
	Items      []Product
	Total      int
	TotalPages int
}

// ApproveProductCommand records an admin approval decision.
type ApproveProductCommand struct {
	ProductID string
	AdminID   string
	Notes     string
}

// RejectProductCommand records an admin rejection.
type RejectProductCommand struct {
	ProductID string
	AdminID   string
	Notes     string
}

// AdminReportingService aggregates catalogue and order data for the dashboard.
type AdminReportingService interface {
	ShippingSummary(ctx context.Context) (ShippingSummary, error)
	MarketplaceStats(ctx context.Context) (MarketplaceStats, error)
}

// MarketplaceStats is the admin dashboard headline block.
type MarketplaceStats struct {
	ProductCounts map[domain.ApprovalStatus]int `json:"productCounts"`
	OrderCounts   map[domain.OrderStatus]int    `json:"orderCounts"`
	Revenue       repositories.OrderRevenue     `json:"revenue"`
	GeneratedAt   time.Time                     `json:"generatedAt"`
}

// SystemService aggregates utility endpoints (health checks, audit logs).
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
	ListAuditLogs(ctx context.Context, limit int) ([]AuditLogEntry, error)
}

// AuditLogService centralizes immutable audit log persistence and retrieval.
// Record never fails the caller; persistence errors are logged and dropped.
type AuditLogService interface {
	Record(ctx context.Context, record AuditLogRecord)
	ListRecent(ctx context.Context, limit int) ([]AuditLogEntry, error)
}

// AuditLogRecord is the write-side shape of an audit entry.
type AuditLogRecord struct {
	Action    string
	ActorID   string
	ProductID string
	Notes     string
	Detail    map[string]any
	ClientIP  string
}
