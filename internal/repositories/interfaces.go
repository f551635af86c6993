package repositories

import (
	"context"

	domain "github.com/indicrafts/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter narrows and pages product listings.
type ProductListFilter struct {
	Status domain.ApprovalStatus
	Offset int
	Limit  int
}

// ProductPage bundles one page of products with the total count matching the filter.
type ProductPage struct {
	Items []domain.Product
	Total int
}

// ProductRepository persists marketplace products.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	ListByStatus(ctx context.Context, filter ProductListFilter) (ProductPage, error)
	ListApproved(ctx context.Context) ([]domain.Product, error)
	CountByStatus(ctx context.Context) (map[domain.ApprovalStatus]int, error)
}

// OrderRevenue aggregates money flows over revenue-bearing orders.
type OrderRevenue struct {
	OrderCount      int
	TotalRevenue    float64
	TotalCommission float64
	TotalShipping   float64
}

// OrderRepository reads marketplace orders for admin reporting.
type OrderRepository interface {
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	RevenueTotals(ctx context.Context, statuses []domain.OrderStatus) (OrderRevenue, error)
}

// AuditLogRepository persists admin moderation audit entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// HealthRepository surfaces dependency health for readiness probes.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
