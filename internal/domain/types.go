package domain

import (
	"strings"
	"time"
)

// ServiceType selects the shipping rate column applied to a shipment.
type ServiceType string

const (
	// ServiceTypeDomestic is the standard (default) service level.
	ServiceTypeDomestic ServiceType = "domestic"
	// ServiceTypeExpress is the faster, more expensive service level.
	ServiceTypeExpress ServiceType = "express"
)

// ParseServiceType normalises a client-supplied service type, falling back to domestic.
func ParseServiceType(value string) ServiceType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ServiceTypeExpress):
		return ServiceTypeExpress
	default:
		return ServiceTypeDomestic
	}
}

// Location is a resolved geographic point with best-effort address annotations.
// Only latitude/longitude are load-bearing; the remaining fields come from
// geocoding and may be empty. A Location is embedded in products and orders
// and is immutable once attached (replaced wholesale, never mutated).
type Location struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Address    string  `json:"address,omitempty"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	Country    string  `json:"country,omitempty"`
	PostalCode string  `json:"postalCode,omitempty"`
}

// HasCoordinates reports whether the location carries usable coordinates.
// Zero values are treated as missing, matching the falsy semantics of the
// clients that populate these fields.
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Latitude != 0 && l.Longitude != 0
}

// ApprovalStatus tracks a product through the admin moderation workflow.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus validates a status filter string.
func ParseApprovalStatus(value string) (ApprovalStatus, bool) {
	switch ApprovalStatus(strings.ToLower(strings.TrimSpace(value))) {
	case ApprovalStatusPending:
		return ApprovalStatusPending, true
	case ApprovalStatusApproved:
		return ApprovalStatusApproved, true
	case ApprovalStatusRejected:
		return ApprovalStatusRejected, true
	default:
		return "", false
	}
}

// Product is a producer listing. WeightGrams and Location feed the shipping
// pipeline; the Approved* fields are an immutable snapshot of the pricing
// that was current when an admin approved the listing.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price"`
	Category     string    `json:"category,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	InStock      bool      `json:"inStock"`
	Quantity     int       `json:"quantity"`
	ProducerID   string    `json:"producerId"`
	ProducerName string    `json:"producerName,omitempty"`
	WeightGrams  float64   `json:"weight"`
	Location     *Location `json:"location,omitempty"`

	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	ApprovalNotes  string         `json:"approvalNotes,omitempty"`
	ApprovedAt     *time.Time     `json:"approvedAt,omitempty"`
	ApprovedBy     string         `json:"approvedBy,omitempty"`

	// ApprovedFinalPrice and ApprovedPriceBreakdown pin the price that was
	// true at approval time. They are never recomputed when rate tables or
	// hub configuration change later.
	ApprovedFinalPrice     *float64        `json:"approvedFinalPrice,omitempty"`
	ApprovedPriceBreakdown *PriceBreakdown `json:"approvedPriceBreakdown,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// RevenueStatuses are the order states that count towards realised revenue.
func RevenueStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered}
}

// OrderItem is a priced line within an order. Prices are pinned at order
// creation; orders never re-run the pricing pipeline.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// ShippingAddress is the structured delivery address captured at checkout.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is a customer purchase with its commercials snapshot.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	Items           []OrderItem     `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CommissionBase  float64         `json:"commissionBase"`
	AdminCommission float64         `json:"adminCommission"`
	SellerPayout    float64         `json:"sellerPayout"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AuditLog records a moderation action for the admin trail.
type AuditLog struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actorId"`
	ProductID  string         `json:"productId,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
