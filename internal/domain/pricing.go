package domain

// ShippingCostResult is the full output of a shipping cost computation.
// TotalCost is rounded to a whole currency unit; Breakdown.Total keeps the
// raw sum for display. DistanceKm is nil when no usable location was
// supplied, in which case no distance surcharge applies.
type ShippingCostResult struct {
	BaseCost          float64            `json:"baseCost"`
	DistanceSurcharge float64            `json:"distanceSurcharge"`
	DistanceKm        *float64           `json:"distanceKm"`
	TotalCost         int                `json:"totalCost"`
	Weight            float64            `json:"weight"`
	ServiceType       ServiceType        `json:"serviceType"`
	Breakdown         *ShippingBreakdown `json:"breakdown,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// ShippingBreakdown itemises a shipping cost for display.
type ShippingBreakdown struct {
	WeightCategory string   `json:"weightCategory"`
	BaseRate       float64  `json:"baseRate"`
	DistanceCharge float64  `json:"distanceCharge"`
	DistanceKm     *float64 `json:"distanceKm"`
	Total          float64  `json:"total"`
}

// PriceBreakdown composes a base price, shipping, and platform commission
// into the final amount a counterparty sees.
type PriceBreakdown struct {
	BasePrice    float64              `json:"basePrice"`
	ShippingCost int                  `json:"shippingCost"`
	Commission   float64              `json:"commission"`
	TotalPrice   float64              `json:"totalPrice"`
	Breakdown    PriceBreakdownDetail `json:"breakdown"`
}

// PriceBreakdownDetail carries the nested display structure of a composed price.
type PriceBreakdownDetail struct {
	ProductPrice float64            `json:"productPrice"`
	Shipping     ShippingCostResult `json:"shipping"`
	Commission   float64            `json:"commission"`
	Total        float64            `json:"total"`
}

// ShippingSummary aggregates pricing across the approved catalogue for the
// admin dashboard.
type ShippingSummary struct {
	ProductCount        int            `json:"productCount"`
	TotalBasePrice      float64        `json:"totalBasePrice"`
	TotalShippingCost   float64        `json:"totalShippingCost"`
	TotalCustomerPrice  float64        `json:"totalCustomerPrice"`
	AverageShippingCost float64        `json:"averageShippingCost"`
	ByWeightCategory    map[string]int `json:"byWeightCategory"`
	ByState             map[string]int `json:"byState"`
}
