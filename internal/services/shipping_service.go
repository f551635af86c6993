package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/platform/config"
)

// rateTier is one weight band. minGrams is the band's lower bound; the lookup
// picks the largest lower bound that does not exceed the weight, so exactly
// 50g lands in the 50g tier, not the 0g tier.
type rateTier struct {
	minGrams float64
	rate     float64
	label    string
}

var domesticRates = []rateTier{
	{0, 25, "Up to 50g"},
	{50, 40, "51g to 100g"},
	{100, 60, "101g to 250g"},
	{250, 80, "251g to 500g"},
	{500, 120, "501g to 1kg"},
	{1000, 200, "1kg to 2kg"},
	{2000, 300, "2kg to 3kg"},
	{3000, 400, "3kg to 4kg"},
	{4000, 500, "4kg to 5kg"},
}

var expressRates = []rateTier{
	{0, 50, "Up to 50g"},
	{50, 80, "51g to 100g"},
	{100, 120, "101g to 250g"},
	{250, 160, "251g to 500g"},
	{500, 240, "501g to 1kg"},
	{1000, 400, "1kg to 2kg"},
	{2000, 600, "2kg to 3kg"},
	{3000, 800, "3kg to 4kg"},
	{4000, 1000, "4kg to 5kg"},
}

// surchargeBands map a distance ceiling in km to a flat charge. The first two
// bands deliberately carry the same charge.
var surchargeBands = []SurchargeBand{
	{MaxKm: 30, Surcharge: 10},
	{MaxKm: 200, Surcharge: 10},
	{MaxKm: 500, Surcharge: 20},
	{MaxKm: 1000, Surcharge: 40},
	{MaxKm: 2000, Surcharge: 60},
}

const maxDistanceSurcharge = 80

const earthRadiusKm = 6371

// haversineKm returns the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// ShippingEngineLogger is the minimal logging contract the engine needs.
type ShippingEngineLogger interface {
	Warnf(format string, args ...any)
}

type shippingEngine struct {
	hubLat         float64
	hubLon         float64
	commissionRate float64
	fallbackRate   float64
	errorBaseCost  float64
	geocoder       GeocodeResolver
	logger         ShippingEngineLogger
}

// ShippingEngineDeps bundles constructor inputs for the shipping engine.
type ShippingEngineDeps struct {
	Config   config.ShippingConfig
	Geocoder GeocodeResolver
	Logger   ShippingEngineLogger
}

// NewShippingEngine builds the cost engine from hub and commission settings.
// Geocoder may be nil, in which case ResolvePincode always reports no result.
func NewShippingEngine(deps ShippingEngineDeps) (ShippingService, error) {
	cfg := deps.Config
	if cfg.HubLatitude < -90 || cfg.HubLatitude > 90 {
		return nil, fmt.Errorf("shipping engine: hub latitude %v out of range", cfg.HubLatitude)
	}
	if cfg.HubLongitude < -180 || cfg.HubLongitude > 180 {
		return nil, fmt.Errorf("shipping engine: hub longitude %v out of range", cfg.HubLongitude)
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate >= 1 {
		return nil, fmt.Errorf("shipping engine: commission rate %v out of range", cfg.CommissionRate)
	}

	fallback := float64(cfg.FallbackRate)
	if fallback <= 0 {
		fallback = 25
	}
	errorBase := float64(cfg.ErrorBaseCost)
	if errorBase <= 0 {
		errorBase = 50
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopShippingLogger{}
	}

	return &shippingEngine{
		hubLat:         cfg.HubLatitude,
		hubLon:         cfg.HubLongitude,
		commissionRate: cfg.CommissionRate,
		fallbackRate:   fallback,
		errorBaseCost:  errorBase,
		geocoder:       deps.Geocoder,
		logger:         logger,
	}, nil
}

func ratesFor(serviceType ServiceType) []rateTier {
	if serviceType == domain.ServiceTypeExpress {
		return expressRates
	}
	return domesticRates
}

// baseRate finds the largest tier lower bound that is <= weight.
func (e *shippingEngine) baseRate(weightGrams float64, serviceType ServiceType) float64 {
	rate := e.fallbackRate
	found := false
	for _, tier := range ratesFor(serviceType) {
		if tier.minGrams <= weightGrams {
			rate = tier.rate
			found = true
		}
	}
	if !found {
		return e.fallbackRate
	}
	return rate
}

// weightCategory returns the display label for a weight. Labels categorise by
// upper bound (<=), so exactly 50g reads "Up to 50g" even though the rate
// lookup charges it at the 50g tier. The pricing snapshots persisted on
// approved products depend on this pairing staying as is.
func weightCategory(weightGrams float64) string {
	switch {
	case weightGrams <= 50:
		return "Up to 50g"
	case weightGrams <= 100:
		return "51g to 100g"
	case weightGrams <= 250:
		return "101g to 250g"
	case weightGrams <= 500:
		return "251g to 500g"
	case weightGrams <= 1000:
		return "501g to 1kg"
	case weightGrams <= 2000:
		return "1kg to 2kg"
	case weightGrams <= 3000:
		return "2kg to 3kg"
	case weightGrams <= 4000:
		return "3kg to 4kg"
	default:
		return "4kg to 5kg"
	}
}

func surchargeFor(distanceKm float64) float64 {
	for _, band := range surchargeBands {
		if distanceKm <= band.MaxKm {
			return band.Surcharge
		}
	}
	return maxDistanceSurcharge
}

// CalculateShippingCost produces a full quote. It never fails: malformed
// inputs collapse to a flagged safe-default result so listing and checkout
// flows always render a number.
func (e *shippingEngine) CalculateShippingCost(ctx context.Context, cmd ShippingCostCommand) ShippingCostResult {
	serviceType := cmd.ServiceType
	if serviceType == "" {
		serviceType = domain.ServiceTypeDomestic
	}

	if math.IsNaN(cmd.WeightGrams) || math.IsInf(cmd.WeightGrams, 0) || cmd.WeightGrams < 0 {
		return e.safeDefault(cmd.WeightGrams, serviceType, "invalid weight")
	}

	baseCost := e.baseRate(cmd.WeightGrams, serviceType)

	var surcharge float64
	var distanceKm *float64
	if cmd.Location.HasCoordinates() {
		d := haversineKm(e.hubLat, e.hubLon, cmd.Location.Latitude, cmd.Location.Longitude)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return e.safeDefault(cmd.WeightGrams, serviceType, "invalid coordinates")
		}
		// Banding uses the raw distance; only the reported figure is rounded,
		// so a point a few metres past a band edge still pays the higher band.
		surcharge = surchargeFor(d)
		rounded := math.Round(d*100) / 100
		distanceKm = &rounded
	}

	total := int(math.Round(baseCost + surcharge))
	return ShippingCostResult{
		BaseCost:          baseCost,
		DistanceSurcharge: surcharge,
		DistanceKm:        distanceKm,
		TotalCost:         total,
		Weight:            cmd.WeightGrams,
		ServiceType:       serviceType,
		Breakdown: &ShippingBreakdown{
			WeightCategory: weightCategory(cmd.WeightGrams),
			BaseRate:       baseCost,
			DistanceCharge: surcharge,
			DistanceKm:     distanceKm,
			Total:          baseCost + surcharge,
		},
	}
}

func (e *shippingEngine) safeDefault(weight float64, serviceType ServiceType, reason string) ShippingCostResult {
	e.logger.Warnf("shipping cost fell back to default: %s", reason)
	return ShippingCostResult{
		BaseCost:          e.errorBaseCost,
		DistanceSurcharge: 0,
		TotalCost:         int(math.Round(e.errorBaseCost)),
		Weight:            weight,
		ServiceType:       serviceType,
		Error:             "Unable to calculate shipping cost",
	}
}

// CalculateTotalPrice composes base price, shipping, and commission.
// Validation of negative/missing inputs happens at the API boundary; the
// composer assumes sane numbers and still degrades via the engine's safe default.
func (e *shippingEngine) CalculateTotalPrice(ctx context.Context, cmd TotalPriceCommand) PriceBreakdown {
	shipping := e.CalculateShippingCost(ctx, cmd.ShippingCostCommand)
	commission := round2(cmd.BasePrice * e.commissionRate)
	total := round2(cmd.BasePrice + float64(shipping.TotalCost) + commission)
	return PriceBreakdown{
		BasePrice:    cmd.BasePrice,
		ShippingCost: shipping.TotalCost,
		Commission:   commission,
		TotalPrice:   total,
		Breakdown: domain.PriceBreakdownDetail{
			ProductPrice: cmd.BasePrice,
			Shipping:     shipping,
			Commission:   commission,
			Total:        total,
		},
	}
}

// ResolvePincode resolves a postal code through the configured geocoder.
// Returns (nil, nil) when the code cannot be resolved.
func (e *shippingEngine) ResolvePincode(ctx context.Context, pincode string) (*Location, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return nil, errors.New("shipping engine: pincode is required")
	}
	if e.geocoder == nil {
		return nil, nil
	}
	return e.geocoder.Resolve(ctx, pincode)
}

// Rates returns the published rate card for display.
func (e *shippingEngine) Rates() RateCard {
	return RateCard{
		Domestic:           exportTiers(domesticRates),
		Express:            exportTiers(expressRates),
		DistanceSurcharges: append([]SurchargeBand(nil), surchargeBands...),
		CommissionRate:     e.commissionRate,
		Hub: map[string]float64{
			"latitude":  e.hubLat,
			"longitude": e.hubLon,
		},
	}
}

func exportTiers(tiers []rateTier) []RateTier {
	out := make([]RateTier, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, RateTier{
			Label:    tier.label,
			MinGrams: tier.minGrams,
			Rate:     tier.rate,
		})
	}
	return out
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

type noopShippingLogger struct{}

func (noopShippingLogger) Warnf(string, ...any) {}

