package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/services"
)

// ShippingHandlers exposes the shipping cost and pricing preview endpoints.
type ShippingHandlers struct {
	shipping services.ShippingService
}

// NewShippingHandlers constructs handlers backed by the shipping service.
func NewShippingHandlers(shipping services.ShippingService) *ShippingHandlers {
	return &ShippingHandlers{shipping: shipping}
}

// Routes wires the /shipping endpoints onto the provided router.
func (h *ShippingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/calculate", h.calculate)
	r.Post("/total-price", h.totalPrice)
	r.Post("/customer-shipping", h.customerShipping)
	r.Post("/customer-total-price", h.customerTotalPrice)
	r.Get("/rates", h.rates)
	r.Post("/geocode", h.geocode)
}

type shippingCostRequest struct {
	Weight      *float64         `json:"weight"`
	BasePrice   *float64         `json:"basePrice"`
	ServiceType string           `json:"serviceType"`
	Location    *domain.Location `json:"location"`

	// Customer-side variants carry the location under a different key.
	CustomerLocation *domain.Location `json:"customerLocation"`
}

// calculate quotes shipping for a weight and optional producer location.
func (h *ShippingHandlers) calculate(w http.ResponseWriter, r *http.Request) {
	var req shippingCostRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if !validWeight(req.Weight) {
		writeFailure(w, http.StatusBadRequest, "weight is required and must be a positive number")
		return
	}

	result := h.shipping.CalculateShippingCost(r.Context(), services.ShippingCostCommand{
		WeightGrams: *req.Weight,
		ServiceType: domain.ParseServiceType(req.ServiceType),
		Location:    req.Location,
	})
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":      true,
		"shippingCost": result,
	})
}

// totalPrice composes base price, shipping, and commission for a producer listing.
func (h *ShippingHandlers) totalPrice(w http.ResponseWriter, r *http.Request) {
	var req shippingCostRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if !validWeight(req.Weight) {
		writeFailure(w, http.StatusBadRequest, "weight is required and must be a positive number")
		return
	}
	if !validBasePrice(req.BasePrice) {
		writeFailure(w, http.StatusBadRequest, "basePrice is required and must be a positive number")
		return
	}

	price := h.shipping.CalculateTotalPrice(r.Context(), services.TotalPriceCommand{
		BasePrice: *req.BasePrice,
		ShippingCostCommand: services.ShippingCostCommand{
			WeightGrams: *req.Weight,
			ServiceType: domain.ParseServiceType(req.ServiceType),
			Location:    req.Location,
		},
	})
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"totalPrice": price,
	})
}

// customerShipping quotes the hub-to-customer leg; coordinates are mandatory.
func (h *ShippingHandlers) customerShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingCostRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if !validWeight(req.Weight) {
		writeFailure(w, http.StatusBadRequest, "weight is required and must be a positive number")
		return
	}
	if !req.CustomerLocation.HasCoordinates() {
		writeFailure(w, http.StatusBadRequest, "customerLocation with latitude and longitude is required")
		return
	}

	result := h.shipping.CalculateShippingCost(r.Context(), services.ShippingCostCommand{
		WeightGrams: *req.Weight,
		ServiceType: domain.ParseServiceType(req.ServiceType),
		Location:    req.CustomerLocation,
	})
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":      true,
		"shippingCost": result,
	})
}

// customerTotalPrice composes the delivered price for a customer location.
func (h *ShippingHandlers) customerTotalPrice(w http.ResponseWriter, r *http.Request) {
	var req shippingCostRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if !validWeight(req.Weight) {
		writeFailure(w, http.StatusBadRequest, "weight is required and must be a positive number")
		return
	}
	if !validBasePrice(req.BasePrice) {
		writeFailure(w, http.StatusBadRequest, "basePrice is required and must be a positive number")
		return
	}
	if !req.CustomerLocation.HasCoordinates() {
		writeFailure(w, http.StatusBadRequest, "customerLocation with latitude and longitude is required")
		return
	}

	price := h.shipping.CalculateTotalPrice(r.Context(), services.TotalPriceCommand{
		BasePrice: *req.BasePrice,
		ShippingCostCommand: services.ShippingCostCommand{
			WeightGrams: *req.Weight,
			ServiceType: domain.ParseServiceType(req.ServiceType),
			Location:    req.CustomerLocation,
		},
	})
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"totalPrice": price,
	})
}

// rates dumps the static rate card for display.
func (h *ShippingHandlers) rates(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"rates":   h.shipping.Rates(),
	})
}

type geocodeRequest struct {
	Pincode string `json:"pincode"`
}

// geocode resolves an Indian postal code to coordinates. An unresolvable code
// is a 404, prompting the frontend to fall back to manual address entry.
func (h *ShippingHandlers) geocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if strings.TrimSpace(req.Pincode) == "" {
		writeFailure(w, http.StatusBadRequest, "pincode is required")
		return
	}

	location, err := h.shipping.ResolvePincode(r.Context(), req.Pincode)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if location == nil {
		writeFailure(w, http.StatusNotFound, "Location not found for this pincode; please enter the address manually")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"location": location,
	})
}

func validWeight(weight *float64) bool {
	return weight != nil && *weight > 0
}

func validBasePrice(basePrice *float64) bool {
	return basePrice != nil && *basePrice > 0
}
