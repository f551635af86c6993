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

// ProductHandlers exposes the public catalogue and producer listing endpoints.
type ProductHandlers struct {
	catalog services.CatalogService
	authn   *auth.Middleware
}

// NewProductHandlers constructs the product handlers. The auth middleware is
// optional; without it the create endpoint is left unprotected, which is only
// acceptable in local development wiring.
func NewProductHandlers(catalog services.CatalogService, authn *auth.Middleware) *ProductHandlers {
	return &ProductHandlers{catalog: catalog, authn: authn}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Get("/{productID}", h.get)
	if h.authn != nil {
		r.With(h.authn.RequireRole("producer", "admin")).Post("/", h.create)
	} else {
		r.Post("/", h.create)
	}
}

// list serves the approved catalogue. Optional lat/lng query parameters
// switch on per-product delivered pricing for that customer position.
func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	customerLocation, err := locationFromQuery(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.catalog.ListApproved(r.Context(), services.ListApprovedCommand{
		CustomerLocation: customerLocation,
		Params:           params,
	})
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "unable to list products")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": listing.Items,
		"pagination": map[string]any{
			"page":       params.Page,
			"limit":      params.Limit,
			"total":      listing.Total,
			"totalPages": listing.TotalPages,
		},
	})
}

func (h *ProductHandlers) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"product": product,
	})
}

type createProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	Quantity    int      `json:"quantity"`
	Weight      *float64 `json:"weight"`
	Pincode     string   `json:"pincode"`
}

// create stores a new pending listing for the authenticated producer.
func (h *ProductHandlers) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok && h.authn != nil {
		writeFailure(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if !validBasePrice(req.Price) {
		writeFailure(w, http.StatusBadRequest, "price is required and must be a positive number")
		return
	}
	if !validWeight(req.Weight) {
		writeFailure(w, http.StatusBadRequest, "weight is required and must be a positive number")
		return
	}

	cmd := services.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Quantity:    req.Quantity,
		WeightGrams: *req.Weight,
		Pincode:     req.Pincode,
	}
	if identity != nil {
		cmd.ProducerID = identity.UserID
		cmd.ProducerName = identity.Name
	}

	product, err := h.catalog.CreateProduct(r.Context(), cmd)
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"success": true,
		"product": product,
	})
}

func locationFromQuery(r *http.Request) (*domain.Location, error) {
	latRaw := strings.TrimSpace(r.URL.Query().Get("lat"))
	lngRaw := strings.TrimSpace(r.URL.Query().Get("lng"))
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lngRaw == "" {
		return nil, errors.New("lat and lng must be supplied together")
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, errors.New("lat must be a number")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, errors.New("lng must be a number")
	}
	return &domain.Location{Latitude: lat, Longitude: lng}, nil
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrProductNotFound):
		writeFailure(w, http.StatusNotFound, "product not found")
	case errors.Is(err, services.ErrProductNotPending):
		writeFailure(w, http.StatusConflict, err.Error())
	default:
		writeFailure(w, http.StatusInternalServerError, "internal error")
	}
}
