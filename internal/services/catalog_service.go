package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals bad listing data such as a missing name or non-positive price.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrProductNotFound is returned when the requested product does not exist.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrProductNotPending is returned when a moderation decision targets a product
	// that has already been decided.
	ErrProductNotPending = errors.New("catalog: product is not pending review")
)

// CatalogLogger is the logging contract the catalog service needs.
type CatalogLogger interface {
	Warnf(format string, args ...any)
}

type catalogService struct {
	products  repositories.ProductRepository
	shipping  ShippingService
	geocoder  GeocodeResolver
	audit     AuditLogService
	publisher ApprovalEventPublisher
	logger    CatalogLogger
	idGen     func() string
	clock     func() time.Time
	sanitizer *bluemonday.Policy
}

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products  repositories.ProductRepository
	Shipping  ShippingService
	Geocoder  GeocodeResolver
	Audit     AuditLogService
	Publisher ApprovalEventPublisher
	Logger    CatalogLogger
	IDGen     func() string
	Clock     func() time.Time
}

// NewCatalogService wires the listing lifecycle: producer submissions, the
// public catalogue, and the admin moderation queue. Publisher and Geocoder are
// optional; their absence disables approval events and pincode resolution.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Shipping == nil {
		return nil, errors.New("catalog service: shipping service is required")
	}
	if deps.Audit == nil {
		return nil, errors.New("catalog service: audit log service is required")
	}

	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopAuditLogger{}
	}

	return &catalogService{
		products:  deps.Products,
		shipping:  deps.Shipping,
		geocoder:  deps.Geocoder,
		audit:     deps.Audit,
		publisher: deps.Publisher,
		logger:    logger,
		idGen:     idGen,
		clock:     func() time.Time { return clock().UTC() },
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// CreateProduct validates and stores a producer listing in pending state.
// Pincode resolution is best effort; an unresolvable pincode produces a
// listing without coordinates, not an error.
func (s *catalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (Product, error) {
	name := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Name))
	if name == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if cmd.Price <= 0 {
		return Product{}, fmt.Errorf("%w: price must be positive", ErrCatalogInvalidInput)
	}
	if cmd.WeightGrams <= 0 {
		return Product{}, fmt.Errorf("%w: weight must be positive", ErrCatalogInvalidInput)
	}
	if cmd.Quantity < 0 {
		return Product{}, fmt.Errorf("%w: quantity cannot be negative", ErrCatalogInvalidInput)
	}
	if strings.TrimSpace(cmd.ProducerID) == "" {
		return Product{}, fmt.Errorf("%w: producer id is required", ErrCatalogInvalidInput)
	}

	var location *domain.Location
	if pincode := strings.TrimSpace(cmd.Pincode); pincode != "" && s.geocoder != nil {
		resolved, err := s.geocoder.Resolve(ctx, pincode)
		if err != nil {
			s.logger.Warnf("pincode resolution failed for new listing: %v", err)
		}
		location = resolved
	}

	now := s.clock()
	product := Product{
		ID:             s.idGen(),
		Name:           name,
		Description:    strings.TrimSpace(s.sanitizer.Sanitize(cmd.Description)),
		Price:          cmd.Price,
		Category:       strings.TrimSpace(cmd.Category),
		ImageURL:       strings.TrimSpace(cmd.ImageURL),
		InStock:        cmd.Quantity > 0,
		Quantity:       cmd.Quantity,
		ProducerID:     strings.TrimSpace(cmd.ProducerID),
		ProducerName:   strings.TrimSpace(s.sanitizer.Sanitize(cmd.ProducerName)),
		WeightGrams:    cmd.WeightGrams,
		Location:       location,
		ApprovalStatus: domain.ApprovalStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// ListApproved returns one page of the public catalogue. When a customer
// location is supplied each product is annotated with its delivered price.
func (s *catalogService) ListApproved(ctx context.Context, cmd ListApprovedCommand) (ProductListing, error) {
	page, err := s.products.ListByStatus(ctx, repositories.ProductListFilter{
		Status: domain.ApprovalStatusApproved,
		Offset: cmd.Params.Offset(),
		Limit:  cmd.Params.Limit,
	})
	if err != nil {
		return ProductListing{}, err
	}

	items := make([]PricedProduct, 0, len(page.Items))
	for _, product := range page.Items {
		priced := PricedProduct{Product: product}
		if cmd.CustomerLocation.HasCoordinates() {
			breakdown := s.shipping.CalculateTotalPrice(ctx, TotalPriceCommand{
				BasePrice: product.Price,
				ShippingCostCommand: ShippingCostCommand{
					WeightGrams: product.WeightGrams,
					ServiceType: domain.ServiceTypeDomestic,
					Location:    cmd.CustomerLocation,
				},
			})
			priced.DeliveredPrice = &breakdown
		}
		items = append(items, priced)
	}

	return ProductListing{
		Items:      items,
		Total:      page.Total,
		TotalPages: cmd.Params.TotalPages(page.Total),
	}, nil
}

// GetProduct loads a single product.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.translate(err)
	}
	return product, nil
}

// ListByStatus pages the admin moderation queue.
func (s *catalogService) ListByStatus(ctx context.Context, cmd ModerationListCommand) (ModerationPage, error) {
	page, err := s.products.ListByStatus(ctx, repositories.ProductListFilter{
		Status: cmd.Status,
		Offset: cmd.Params.Offset(),
		Limit:  cmd.Params.Limit,
	})
	if err != nil {
		return ModerationPage{}, err
	}
	return ModerationPage{
		Items:      page.Items,
		Total:      page.Total,
		TotalPages: cmd.Params.TotalPages(page.Total),
	}, nil
}

// ApproveProduct moves a pending product to approved and pins the pricing
// that was current at decision time. The snapshot is never recomputed when
// rate tables or hub configuration change later.
func (s *catalogService) ApproveProduct(ctx context.Context, cmd ApproveProductCommand) (Product, error) {
	product, err := s.loadPending(ctx, cmd.ProductID)
	if err != nil {
		return Product{}, err
	}

	breakdown := s.shipping.CalculateTotalPrice(ctx, TotalPriceCommand{
		BasePrice: product.Price,
		ShippingCostCommand: ShippingCostCommand{
			WeightGrams: product.WeightGrams,
			ServiceType: domain.ServiceTypeDomestic,
			Location:    product.Location,
		},
	})

	now := s.clock()
	finalPrice := breakdown.TotalPrice
	product.ApprovalStatus = domain.ApprovalStatusApproved
	product.ApprovalNotes = strings.TrimSpace(cmd.Notes)
	product.ApprovedAt = &now
	product.ApprovedBy = strings.TrimSpace(cmd.AdminID)
	product.ApprovedFinalPrice = &finalPrice
	product.ApprovedPriceBreakdown = &breakdown
	product.UpdatedAt = now

	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, s.translate(err)
	}

	s.audit.Record(ctx, AuditLogRecord{
		Action:    "product.approve",
		ActorID:   product.ApprovedBy,
		ProductID: product.ID,
		Notes:     product.ApprovalNotes,
		Detail: map[string]any{
			"finalPrice":   finalPrice,
			"shippingCost": breakdown.ShippingCost,
			"commission":   breakdown.Commission,
		},
	})

	s.publishApproval(ctx, product, breakdown, now)

	return product, nil
}

// RejectProduct moves a pending product to rejected with the admin's notes.
func (s *catalogService) RejectProduct(ctx context.Context, cmd RejectProductCommand) (Product, error) {
	product, err := s.loadPending(ctx, cmd.ProductID)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	product.ApprovalStatus = domain.ApprovalStatusRejected
	product.ApprovalNotes = strings.TrimSpace(cmd.Notes)
	product.ApprovedAt = nil
	product.ApprovedBy = strings.TrimSpace(cmd.AdminID)
	product.UpdatedAt = now

	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, s.translate(err)
	}

	s.audit.Record(ctx, AuditLogRecord{
		Action:    "product.reject",
		ActorID:   product.ApprovedBy,
		ProductID: product.ID,
		Notes:     product.ApprovalNotes,
	})

	return product, nil
}

func (s *catalogService) loadPending(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.translate(err)
	}
	if product.ApprovalStatus != domain.ApprovalStatusPending {
		return Product{}, fmt.Errorf("%w: %s is %s", ErrProductNotPending, product.ID, product.ApprovalStatus)
	}
	return product, nil
}

// publishApproval emits the downstream event. Failures are logged, not
// surfaced; the moderation decision has already been persisted.
func (s *catalogService) publishApproval(ctx context.Context, product Product, breakdown PriceBreakdown, approvedAt time.Time) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.PublishProductApproved(ctx, ProductApprovedMessage{
		EventID:      s.idGen(),
		ProductID:    product.ID,
		ProducerID:   product.ProducerID,
		ProductName:  product.Name,
		FinalPrice:   breakdown.TotalPrice,
		ShippingCost: float64(breakdown.ShippingCost),
		Commission:   breakdown.Commission,
		ApprovedBy:   product.ApprovedBy,
		ApprovedAt:   approvedAt,
	})
	if err != nil {
		s.logger.Warnf("approval event publish failed for %s: %v", product.ID, err)
	}
}

func (s *catalogService) translate(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrProductNotFound, err)
	}
	return err
}
