package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/indicrafts/api/internal/domain"
	pfirestore "github.com/indicrafts/api/internal/platform/firestore"
	"github.com/indicrafts/api/internal/repositories"
)

const productCollection = "products"

// productDocument is the Firestore shape of a product listing.
type productDocument struct {
	Name         string           `firestore:"name"`
	Description  string           `firestore:"description"`
	Price        float64          `firestore:"price"`
	Category     string           `firestore:"category"`
	ImageURL     string           `firestore:"imageUrl"`
	InStock      bool             `firestore:"inStock"`
	Quantity     int              `firestore:"quantity"`
	ProducerID   string           `firestore:"producerId"`
	ProducerName string           `firestore:"producerName"`
	WeightGrams  float64          `firestore:"weight"`
	Location     *domain.Location `firestore:"location,omitempty"`

	ApprovalStatus string     `firestore:"approvalStatus"`
	ApprovalNotes  string     `firestore:"approvalNotes,omitempty"`
	ApprovedAt     *time.Time `firestore:"approvedAt,omitempty"`
	ApprovedBy     string     `firestore:"approvedBy,omitempty"`

	ApprovedFinalPrice     *float64               `firestore:"approvedFinalPrice,omitempty"`
	ApprovedPriceBreakdown *domain.PriceBreakdown `firestore:"approvedPriceBreakdown,omitempty"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func encodeProduct(product domain.Product) productDocument {
	return productDocument{
		Name:                   product.Name,
		Description:            product.Description,
		Price:                  product.Price,
		Category:               product.Category,
		ImageURL:               product.ImageURL,
		InStock:                product.InStock,
		Quantity:               product.Quantity,
		ProducerID:             product.ProducerID,
		ProducerName:           product.ProducerName,
		WeightGrams:            product.WeightGrams,
		Location:               product.Location,
		ApprovalStatus:         string(product.ApprovalStatus),
		ApprovalNotes:          product.ApprovalNotes,
		ApprovedAt:             product.ApprovedAt,
		ApprovedBy:             product.ApprovedBy,
		ApprovedFinalPrice:     product.ApprovedFinalPrice,
		ApprovedPriceBreakdown: product.ApprovedPriceBreakdown,
		CreatedAt:              product.CreatedAt,
		UpdatedAt:              product.UpdatedAt,
	}
}

func decodeProduct(snap *firestore.DocumentSnapshot) (domain.Product, error) {
	var doc productDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Product{}, pfirestore.WrapError("products.decode", err)
	}
	return domain.Product{
		ID:                     snap.Ref.ID,
		Name:                   doc.Name,
		Description:            doc.Description,
		Price:                  doc.Price,
		Category:               doc.Category,
		ImageURL:               doc.ImageURL,
		InStock:                doc.InStock,
		Quantity:               doc.Quantity,
		ProducerID:             doc.ProducerID,
		ProducerName:           doc.ProducerName,
		WeightGrams:            doc.WeightGrams,
		Location:               doc.Location,
		ApprovalStatus:         domain.ApprovalStatus(doc.ApprovalStatus),
		ApprovalNotes:          doc.ApprovalNotes,
		ApprovedAt:             doc.ApprovedAt,
		ApprovedBy:             doc.ApprovedBy,
		ApprovedFinalPrice:     doc.ApprovedFinalPrice,
		ApprovedPriceBreakdown: doc.ApprovedPriceBreakdown,
		CreatedAt:              doc.CreatedAt,
		UpdatedAt:              doc.UpdatedAt,
	}, nil
}

// ProductRepository persists products in Firestore.
type ProductRepository struct {
	provider *pfirestore.Provider
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{provider: provider}, nil
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) collection(ctx context.Context) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("products.client", err)
	}
	return client.Collection(productCollection), nil
}

// Insert creates a product document, failing if the id already exists.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	if _, err := coll.Doc(id).Create(ctx, encodeProduct(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

// Update replaces a product document. The document must already exist, and
// the existence check and write happen in one transaction so concurrent
// moderation decisions cannot interleave.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := coll.Doc(id)
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, encodeProduct(product))
	})
}

// FindByID loads a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	snap, err := coll.Doc(strings.TrimSpace(productID)).Get(ctx)
	if err != nil {
		return domain.Product{}, pfirestore.WrapError("products.get", err)
	}
	return decodeProduct(snap)
}

// ListByStatus returns one offset-based page of products in a given approval
// state, newest first, together with the total count matching the filter.
func (r *ProductRepository) ListByStatus(ctx context.Context, filter repositories.ProductListFilter) (repositories.ProductPage, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return repositories.ProductPage{}, err
	}

	base := coll.Query
	if filter.Status != "" {
		base = base.Where("approvalStatus", "==", string(filter.Status))
	}

	total, err := r.count(ctx, base)
	if err != nil {
		return repositories.ProductPage{}, err
	}

	query := base.OrderBy("createdAt", firestore.Desc)
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	items, err := r.fetch(ctx, query, "products.list")
	if err != nil {
		return repositories.ProductPage{}, err
	}
	return repositories.ProductPage{Items: items, Total: total}, nil
}

// ListApproved returns the full approved catalogue, newest first.
func (r *ProductRepository) ListApproved(ctx context.Context) ([]domain.Product, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	query := coll.Query.
		Where("approvalStatus", "==", string(domain.ApprovalStatusApproved)).
		OrderBy("createdAt", firestore.Desc)
	return r.fetch(ctx, query, "products.listApproved")
}

// CountByStatus tallies products per approval state.
func (r *ProductRepository) CountByStatus(ctx context.Context) (map[domain.ApprovalStatus]int, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.ApprovalStatus]int)
	for _, status := range []domain.ApprovalStatus{
		domain.ApprovalStatusPending,
		domain.ApprovalStatusApproved,
		domain.ApprovalStatusRejected,
	} {
		n, err := r.count(ctx, coll.Query.Where("approvalStatus", "==", string(status)))
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, nil
}

// count runs a keys-only scan. The collections involved stay small enough
// that a streamed count is acceptable; swap to aggregation queries if that
// stops being true.
func (r *ProductRepository) count(ctx context.Context, query firestore.Query) (int, error) {
	iter := query.Select().Documents(ctx)
	defer iter.Stop()

	total := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, pfirestore.WrapError("products.count", err)
		}
		total++
	}
	return total, nil
}

func (r *ProductRepository) fetch(ctx context.Context, query firestore.Query, op string) ([]domain.Product, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var items []domain.Product
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError(op, err)
		}
		product, err := decodeProduct(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, product)
	}
	return items, nil
}
