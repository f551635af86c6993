package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/indicrafts/api/internal/domain"
	pfirestore "github.com/indicrafts/api/internal/platform/firestore"
	"github.com/indicrafts/api/internal/repositories"
)

const orderCollection = "orders"

// orderDocument holds the subset of order fields the reporting queries read.
type orderDocument struct {
	Status          string  `firestore:"status"`
	Total           float64 `firestore:"total"`
	Shipping        float64 `firestore:"shipping"`
	AdminCommission float64 `firestore:"adminCommission"`
}

// OrderRepository reads orders from Firestore for admin reporting.
type OrderRepository struct {
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) collection(ctx context.Context) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("orders.client", err)
	}
	return client.Collection(orderCollection), nil
}

// CountByStatus tallies orders per lifecycle state in a single scan.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	iter := coll.Select("status").Documents(ctx)
	defer iter.Stop()

	counts := make(map[domain.OrderStatus]int)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("orders.countByStatus", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, pfirestore.WrapError("orders.countByStatus", err)
		}
		counts[domain.OrderStatus(doc.Status)]++
	}
	return counts, nil
}

// RevenueTotals sums order money flows across the given lifecycle states.
func (r *OrderRepository) RevenueTotals(ctx context.Context, statuses []domain.OrderStatus) (repositories.OrderRevenue, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return repositories.OrderRevenue{}, err
	}

	var revenue repositories.OrderRevenue
	for _, status := range statuses {
		query := coll.
			Where("status", "==", string(status)).
			Select("status", "total", "shipping", "adminCommission")

		iter := query.Documents(ctx)
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				iter.Stop()
				return repositories.OrderRevenue{}, pfirestore.WrapError("orders.revenueTotals", err)
			}
			var doc orderDocument
			if err := snap.DataTo(&doc); err != nil {
				iter.Stop()
				return repositories.OrderRevenue{}, pfirestore.WrapError("orders.revenueTotals", err)
			}
			revenue.OrderCount++
			revenue.TotalRevenue += doc.Total
			revenue.TotalShipping += doc.Shipping
			revenue.TotalCommission += doc.AdminCommission
		}
		iter.Stop()
	}
	return revenue, nil
}
