package geocoding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/indicrafts/api/internal/domain"
)

// Lookuper performs a single upstream geocode lookup.
type Lookuper interface {
	Lookup(ctx context.Context, postalCode string) (*domain.Location, error)
}

// Resolver resolves postal codes to locations, caching successful lookups.
// Upstream failures are swallowed: callers receive (nil, nil) and shipping
// falls back to base rates without a distance surcharge.
type Resolver struct {
	client Lookuper
	cache  *Cache
	logger *zap.Logger
}

// ResolverOption customises Resolver construction.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for diagnostics.
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCache installs the cache consulted before upstream lookups. A nil cache
// disables caching.
func WithCache(cache *Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// NewResolver constructs a Resolver around the given lookup client.
func NewResolver(client Lookuper, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the location for the postal code, or nil when the code is
// empty, unknown, or the upstream is unavailable.
func (r *Resolver) Resolve(ctx context.Context, postalCode string) (*domain.Location, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, nil
	}

	if r.cache != nil {
		if location, ok := r.cache.Get(postalCode); ok {
			return location, nil
		}
	}

	if r.client == nil {
		return nil, nil
	}

	location, err := r.client.Lookup(ctx, postalCode)
	if err != nil {
		r.logger.Warn("geocode lookup failed",
			zap.String("postal_code", postalCode),
			zap.Error(err),
		)
		return nil, nil
	}
	if location == nil {
		return nil, nil
	}

	if r.cache != nil {
		r.cache.Put(postalCode, location)
	}
	return location, nil
}
