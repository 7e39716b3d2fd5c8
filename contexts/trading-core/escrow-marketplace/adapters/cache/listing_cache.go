package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

// ListingCache is a read-side TTL decorator over a ListingReader, used only
// by catalog queries. Commands always read the source of truth directly;
// cached entries simply expire, they are never invalidated.
type ListingCache struct {
	source ports.ListingReader
	items  *gocache.Cache
}

func NewListingCache(source ports.ListingReader, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &ListingCache{
		source: source,
		items:  gocache.New(ttl, 2*ttl),
	}
}

func (c *ListingCache) GetListing(ctx context.Context, itemID string) (entities.Listing, error) {
	if cached, ok := c.items.Get(itemID); ok {
		if listing, ok := cached.(entities.Listing); ok {
			return listing, nil
		}
	}
	listing, err := c.source.GetListing(ctx, itemID)
	if err != nil {
		return entities.Listing{}, err
	}
	c.items.SetDefault(itemID, listing)
	return listing, nil
}

// ListListings passes through: page results depend on the whole table, so
// only point lookups are worth caching.
func (c *ListingCache) ListListings(ctx context.Context, filter ports.ListingFilter) ([]entities.Listing, string, error) {
	return c.source.ListListings(ctx, filter)
}
