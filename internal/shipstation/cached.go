package shipstation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/loganlanou/shipstation-rates/internal/cache"
	"github.com/loganlanou/shipstation-rates/internal/shipping"
)

const DefaultCacheTTL = 24 * time.Hour

// CachedProvider serves carrier and warehouse lookups from a cache shared
// across runs. Estimates are never cached. A cache miss or cache failure
// falls through to the wrapped provider.
type CachedProvider struct {
	shipping.RateProvider

	cache   cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	metrics *Metrics
	logger  *slog.Logger
}

func NewCachedProvider(provider shipping.RateProvider, c cache.Cache, ttl time.Duration, metrics *Metrics, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		RateProvider: provider,
		cache:        c,
		ttl:          ttl,
		metrics:      metrics,
		logger:       logger,
	}
}

func CarrierKey(id string) string {
	return "ss:carrier:" + id
}

func WarehouseKey(id string) string {
	return "ss:warehouse:" + id
}

func (p *CachedProvider) GetCarrier(ctx context.Context, carrierID string) (*shipping.Carrier, error) {
	var carrier shipping.Carrier
	err := p.readThrough(ctx, "carrier", CarrierKey(carrierID), &carrier, func() (any, error) {
		return p.RateProvider.GetCarrier(ctx, carrierID)
	})
	if err != nil {
		return nil, err
	}
	return &carrier, nil
}

func (p *CachedProvider) GetWarehouse(ctx context.Context, warehouseID string) (*shipping.Warehouse, error) {
	var warehouse shipping.Warehouse
	err := p.readThrough(ctx, "warehouse", WarehouseKey(warehouseID), &warehouse, func() (any, error) {
		return p.RateProvider.GetWarehouse(ctx, warehouseID)
	})
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// readThrough decodes the cached value at key into out, fetching and
// storing it on a miss. Concurrent misses for one key share a fetch.
func (p *CachedProvider) readThrough(ctx context.Context, kind, key string, out any, fetch func() (any, error)) error {
	if p.cache != nil {
		data, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			p.logger.WarnContext(ctx, "CachedProvider: cache read failed", "key", key, "error", err)
		}
		if ok {
			if err := json.Unmarshal(data, out); err == nil {
				p.metrics.cacheLookup(kind, true)
				return nil
			}
			p.logger.WarnContext(ctx, "CachedProvider: discarding unreadable cache entry", "key", key)
		}
	}
	p.metrics.cacheLookup(kind, false)

	v, err, _ := p.group.Do(key, func() (any, error) {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if p.cache != nil {
			if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
				p.logger.WarnContext(ctx, "CachedProvider: cache write failed", "key", key, "error", err)
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), out)
}
