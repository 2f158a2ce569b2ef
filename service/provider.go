package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/loganlanou/shipstation-rates/internal/cache"
	"github.com/loganlanou/shipstation-rates/internal/easypost"
	"github.com/loganlanou/shipstation-rates/internal/shipping"
	"github.com/loganlanou/shipstation-rates/internal/shipstation"
)

// NewProvider builds the configured RateProvider. The returned cleanup
// releases the cache connection, if any.
func NewProvider(ctx context.Context, cfg ShippingConfig, metrics *shipstation.Metrics, logger *slog.Logger) (shipping.RateProvider, func(), error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}

	switch cfg.Provider {
	case ProviderShipStation:
		opts := []shipstation.Option{
			shipstation.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
			shipstation.WithMetrics(metrics),
			shipstation.WithLogger(logger),
		}
		if cfg.ShipStationBaseURL != "" {
			opts = append(opts, shipstation.WithBaseURL(cfg.ShipStationBaseURL))
		}
		client := shipstation.New(cfg.ShipStationAPIKey, opts...)

		store, cleanup, err := newCache(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return shipstation.NewCachedProvider(client, store, cfg.CacheTTL, metrics, logger), cleanup, nil

	case ProviderEasyPost:
		return easypost.New(cfg.EasyPostAPIKey, logger), noop, nil

	case ProviderMock:
		logger.Warn("using mock rate provider, quotes are not real")
		return shipping.NewMockProvider(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown rate provider %q", cfg.Provider)
}

func newCache(ctx context.Context, cfg ShippingConfig, logger *slog.Logger) (cache.Cache, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cache.DefaultMemorySize, cfg.CacheTTL), func() {}, nil
	}
	store, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("catalog cache backed by redis")
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close redis", "error", err)
		}
	}, nil
}
