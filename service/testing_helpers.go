package service

import (
	"context"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/loganlanou/shipstation-rates/internal/shipping"
	"github.com/loganlanou/shipstation-rates/storage"
)

// setupTestService creates a service backed by an in-memory database and
// the mock rate provider.
func setupTestService(t *testing.T, provider shipping.RateProvider, opts ...Option) *Service {
	t.Helper()

	store, cleanup, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(cleanup)

	if provider == nil {
		provider = shipping.NewMockProvider()
	}

	config := &Config{
		Environment: "test",
		Port:        "8080",
	}
	config.Shipping.Provider = ProviderMock

	return New(store, config, provider, prometheus.NewRegistry(), opts...)
}

// setupTestEcho creates an Echo instance with routes registered
func setupTestEcho(t *testing.T, provider shipping.RateProvider, opts ...Option) (*echo.Echo, *Service) {
	t.Helper()

	e := echo.New()
	svc := setupTestService(t, provider, opts...)
	svc.RegisterRoutes(e)

	return e, svc
}

// seedMethod stores method instance 1 with the given enabled services and
// a store address in Eau Claire.
func seedMethod(t *testing.T, svc *Service, services map[string]any) {
	t.Helper()
	ctx := context.Background()

	if err := svc.storage.SetPlatformOption(ctx, "store_address", shipping.Address{PostalCode: "54701", CountryCode: "US"}); err != nil {
		t.Fatalf("failed to save store address: %v", err)
	}
	if err := svc.storage.SaveMethodInstance(ctx, 1, "Test Rates", map[string]any{"services": services}); err != nil {
		t.Fatalf("failed to save method instance: %v", err)
	}
}

func createTestProduct(t *testing.T, svc *Service, p shipping.Product) shipping.Product {
	t.Helper()

	saved, err := svc.storage.UpsertProduct(context.Background(), p)
	if err != nil {
		t.Fatalf("failed to create test product: %v", err)
	}
	return saved
}
