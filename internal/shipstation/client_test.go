package shipstation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganlanou/shipstation-rates/internal/cache"
	"github.com/loganlanou/shipstation-rates/internal/shipping"
)

const estimateResponse = `[
  {
    "rate_type": "check",
    "carrier_id": "se-100",
    "carrier_code": "stamps_com",
    "carrier_nickname": "Stamps",
    "carrier_friendly_name": "Stamps.com",
    "service_type": "USPS Priority Mail",
    "service_code": "usps_priority_mail",
    "package_type": null,
    "shipping_amount": {"currency": "usd", "amount": 9.37},
    "insurance_amount": {"currency": "usd", "amount": 1.25},
    "confirmation_amount": {"currency": "usd", "amount": 0},
    "other_amount": {"currency": "usd", "amount": 0.5},
    "delivery_days": 2,
    "error_messages": []
  },
  {
    "carrier_id": "se-100",
    "carrier_code": "stamps_com",
    "service_type": "USPS Media Mail",
    "service_code": "usps_media_mail",
    "shipping_amount": {"currency": "usd", "amount": 0},
    "error_messages": ["Service not available"]
  }
]`

func TestGetEstimates(t *testing.T) {
	var got shipping.EstimateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/rates/estimate", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(estimateResponse))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	client := New("test-key", WithBaseURL(server.URL), WithMetrics(metrics))

	rates, err := client.GetEstimates(context.Background(), shipping.EstimateRequest{
		CarrierIDs:                  []string{"se-100"},
		FromCountryCode:             "US",
		FromPostalCode:              "54701",
		ToCountryCode:               "US",
		ToPostalCode:                "10001",
		AddressResidentialIndicator: "unknown",
		Weight:                      shipping.Weight{Value: 2, Unit: "pound"},
	})
	require.NoError(t, err)
	require.Len(t, rates, 2)

	assert.Equal(t, []string{"se-100"}, got.CarrierIDs)
	assert.Equal(t, "pound", got.Weight.Unit)

	first := rates[0]
	assert.Equal(t, "usps_priority_mail", first.ServiceCode)
	assert.Equal(t, "USPS Priority Mail", first.ServiceName)
	assert.Equal(t, "Stamps.com", first.CarrierName)
	assert.Equal(t, "9.37", first.Cost.StringFixed(2))
	require.Len(t, first.OtherCosts, 2)
	assert.Equal(t, "insurance", first.OtherCosts[0].Slug)
	assert.Equal(t, "1.25", first.OtherCosts[0].Amount.StringFixed(2))
	assert.Equal(t, "other", first.OtherCosts[1].Slug)

	assert.Equal(t, []string{"Service not available"}, rates[1].ErrorMessages)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("estimate", "200")))
}

func TestGetEstimates_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"request_id":"r1","errors":[{"message":"The API key is invalid.","error_code":"unauthorized"}]}`))
	}))
	defer server.Close()

	client := New("bad-key", WithBaseURL(server.URL))
	_, err := client.GetEstimates(context.Background(), shipping.EstimateRequest{})
	require.Error(t, err)

	var perr *shipping.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.Equal(t, "estimate", perr.Op)
	assert.Contains(t, err.Error(), "The API key is invalid.")
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New("key", WithBaseURL(server.URL))
	for i := 0; i < 5; i++ {
		_, err := client.GetEstimates(context.Background(), shipping.EstimateRequest{})
		require.Error(t, err)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))

	_, err := client.GetEstimates(context.Background(), shipping.EstimateRequest{})
	require.Error(t, err)
	var perr *shipping.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.Status)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls), "open breaker must not reach the API")
}

func TestClientErrorsDoNotOpenBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New("key", WithBaseURL(server.URL))
	for i := 0; i < 7; i++ {
		_, err := client.GetCarrier(context.Background(), "se-missing")
		require.Error(t, err)
	}
	assert.Equal(t, int32(7), atomic.LoadInt32(&calls))
}

func TestGetCarrierAndWarehouse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/carriers/se-100", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"carrier_id":"se-100","carrier_code":"stamps_com","friendly_name":"Stamps.com",
			"services":[{"carrier_id":"se-100","service_code":"usps_priority_mail","name":"USPS Priority Mail","domestic":true}],
			"packages":[{"package_code":"package","name":"Package"}]}`))
	})
	mux.HandleFunc("/v2/warehouses/wh-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"warehouse_id":"wh-1","name":"Main","origin_address":{"postal_code":"54701","country_code":"US"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := New("key", WithBaseURL(server.URL))

	carrier, err := client.GetCarrier(context.Background(), "se-100")
	require.NoError(t, err)
	assert.Equal(t, "Stamps.com", carrier.Name)
	require.Len(t, carrier.Services, 1)
	assert.Equal(t, "usps_priority_mail", carrier.Services[0].Code)

	wh, err := client.GetWarehouse(context.Background(), "wh-1")
	require.NoError(t, err)
	assert.Equal(t, "54701", wh.OriginAddress.PostalCode)
}

func TestConvertUnitTerm(t *testing.T) {
	client := New("key")
	tests := map[string]string{
		"lbs": "pound",
		"oz":  "ounce",
		"kg":  "kilogram",
		"g":   "gram",
		"in":  "inch",
		"cm":  "centimeter",
	}
	for in, want := range tests {
		assert.Equal(t, want, client.ConvertUnitTerm(in), in)
	}
}

func TestCachedProvider(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"carrier_id":"se-100","friendly_name":"Stamps.com"}`))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	mem := cache.NewMemory(0, 0)
	provider := NewCachedProvider(New("key", WithBaseURL(server.URL)), mem, 0, metrics, nil)

	for i := 0; i < 3; i++ {
		carrier, err := provider.GetCarrier(context.Background(), "se-100")
		require.NoError(t, err)
		assert.Equal(t, "Stamps.com", carrier.Name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, ok, err := mem.Get(context.Background(), CarrierKey("se-100"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cache.WithLabelValues("carrier", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cache.WithLabelValues("carrier", "hit")))
}

type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache down")
}

func TestCachedProvider_CacheFailureFallsThrough(t *testing.T) {
	mock := shipping.NewMockProvider()
	provider := NewCachedProvider(mock, failingCache{}, time.Hour, nil, nil)

	wh, err := provider.GetWarehouse(context.Background(), "mock-warehouse")
	require.NoError(t, err)
	assert.Equal(t, "54701", wh.OriginAddress.PostalCode)

	_, err = provider.GetWarehouse(context.Background(), "unknown")
	assert.Error(t, err)
}
