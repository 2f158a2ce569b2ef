package shipping

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger returns a logger writing text records into buf.
func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type memStore struct {
	plugin   map[string]any
	platform map[string]any
	methods  map[int]MapSource
}

func (s *memStore) PluginOption(ctx context.Context, key string) (any, bool, error) {
	v, ok := s.plugin[key]
	return v, ok, nil
}

func (s *memStore) PlatformOption(ctx context.Context, key string) (any, bool, error) {
	v, ok := s.platform[key]
	return v, ok, nil
}

func (s *memStore) MethodSettings(ctx context.Context, instanceID int) (Source, error) {
	m, ok := s.methods[instanceID]
	if !ok {
		return MapSource{}, nil
	}
	return m, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func product(id string, weight, length, width, height float64) Product {
	return Product{
		ID:     id,
		Name:   "Product " + id,
		Weight: weight,
		Length: length,
		Width:  width,
		Height: height,
		Price:  dec("10.00"),
	}
}

func cartItem(p Product, qty int) CartItem {
	return CartItem{Key: p.ID, Product: p, Quantity: qty}
}

func testConfig() *CalculationConfig {
	return &CalculationConfig{
		WeightUnit: "lbs",
		DimUnit:    "in",
		Packing:    PackingIndividual,
		PackingSub: OneBoxWeightOnly,
		CarrierIDs: []string{"se-1"},
		Services: map[string]map[string]ServiceSetting{
			"se-1": {
				"ground":   {},
				"priority": {},
				"express":  {},
			},
		},
		Origin:      Address{PostalCode: "54701", CountryCode: "US"},
		Destination: Address{PostalCode: "10001", CountryCode: "US"},
	}
}

func carrierRate(carrierID, serviceCode, cost string) CarrierRate {
	return CarrierRate{
		ServiceName: "Service " + serviceCode,
		ServiceCode: serviceCode,
		Cost:        dec(cost),
		Currency:    "usd",
		CarrierID:   carrierID,
		CarrierCode: "stamps_com",
		CarrierName: "USPS",
		PackageType: "package",
	}
}

// fixedRates returns a MockProvider answering every request with rates.
func fixedRates(rates ...CarrierRate) *MockProvider {
	m := NewMockProvider()
	m.Record = true
	m.Rates = func(req EstimateRequest) ([]CarrierRate, error) {
		return rates, nil
	}
	return m
}
