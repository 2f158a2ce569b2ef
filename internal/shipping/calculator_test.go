package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func methodSettings() MapSource {
	return MapSource{
		"packing": "individual",
		"services": map[string]any{
			"se-1": map[string]any{
				"ground":   map[string]any{"enabled": true, "nickname": "Economy"},
				"priority": map[string]any{"enabled": true},
				"express":  map[string]any{"enabled": false},
			},
		},
	}
}

func settingsStore() *memStore {
	return &memStore{
		plugin: map[string]any{},
		platform: map[string]any{
			"weight_unit":   "lbs",
			"dim_unit":      "in",
			"store_address": map[string]any{"postal_code": "54701", "country_code": "US"},
		},
		methods: map[int]MapSource{7: methodSettings()},
	}
}

func destination() *Address {
	return &Address{PostalCode: "10001", CountryCode: "US"}
}

func stubRates() *MockProvider {
	return fixedRates(
		carrierRate("se-1", "ground", "6.10"),
		carrierRate("se-1", "priority", "9.40"),
		carrierRate("se-1", "express", "21.00"),
	)
}

func TestCalculateRates(t *testing.T) {
	calc := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))

	rates := calc.CalculateRates(context.Background(),
		Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
		Options{InstanceID: 7, To: destination()})

	require.Len(t, rates, 2)
	assert.Equal(t, "Economy", rates[0].Label)
	assert.Equal(t, "6.10", rates[0].Cost.StringFixed(2))
	assert.Equal(t, "Service priority", rates[1].Label)
	assert.Equal(t, QuoteHash("priority", "se-1"), rates[1].ID)
	assert.Equal(t, "USPS", rates[1].Meta.Carrier)
}

func TestCalculateRates_Deterministic(t *testing.T) {
	calc := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))
	ds := Dataset{Products: []Product{product("1", 1, 4, 3, 2), product("2", 2, 6, 5, 4)}}
	opts := Options{Method: methodSettings(), To: destination()}

	first, err := json.Marshal(calc.CalculateRates(context.Background(), ds, opts))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(calc.CalculateRates(context.Background(), ds, opts))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestCalculateRates_QuantityInvariant(t *testing.T) {
	provider := fixedRates(carrierRate("se-1", "ground", "4.00"))
	calc := NewCalculator(provider, settingsStore(), nil, WithLogger(discardLogger()))

	rates := calc.CalculateRates(context.Background(),
		Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
		Options{
			Method: methodSettings(),
			To:     destination(),
			Items:  map[string]ItemOverride{"1": {Quantity: 3}},
		})

	require.Len(t, rates, 1)
	assert.Equal(t, "12.00", rates[0].Cost.StringFixed(2))
	assert.Len(t, provider.Requests(), 1, "one request per line, not per unit")
}

func TestCalculateRates_ConcurrentRunsShareNoRequests(t *testing.T) {
	tests := []struct {
		name   string
		record bool
		want   int
	}{
		{name: "default mock retains nothing", record: false, want: 0},
		{name: "recording mock sees every run", record: true, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewMockProvider()
			provider.Record = tt.record
			calc := NewCalculator(provider, settingsStore(), nil, WithLogger(discardLogger()))

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					calc.CalculateRates(context.Background(),
						Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
						Options{Method: methodSettings(), To: destination()})
				}()
			}
			wg.Wait()

			assert.Len(t, provider.Requests(), tt.want)
		})
	}
}

func TestCalculateRates_MissingDimensionYieldsNoRates(t *testing.T) {
	var buf bytes.Buffer
	provider := stubRates()
	calc := NewCalculator(provider, settingsStore(), nil, WithLogger(bufferLogger(&buf)))

	rates := calc.CalculateRates(context.Background(),
		Dataset{Products: []Product{product("1", 1, 4, 3, 2), product("2", 1, 4, 3, 0)}},
		Options{Method: methodSettings(), To: destination()})

	assert.Equal(t, []Rate{}, rates)
	assert.Empty(t, provider.Requests())
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "packing failed")
}

func TestCalculateRates_SoftFailures(t *testing.T) {
	tests := []struct {
		name string
		ds   Dataset
		opts Options
	}{
		{
			name: "empty cart",
			opts: Options{Method: methodSettings(), To: destination()},
		},
		{
			name: "no destination",
			ds:   Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
			opts: Options{Method: methodSettings()},
		},
		{
			name: "no enabled carriers",
			ds:   Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
			opts: Options{Method: MapSource{}, To: destination()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))
			assert.Equal(t, []Rate{}, calc.CalculateRates(context.Background(), tt.ds, tt.opts))
		})
	}
}

func TestCalculateRates_ReturnLowest(t *testing.T) {
	calc := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))
	lowest := true

	rates := calc.CalculateRates(context.Background(),
		Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
		Options{Method: methodSettings(), To: destination(), ReturnLowest: &lowest, ReturnLowestLabel: "Flat Ship"})

	require.Len(t, rates, 1)
	assert.Equal(t, "Flat Ship", rates[0].Label)
	assert.Equal(t, "6.10", rates[0].Cost.StringFixed(2))
}

func TestCalculateRates_CartDataset(t *testing.T) {
	calc := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))
	ds := DecodeDataset([]byte(`{
		"contents": [{"key": "k1", "product": {"id": "1", "name": "Mug", "weight": 1, "length": 4, "width": 3, "height": 2}, "quantity": 2}],
		"destination": {"postal_code": "10001", "country_code": "US"}
	}`))

	rates := calc.CalculateRates(context.Background(), ds, Options{InstanceID: 7})

	require.Len(t, rates, 2)
	assert.Equal(t, "12.20", rates[0].Cost.StringFixed(2))
}

func TestCalculateRates_PackageFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    PackageFilter
		wantRates int
		wantLog   bool
	}{
		{
			name: "unchanged",
			filter: func(ctx context.Context, pkgs []PackageRequest, cfg *CalculationConfig) []PackageRequest {
				return pkgs
			},
			wantRates: 2,
		},
		{
			name: "rewritten",
			filter: func(ctx context.Context, pkgs []PackageRequest, cfg *CalculationConfig) []PackageRequest {
				pkgs[0].Weight.Value = 10
				return pkgs
			},
			wantRates: 2,
			wantLog:   true,
		},
		{
			name: "emptied",
			filter: func(ctx context.Context, pkgs []PackageRequest, cfg *CalculationConfig) []PackageRequest {
				return nil
			},
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			calc := NewCalculator(stubRates(), settingsStore(), nil,
				WithLogger(bufferLogger(&buf)),
				WithPackageFilter(tt.filter))

			rates := calc.CalculateRates(context.Background(),
				Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
				Options{Method: methodSettings(), To: destination()})

			assert.Len(t, rates, tt.wantRates)
			if tt.wantLog {
				assert.Contains(t, buf.String(), "package list modified by filter")
			} else {
				assert.NotContains(t, buf.String(), "package list modified by filter")
			}
		})
	}
}

type fixedCalculator struct {
	rates []Rate
}

func (f fixedCalculator) CalculateRates(ctx context.Context, ds Dataset, opts Options) []Rate {
	return f.rates
}

func TestHost_Override(t *testing.T) {
	base := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))
	substitute := fixedCalculator{rates: []Rate{{ID: "sub", Label: "Substitute"}}}

	tests := []struct {
		name     string
		override Override
		wantBase bool
		wantLog  string
	}{
		{
			name:     "no override",
			wantBase: true,
		},
		{
			name:     "same calculator",
			override: func(b RateCalculator) any { return b },
			wantBase: true,
		},
		{
			name:     "valid substitute",
			override: func(b RateCalculator) any { return substitute },
			wantLog:  "calculator substituted by override",
		},
		{
			name:     "invalid substitute",
			override: func(b RateCalculator) any { return "not a calculator" },
			wantBase: true,
			wantLog:  "calculator override rejected",
		},
		{
			name:     "nil substitute",
			override: func(b RateCalculator) any { return nil },
			wantBase: true,
			wantLog:  "calculator override rejected",
		},
		{
			name:     "typed nil substitute",
			override: func(b RateCalculator) any { return (*Calculator)(nil) },
			wantBase: true,
			wantLog:  "calculator override rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			host := NewHost(base, tt.override, bufferLogger(&buf))

			got := host.Calculator()
			if tt.wantBase {
				assert.Same(t, base, got)
			} else {
				assert.Equal(t, substitute, got)
			}

			if tt.wantLog == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.wantLog)
			}
		})
	}
}

func TestHost_CalculateRatesDelegates(t *testing.T) {
	base := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))
	host := NewHost(base, func(b RateCalculator) any {
		return fixedCalculator{rates: []Rate{{ID: "sub"}}}
	}, discardLogger())

	rates := host.CalculateRates(context.Background(), Dataset{}, Options{})
	require.Len(t, rates, 1)
	assert.Equal(t, "sub", rates[0].ID)
}

func TestHost_TypedNilOverrideFallsBackToBase(t *testing.T) {
	base := NewCalculator(stubRates(), settingsStore(), nil, WithLogger(discardLogger()))
	host := NewHost(base, func(b RateCalculator) any { return (*Calculator)(nil) }, discardLogger())

	var rates []Rate
	require.NotPanics(t, func() {
		rates = host.CalculateRates(context.Background(),
			Dataset{Products: []Product{product("1", 1, 4, 3, 2)}},
			Options{Method: methodSettings(), To: destination()})
	})
	assert.Len(t, rates, 2)
}
