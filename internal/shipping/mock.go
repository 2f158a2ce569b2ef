package shipping

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// MockProvider is a deterministic RateProvider for development without API
// credentials and for tests.
type MockProvider struct {
	// Rates, when set, replaces the generated rates.
	Rates func(req EstimateRequest) ([]CarrierRate, error)

	Carriers   map[string]*Carrier
	Warehouses map[string]*Warehouse

	// Record keeps every estimate request for Requests. Off by default so a
	// long-running server does not retain them.
	Record bool

	mu       sync.Mutex
	requests []EstimateRequest
}

var mockServices = []struct {
	carrierID   string
	carrierCode string
	carrierName string
	serviceCode string
	serviceName string
	surcharge   float64
	days        int
}{
	{"mock-usps", "stamps_com", "USPS", "usps_ground_advantage", "USPS Ground Advantage", 0, 5},
	{"mock-usps", "stamps_com", "USPS", "usps_priority_mail", "USPS Priority Mail", 4.50, 2},
	{"mock-usps", "stamps_com", "USPS", "usps_priority_mail_express", "USPS Priority Mail Express", 12.00, 1},
	{"mock-ups", "ups", "UPS", "ups_ground", "UPS Ground", 2.50, 4},
	{"mock-ups", "ups", "UPS", "ups_3_day_select", "UPS 3 Day Select", 6.00, 3},
	{"mock-fedex", "fedex", "FedEx", "fedex_ground", "FedEx Ground", 3.00, 3},
	{"mock-fedex", "fedex", "FedEx", "fedex_2day", "FedEx 2Day", 8.00, 2},
}

func NewMockProvider() *MockProvider {
	carriers := make(map[string]*Carrier)
	for _, s := range mockServices {
		c, ok := carriers[s.carrierID]
		if !ok {
			c = &Carrier{
				ID:       s.carrierID,
				Code:     s.carrierCode,
				Name:     s.carrierName,
				Packages: []CarrierPackage{{Code: "package", Name: "Package"}},
			}
			carriers[s.carrierID] = c
		}
		c.Services = append(c.Services, CarrierService{
			CarrierID:     s.carrierID,
			Code:          s.serviceCode,
			Name:          s.serviceName,
			Domestic:      true,
			International: false,
		})
	}

	return &MockProvider{
		Carriers: carriers,
		Warehouses: map[string]*Warehouse{
			"mock-warehouse": {
				ID:   "mock-warehouse",
				Name: "Mock Warehouse",
				OriginAddress: Address{
					Name:          "Mock Warehouse",
					AddressLine1:  "1 Warehouse Way",
					CityLocality:  "Eau Claire",
					StateProvince: "WI",
					PostalCode:    "54701",
					CountryCode:   "US",
				},
			},
		},
	}
}

// GetEstimates prices every mock service of the requested carriers from
// the package weight and size.
func (m *MockProvider) GetEstimates(ctx context.Context, req EstimateRequest) ([]CarrierRate, error) {
	if m.Record {
		m.mu.Lock()
		m.requests = append(m.requests, req)
		m.mu.Unlock()
	}
	if m.Rates != nil {
		return m.Rates(req)
	}

	requested := make(map[string]bool, len(req.CarrierIDs))
	for _, id := range req.CarrierIDs {
		requested[id] = true
	}

	basePrice := 5.0 + req.Weight.Value*0.5
	if d := req.Dimensions; d != nil {
		basePrice += d.Length * d.Width * d.Height * 0.01
	}

	var rates []CarrierRate
	for _, s := range mockServices {
		if len(requested) > 0 && !requested[s.carrierID] {
			continue
		}
		rates = append(rates, CarrierRate{
			ServiceName:  s.serviceName,
			ServiceCode:  s.serviceCode,
			Cost:         decimal.NewFromFloat(basePrice + s.surcharge).Round(2),
			Currency:     "usd",
			CarrierID:    s.carrierID,
			CarrierCode:  s.carrierCode,
			CarrierName:  s.carrierName,
			PackageType:  "package",
			DeliveryDays: s.days,
		})
	}
	return rates, nil
}

// Requests returns the recorded estimate requests in order.
func (m *MockProvider) Requests() []EstimateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EstimateRequest(nil), m.requests...)
}

func (m *MockProvider) GetCarrier(ctx context.Context, carrierID string) (*Carrier, error) {
	c, ok := m.Carriers[carrierID]
	if !ok {
		return nil, &ProviderError{Op: "get carrier", Status: 404, Err: fmt.Errorf("carrier %s not found", carrierID)}
	}
	return c, nil
}

func (m *MockProvider) GetWarehouse(ctx context.Context, warehouseID string) (*Warehouse, error) {
	wh, ok := m.Warehouses[warehouseID]
	if !ok {
		return nil, &ProviderError{Op: "get warehouse", Status: 404, Err: fmt.Errorf("warehouse %s not found", warehouseID)}
	}
	return wh, nil
}

func (m *MockProvider) ConvertUnitTerm(unit string) string {
	return UnitTerm(unit)
}

// CarrierIDs lists the mock carriers.
func (m *MockProvider) CarrierIDs() []string {
	ids := make([]string, 0, len(m.Carriers))
	for id := range m.Carriers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UnitTerm maps engine units onto the unit names of the ShipStation API.
func UnitTerm(unit string) string {
	switch normalizeUnit(unit) {
	case "kg":
		return "kilogram"
	case "g":
		return "gram"
	case "lbs":
		return "pound"
	case "oz":
		return "ounce"
	case "cm":
		return "centimeter"
	case "in":
		return "inch"
	default:
		return unit
	}
}
