package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingItemData is returned by a packing strategy when an item lacks
	// the weight or dimensions the strategy needs.
	ErrMissingItemData = errors.New("missing dimensions, weight is a minimum requirement")

	// ErrEmptyPackages is returned when a strategy produced no packages.
	ErrEmptyPackages = errors.New("no packages to quote")

	// ErrNotSupported is returned by providers for lookups they cannot serve.
	ErrNotSupported = errors.New("not supported by provider")
)

// ProviderError tags failures that came from the carrier API so callers
// can tell them apart from local errors.
type ProviderError struct {
	Op     string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Product is the commerce platform's view of a sellable item. Weight and
// dimensions are in the store's units; zero means not set.
type Product struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Weight  float64         `json:"weight,omitempty"`
	Length  float64         `json:"length,omitempty"`
	Width   float64         `json:"width,omitempty"`
	Height  float64         `json:"height,omitempty"`
	Price   decimal.Decimal `json:"price"`
	Virtual bool            `json:"virtual,omitempty"`
}

// NeedsShipping reports whether the product is a physical good.
func (p Product) NeedsShipping() bool {
	return !p.Virtual
}

type ProductSource interface {
	FetchByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// EstimateRequest is the body of one rate estimate call: the shared
// origin/destination envelope plus a single package.
type EstimateRequest struct {
	CarrierIDs                  []string    `json:"carrier_ids"`
	FromCountryCode             string      `json:"from_country_code"`
	FromPostalCode              string      `json:"from_postal_code"`
	FromCityLocality            string      `json:"from_city_locality,omitempty"`
	FromStateProvince           string      `json:"from_state_province,omitempty"`
	ToCountryCode               string      `json:"to_country_code"`
	ToPostalCode                string      `json:"to_postal_code"`
	ToCityLocality              string      `json:"to_city_locality,omitempty"`
	ToStateProvince             string      `json:"to_state_province,omitempty"`
	AddressResidentialIndicator string      `json:"address_residential_indicator"`
	Weight                      Weight      `json:"weight"`
	Dimensions                  *Dimensions `json:"dimensions,omitempty"`
}

type CarrierService struct {
	CarrierID     string `json:"carrier_id"`
	Code          string `json:"service_code"`
	Name          string `json:"name"`
	Domestic      bool   `json:"domestic"`
	International bool   `json:"international"`
}

type CarrierPackage struct {
	Code        string `json:"package_code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Carrier is a carrier catalog entry with its services and package types.
type Carrier struct {
	ID       string           `json:"carrier_id"`
	Code     string           `json:"carrier_code"`
	Name     string           `json:"friendly_name"`
	Nickname string           `json:"nickname,omitempty"`
	Services []CarrierService `json:"services,omitempty"`
	Packages []CarrierPackage `json:"packages,omitempty"`
}

type Warehouse struct {
	ID            string  `json:"warehouse_id"`
	Name          string  `json:"name"`
	OriginAddress Address `json:"origin_address"`
}

// RateProvider is the carrier-aggregation API the engine quotes against.
type RateProvider interface {
	GetEstimates(ctx context.Context, req EstimateRequest) ([]CarrierRate, error)
	GetCarrier(ctx context.Context, carrierID string) (*Carrier, error)
	GetWarehouse(ctx context.Context, warehouseID string) (*Warehouse, error)
	ConvertUnitTerm(unit string) string
}
