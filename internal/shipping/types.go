package shipping

import (
	"github.com/shopspring/decimal"
)

type Address struct {
	Name          string `json:"name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	AddressLine1  string `json:"address_line1,omitempty"`
	AddressLine2  string `json:"address_line2,omitempty"`
	CityLocality  string `json:"city_locality,omitempty"`
	StateProvince string `json:"state_province,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
}

// IsZero reports whether no field of the address is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// PackageRequest is one physical parcel to be quoted.
type PackageRequest struct {
	Name        string      `json:"name,omitempty"`
	Weight      Weight      `json:"weight"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Items       []string    `json:"items,omitempty"`
	BoxNickname string      `json:"box_nickname,omitempty"`
	BoxWeight   float64     `json:"box_weight,omitempty"`
	MaxWeight   float64     `json:"max_weight,omitempty"`
	PackageCode string      `json:"package_code,omitempty"`
	CarrierCode string      `json:"carrier_code,omitempty"`
	// Price is the operator's cost of using the box, nil when the package
	// was not produced from a custom box.
	Price *decimal.Decimal `json:"price,omitempty"`

	// ItemKey and Quantity are set by the individual strategy only.
	ItemKey  string `json:"-"`
	Quantity int    `json:"-"`
}

type OtherCost struct {
	Slug   string          `json:"slug"`
	Amount decimal.Decimal `json:"amount"`
}

// CarrierRate is one raw service offer for one package as returned by a
// RateProvider.
type CarrierRate struct {
	ServiceName   string          `json:"service_name"`
	ServiceCode   string          `json:"service_code"`
	Cost          decimal.Decimal `json:"cost"`
	Currency      string          `json:"currency"`
	CarrierID     string          `json:"carrier_id"`
	CarrierCode   string          `json:"carrier_code"`
	CarrierName   string          `json:"carrier_name"`
	PackageType   string          `json:"package_type,omitempty"`
	DeliveryDays  int             `json:"delivery_days,omitempty"`
	ErrorMessages []string        `json:"error_messages,omitempty"`
	OtherCosts    []OtherCost     `json:"other_costs,omitempty"`
}

// usable reports whether the rate can take part in a quote at all.
func (r CarrierRate) usable() bool {
	if len(r.ErrorMessages) > 0 {
		return false
	}
	if !r.Cost.IsPositive() {
		return false
	}
	return r.PackageType == "" || r.PackageType == "package"
}

// Adjustment records the markup that was applied to a raw rate.
type Adjustment struct {
	Source string          `json:"source"` // "service" or "global"
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
	Value  decimal.Decimal `json:"value"`
}

// RateDetail is the per-package entry of a quote's rates metadata.
type RateDetail struct {
	Package    int                        `json:"package"`
	RawCost    decimal.Decimal            `json:"raw_cost"`
	Cost       decimal.Decimal            `json:"cost"`
	Currency   string                     `json:"currency,omitempty"`
	Quantity   int                        `json:"quantity,omitempty"`
	Adjustment *Adjustment                `json:"adjustment,omitempty"`
	OtherCosts map[string]decimal.Decimal `json:"other_costs,omitempty"`
}

// BoxDetail is the per-package entry of a quote's boxes metadata.
type BoxDetail struct {
	Package     int         `json:"package"`
	Name        string      `json:"name,omitempty"`
	Weight      Weight      `json:"weight"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Items       []string    `json:"items,omitempty"`
	BoxNickname string      `json:"box_nickname,omitempty"`
}

type QuoteMeta struct {
	Carrier    string
	Service    string
	Rates      []RateDetail
	Boxes      []BoxDetail
	OtherCosts map[string]decimal.Decimal
}

// Quote aggregates one (carrier, service) pair across every package of a
// calculation run.
type Quote struct {
	ID    string
	Label string
	Costs []decimal.Decimal
	Meta  QuoteMeta
}

// Total returns the sum of the accumulated costs.
func (q *Quote) Total() decimal.Decimal {
	return decimal.Sum(decimal.Zero, q.Costs...)
}

// RateMeta is the flattened metadata of a returned rate. Array valued
// fields are JSON strings because order item metadata only stores scalars.
type RateMeta struct {
	Carrier    string `json:"carrier"`
	Service    string `json:"service"`
	Rates      string `json:"rates"`
	Boxes      string `json:"boxes"`
	OtherCosts string `json:"other_costs,omitempty"`
}

// Rate is the caller-facing result of a calculation.
type Rate struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Cost  decimal.Decimal `json:"cost"`
	Meta  RateMeta        `json:"meta"`
}
