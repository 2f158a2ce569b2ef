package shipping

import (
	"github.com/shopspring/decimal"
)

const (
	adjustmentSourceService = "service"
	adjustmentSourceGlobal  = "global"

	otherCostBoxPrice = "box_price"
)

var hundred = decimal.NewFromInt(100)

// AdjustedRate is a carrier rate after markups and ancillary costs.
type AdjustedRate struct {
	RawCost    decimal.Decimal
	Cost       decimal.Decimal
	Adjustment *Adjustment
	OtherCosts map[string]decimal.Decimal
}

// ApplyAdjustments prices one raw carrier rate for the package it was quoted
// for. A service row that carries an adjustment key, even zero, shadows the
// global adjustment entirely.
func ApplyAdjustments(raw CarrierRate, pkg PackageRequest, cfg *CalculationConfig) AdjustedRate {
	out := AdjustedRate{
		RawCost: raw.Cost,
		Cost:    raw.Cost,
	}

	service, _ := cfg.Service(raw.CarrierID, raw.ServiceCode)
	if service.Adjustment != nil {
		out.adjust(adjustmentSourceService, *service.Adjustment, service.AdjustmentType)
	} else {
		out.adjust(adjustmentSourceGlobal, cfg.GlobalAdjustment.Amount, cfg.GlobalAdjustment.Type)
	}

	for _, oc := range raw.OtherCosts {
		if oc.Slug == "" || oc.Amount.IsZero() {
			continue
		}
		out.addOther(oc.Slug, oc.Amount)
	}

	if cfg.Packing == PackingCustomBoxes && pkg.Price != nil && !pkg.Price.IsZero() {
		out.addOther(otherCostBoxPrice, *pkg.Price)
	}

	return out
}

func (r *AdjustedRate) adjust(source string, amount decimal.Decimal, typ string) {
	value, ok := adjustmentValue(r.RawCost, amount, typ)
	if !ok {
		return
	}
	r.Cost = r.Cost.Add(value)
	r.Adjustment = &Adjustment{
		Source: source,
		Amount: amount,
		Type:   typ,
		Value:  value,
	}
}

func (r *AdjustedRate) addOther(slug string, amount decimal.Decimal) {
	if r.OtherCosts == nil {
		r.OtherCosts = make(map[string]decimal.Decimal)
	}
	r.Cost = r.Cost.Add(amount)
	r.OtherCosts[slug] = r.OtherCosts[slug].Add(amount)
}

// adjustmentValue returns the markup for a raw cost. Only positive amounts
// with a type apply.
func adjustmentValue(raw, amount decimal.Decimal, typ string) (decimal.Decimal, bool) {
	if !amount.IsPositive() || typ == "" {
		return decimal.Zero, false
	}
	if typ == AdjustmentPercentage {
		return raw.Mul(amount).Div(hundred).Round(2), true
	}
	return amount, true
}
