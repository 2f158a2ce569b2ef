package shipping

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// Reduce turns the quotes of a run into rates. In lowest mode only the
// cheapest quote is returned; otherwise every quote is returned with its
// cost list collapsed to the cheapest entry.
func Reduce(quotes *QuoteSet, cfg *CalculationConfig) []Rate {
	if quotes == nil || quotes.Len() == 0 {
		return []Rate{}
	}

	if cfg.ReturnLowest {
		var lowest *Quote
		var lowestTotal decimal.Decimal
		for _, q := range quotes.Quotes() {
			total := q.Total()
			if lowest == nil || total.LessThan(lowestTotal) {
				lowest = q
				lowestTotal = total
			}
		}
		rate := toRate(lowest)
		if cfg.ReturnLowestLabel != "" {
			rate.Label = cfg.ReturnLowestLabel
		}
		return []Rate{rate}
	}

	rates := make([]Rate, 0, quotes.Len())
	for _, q := range quotes.Quotes() {
		if len(q.Costs) > 1 {
			costs := make([]decimal.Decimal, len(q.Costs))
			copy(costs, q.Costs)
			sort.SliceStable(costs, func(i, j int) bool {
				return costs[i].LessThan(costs[j])
			})
			q.Costs = costs[:1]
		}
		rates = append(rates, toRate(q))
	}
	return rates
}

// toRate flattens a quote. Array valued metadata is stored as JSON text.
func toRate(q *Quote) Rate {
	rate := Rate{
		ID:    q.ID,
		Label: q.Label,
		Cost:  q.Total(),
		Meta: RateMeta{
			Carrier: q.Meta.Carrier,
			Service: q.Meta.Service,
			Rates:   encodeMeta(q.Meta.Rates),
			Boxes:   encodeMeta(q.Meta.Boxes),
		},
	}
	if len(q.Meta.OtherCosts) > 0 {
		rate.Meta.OtherCosts = encodeMeta(q.Meta.OtherCosts)
	}
	return rate
}

func encodeMeta(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
