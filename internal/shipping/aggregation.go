package shipping

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"

	"github.com/shopspring/decimal"
)

// QuoteHash identifies a (carrier, service) pair across the packages of a
// run.
func QuoteHash(serviceCode, carrierID string) string {
	sum := md5.Sum([]byte(serviceCode + carrierID))
	return hex.EncodeToString(sum[:])
}

// QuoteSet holds the quotes of a run in first-sighting order.
type QuoteSet struct {
	order  []string
	quotes map[string]*Quote
}

func NewQuoteSet() *QuoteSet {
	return &QuoteSet{quotes: make(map[string]*Quote)}
}

func (s *QuoteSet) Len() int {
	return len(s.order)
}

func (s *QuoteSet) Get(id string) (*Quote, bool) {
	q, ok := s.quotes[id]
	return q, ok
}

// Quotes returns the quotes in the order they were first seen.
func (s *QuoteSet) Quotes() []*Quote {
	out := make([]*Quote, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.quotes[id])
	}
	return out
}

// Add creates the quote on first sighting and merges into it afterwards.
func (s *QuoteSet) Add(q *Quote) {
	existing, ok := s.quotes[q.ID]
	if !ok {
		s.order = append(s.order, q.ID)
		s.quotes[q.ID] = q
		return
	}

	existing.Costs = append(existing.Costs, q.Costs...)
	existing.Meta.Rates = append(existing.Meta.Rates, q.Meta.Rates...)
	existing.Meta.Boxes = append(existing.Meta.Boxes, q.Meta.Boxes...)
	for slug, amount := range q.Meta.OtherCosts {
		if existing.Meta.OtherCosts == nil {
			existing.Meta.OtherCosts = make(map[string]decimal.Decimal)
		}
		existing.Meta.OtherCosts[slug] = existing.Meta.OtherCosts[slug].Add(amount)
	}
}

// CarrierLookup resolves carrier catalog entries.
type CarrierLookup interface {
	Carrier(ctx context.Context, id string) (*Carrier, error)
}

// Orchestrator requests estimates for every package of a run and folds the
// returned rates into quotes.
type Orchestrator struct {
	provider RateProvider
	carriers CarrierLookup
	logger   *slog.Logger
}

func NewOrchestrator(provider RateProvider, carriers CarrierLookup, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{provider: provider, carriers: carriers, logger: logger}
}

// envelope builds the request fields shared by every package of the run.
func (o *Orchestrator) envelope(cfg *CalculationConfig) EstimateRequest {
	return EstimateRequest{
		CarrierIDs:                  cfg.CarrierIDs,
		AddressResidentialIndicator: "unknown",
		ToCountryCode:               cfg.Destination.CountryCode,
		ToPostalCode:                cfg.Destination.PostalCode,
		ToCityLocality:              cfg.Destination.CityLocality,
		ToStateProvince:             cfg.Destination.StateProvince,
		FromCountryCode:             cfg.Origin.CountryCode,
		FromPostalCode:              cfg.Origin.PostalCode,
		FromCityLocality:            cfg.Origin.CityLocality,
		FromStateProvince:           cfg.Origin.StateProvince,
	}
}

// Run quotes every package. Configuration gaps and per-package provider
// failures are logged and never abort the run.
func (o *Orchestrator) Run(ctx context.Context, packages []PackageRequest, cfg *CalculationConfig) *QuoteSet {
	quotes := NewQuoteSet()

	if len(packages) == 0 {
		o.logger.WarnContext(ctx, "Orchestrator: no packages to quote")
		return quotes
	}
	if cfg.Destination.CountryCode == "" || cfg.Destination.PostalCode == "" {
		o.logger.WarnContext(ctx, "Orchestrator: destination country or postal code missing",
			"country", cfg.Destination.CountryCode,
			"postal_code", cfg.Destination.PostalCode)
		return quotes
	}
	if cfg.Origin.PostalCode == "" {
		o.logger.WarnContext(ctx, "Orchestrator: origin postal code missing")
		return quotes
	}
	if len(cfg.CarrierIDs) == 0 {
		o.logger.WarnContext(ctx, "Orchestrator: no enabled carriers")
		return quotes
	}

	base := o.envelope(cfg)

	for idx, pkg := range packages {
		req := base
		req.Weight = Weight{
			Value: pkg.Weight.Value,
			Unit:  o.provider.ConvertUnitTerm(pkg.Weight.Unit),
		}
		if pkg.Dimensions != nil {
			dims := *pkg.Dimensions
			dims.Unit = o.provider.ConvertUnitTerm(dims.Unit)
			req.Dimensions = &dims
		}

		rates, err := o.provider.GetEstimates(ctx, req)
		if err != nil {
			o.logger.WarnContext(ctx, "Orchestrator: failed to get estimates for package",
				"package", idx,
				"error", err)
			continue
		}
		if len(rates) == 0 {
			o.logger.WarnContext(ctx, "Orchestrator: no estimates for package", "package", idx)
			continue
		}

		for _, rate := range rates {
			if !rate.usable() {
				continue
			}
			service, ok := cfg.Service(rate.CarrierID, rate.ServiceCode)
			if !ok {
				continue
			}
			quotes.Add(o.quote(ctx, idx, pkg, rate, service, cfg))
		}
	}

	o.logger.DebugContext(ctx, "Orchestrator: quoting complete",
		"packages", len(packages),
		"quotes", quotes.Len())

	return quotes
}

// quote prices one carrier rate for one package as a single-entry quote.
func (o *Orchestrator) quote(ctx context.Context, idx int, pkg PackageRequest, rate CarrierRate, service ServiceSetting, cfg *CalculationConfig) *Quote {
	adjusted := ApplyAdjustments(rate, pkg, cfg)

	cost := adjusted.Cost
	quantity := 1
	if pkg.Quantity > 1 {
		quantity = pkg.Quantity
		cost = cost.Mul(decimal.NewFromInt(int64(quantity)))
	}

	label := service.Nickname
	if label == "" {
		label = rate.ServiceName
	}

	carrierName := rate.CarrierName
	if carrierName == "" && o.carriers != nil {
		if c, err := o.carriers.Carrier(ctx, rate.CarrierID); err == nil && c != nil {
			carrierName = c.Name
		}
	}

	var otherCosts map[string]decimal.Decimal
	if len(adjusted.OtherCosts) > 0 {
		otherCosts = make(map[string]decimal.Decimal, len(adjusted.OtherCosts))
		for slug, amount := range adjusted.OtherCosts {
			otherCosts[slug] = amount.Mul(decimal.NewFromInt(int64(quantity)))
		}
	}

	return &Quote{
		ID:    QuoteHash(rate.ServiceCode, rate.CarrierID),
		Label: label,
		Costs: []decimal.Decimal{cost},
		Meta: QuoteMeta{
			Carrier: carrierName,
			Service: rate.ServiceName,
			Rates: []RateDetail{{
				Package:    idx,
				RawCost:    rate.Cost,
				Cost:       cost,
				Currency:   rate.Currency,
				Quantity:   quantity,
				Adjustment: adjusted.Adjustment,
				OtherCosts: adjusted.OtherCosts,
			}},
			Boxes: []BoxDetail{{
				Package:     idx,
				Name:        pkg.Name,
				Weight:      pkg.Weight,
				Dimensions:  pkg.Dimensions,
				Items:       pkg.Items,
				BoxNickname: pkg.BoxNickname,
			}},
			OtherCosts: otherCosts,
		},
	}
}
