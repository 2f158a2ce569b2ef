package shipping

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/oklog/ulid/v2"
)

// RateCalculator is the contract of the calculation entry point. Alternate
// implementations substituted through an Override must satisfy it.
type RateCalculator interface {
	CalculateRates(ctx context.Context, ds Dataset, opts Options) []Rate
}

// PackageFilter may rewrite the package list before any rate is requested.
type PackageFilter func(ctx context.Context, packages []PackageRequest, cfg *CalculationConfig) []PackageRequest

// Calculator is the built-in RateCalculator. It holds no per-run state and
// is safe for concurrent use.
type Calculator struct {
	provider  RateProvider
	store     SettingsStore
	products  ProductSource
	logger    *slog.Logger
	newPacker func() Packer
	filter    PackageFilter
}

type CalculatorOption func(*Calculator)

func WithLogger(logger *slog.Logger) CalculatorOption {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithPackageFilter(filter PackageFilter) CalculatorOption {
	return func(c *Calculator) {
		c.filter = filter
	}
}

// WithPacker replaces the default BoxPacker used by the custom-box strategy.
func WithPacker(newPacker func() Packer) CalculatorOption {
	return func(c *Calculator) {
		c.newPacker = newPacker
	}
}

func NewCalculator(provider RateProvider, store SettingsStore, products ProductSource, opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		provider: provider,
		store:    store,
		products: products,
		logger:   slog.Default(),
		newPacker: func() Packer {
			return NewBoxPacker()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CalculateRates runs one calculation. It never fails: every problem is
// logged and surfaces as fewer, or no, rates.
func (c *Calculator) CalculateRates(ctx context.Context, ds Dataset, opts Options) []Rate {
	runID := ulid.Make().String()
	logger := c.logger.With("run_id", runID)

	cart, destination := NewCartNormalizer(c.products, logger).Normalize(ctx, ds, opts.overrides())

	method := opts.Method
	if method == nil && opts.InstanceID > 0 && c.store != nil {
		settings, err := c.store.MethodSettings(ctx, opts.InstanceID)
		if err != nil {
			logger.WarnContext(ctx, "CalculateRates: failed to load method settings",
				"instance_id", opts.InstanceID,
				"error", err)
		} else {
			method = settings
		}
	}

	resolver := NewResolver(opts.source(), method, c.store, c.provider, logger)
	cfg := resolver.Resolve(ctx, destination)

	logger.DebugContext(ctx, "CalculateRates: starting calculation",
		"items", len(cart),
		"packing", cfg.Packing,
		"packing_sub", cfg.PackingSub,
		"weight_unit", cfg.WeightUnit,
		"dim_unit", cfg.DimUnit,
		"carriers", cfg.CarrierIDs,
		"return_lowest", cfg.ReturnLowest)

	if len(cart) == 0 {
		logger.InfoContext(ctx, "CalculateRates: nothing to pack")
		return []Rate{}
	}

	packages, err := NewStrategy(cfg, c.newPacker, logger).Pack(ctx, cart, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "CalculateRates: packing failed",
			"packing", cfg.Packing,
			"error", err)
		return []Rate{}
	}

	packages = c.filterPackages(ctx, logger, packages, cfg)
	if len(packages) == 0 {
		logger.WarnContext(ctx, "CalculateRates: no packages", "error", ErrEmptyPackages)
		return []Rate{}
	}

	quotes := NewOrchestrator(c.provider, resolver, logger).Run(ctx, packages, cfg)
	rates := Reduce(quotes, cfg)

	logger.InfoContext(ctx, "CalculateRates: calculation complete",
		"packages", len(packages),
		"quotes", quotes.Len(),
		"rates", len(rates))

	return rates
}

func (c *Calculator) filterPackages(ctx context.Context, logger *slog.Logger, packages []PackageRequest, cfg *CalculationConfig) []PackageRequest {
	if c.filter == nil {
		return packages
	}
	before := clonePackages(packages)
	after := c.filter(ctx, packages, cfg)
	if !reflect.DeepEqual(before, after) {
		logger.InfoContext(ctx, "CalculateRates: package list modified by filter",
			"before", len(before),
			"after", len(after))
	}
	return after
}

func clonePackages(packages []PackageRequest) []PackageRequest {
	if packages == nil {
		return nil
	}
	out := make([]PackageRequest, len(packages))
	for i, p := range packages {
		if p.Dimensions != nil {
			dims := *p.Dimensions
			p.Dimensions = &dims
		}
		if p.Items != nil {
			p.Items = append([]string(nil), p.Items...)
		}
		if p.Price != nil {
			price := *p.Price
			p.Price = &price
		}
		out[i] = p
	}
	return out
}

// Override may substitute the calculator used by a Host. The returned value
// is only used when it implements RateCalculator.
type Override func(base RateCalculator) any

// Host picks the calculator for each request, honoring an Override.
type Host struct {
	base     RateCalculator
	override Override
	logger   *slog.Logger
}

func NewHost(base RateCalculator, override Override, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{base: base, override: override, logger: logger}
}

// Calculator returns the substitute when the Override yields a valid one
// and the base calculator otherwise.
func (h *Host) Calculator() RateCalculator {
	if h.override == nil {
		return h.base
	}

	candidate := h.override(h.base)
	if base, ok := h.base.(*Calculator); ok {
		if same, ok := candidate.(*Calculator); ok && same == base {
			return h.base
		}
	}

	calc, ok := candidate.(RateCalculator)
	if !ok || isNil(calc) {
		h.logger.Warn("Host: calculator override rejected, not a usable RateCalculator",
			"type", fmt.Sprintf("%T", candidate))
		return h.base
	}

	h.logger.Info("Host: calculator substituted by override",
		"type", fmt.Sprintf("%T", calc))
	return calc
}

// isNil catches typed nil pointers, maps and funcs hidden in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (h *Host) CalculateRates(ctx context.Context, ds Dataset, opts Options) []Rate {
	return h.Calculator().CalculateRates(ctx, ds, opts)
}
