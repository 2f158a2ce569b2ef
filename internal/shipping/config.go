package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type PackingStrategy string

const (
	PackingIndividual  PackingStrategy = "individual"
	PackingOneBox      PackingStrategy = "onebox"
	PackingCustomBoxes PackingStrategy = "wc-box-packer"
)

type OneBoxMode string

const (
	OneBoxWeightOnly OneBoxMode = "weightonly"
	OneBoxStacked    OneBoxMode = "stacked"
)

const (
	AdjustmentPercentage = "percentage"
	AdjustmentFlat       = "flat"
)

// Source is one layer of configuration values. Values are JSON shaped:
// maps, slices, strings, numbers and booleans.
type Source interface {
	Lookup(key string) (any, bool)
}

// MapSource is a Source backed by a plain map.
type MapSource map[string]any

func (m MapSource) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// SettingsStore holds the persisted option layers.
type SettingsStore interface {
	// PluginOption returns a plugin-wide setting.
	PluginOption(ctx context.Context, key string) (any, bool, error)
	// PlatformOption returns a commerce platform default such as the store
	// units or the store address.
	PlatformOption(ctx context.Context, key string) (any, bool, error)
	// MethodSettings returns the option layer of one shipping method instance.
	MethodSettings(ctx context.Context, instanceID int) (Source, error)
}

// CustomBox is an operator defined box used by the custom-box strategy.
// Dimensions and weights are in the store's units.
type CustomBox struct {
	Active      bool            `json:"active"`
	Nickname    string          `json:"nickname" validate:"required"`
	OuterLength float64         `json:"outer_length" validate:"gt=0"`
	OuterWidth  float64         `json:"outer_width" validate:"gt=0"`
	OuterHeight float64         `json:"outer_height" validate:"gt=0"`
	InnerLength float64         `json:"inner_length" validate:"gte=0"`
	InnerWidth  float64         `json:"inner_width" validate:"gte=0"`
	InnerHeight float64         `json:"inner_height" validate:"gte=0"`
	BoxWeight   float64         `json:"box_weight" validate:"gte=0"`
	MaxWeight   float64         `json:"max_weight" validate:"gte=0"`
	Price       decimal.Decimal `json:"price"`
	CarrierCode string          `json:"carrier_code,omitempty"`
}

// inner returns the usable inner dimensions, falling back to the outer
// ones when the operator left them blank.
func (b CustomBox) inner() (l, w, h float64) {
	l, w, h = b.InnerLength, b.InnerWidth, b.InnerHeight
	if l <= 0 || w <= 0 || h <= 0 {
		return b.OuterLength, b.OuterWidth, b.OuterHeight
	}
	return l, w, h
}

// ServiceSetting is the operator's row for one enabled carrier service.
// Adjustment is nil when the operator never set it.
type ServiceSetting struct {
	Nickname       string
	Adjustment     *decimal.Decimal
	AdjustmentType string
}

type GlobalAdjustment struct {
	Amount decimal.Decimal
	Type   string
}

// CalculationConfig is the resolved, read-only parameter set of one run.
type CalculationConfig struct {
	WeightUnit        string
	DimUnit           string
	Packing           PackingStrategy
	PackingSub        OneBoxMode
	MinWeight         float64
	CustomBoxes       []CustomBox
	CarrierIDs        []string
	Services          map[string]map[string]ServiceSetting
	GlobalAdjustment  GlobalAdjustment
	Origin            Address
	Destination       Address
	ReturnLowest      bool
	ReturnLowestLabel string
}

// Service returns the enabled service entry for a carrier.
func (c *CalculationConfig) Service(carrierID, serviceCode string) (ServiceSetting, bool) {
	services, ok := c.Services[carrierID]
	if !ok {
		return ServiceSetting{}, false
	}
	s, ok := services[serviceCode]
	return s, ok
}

// Resolver resolves calculation parameters from call-time arguments, the
// bound method instance, plugin settings and platform defaults, in that
// order. A Resolver belongs to a single calculation run.
type Resolver struct {
	args     MapSource
	method   Source
	store    SettingsStore
	provider RateProvider
	validate *validator.Validate
	logger   *slog.Logger

	warehouses map[string]*Warehouse
	carriers   map[string]*Carrier
}

func NewResolver(args MapSource, method Source, store SettingsStore, provider RateProvider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if args == nil {
		args = MapSource{}
	}
	return &Resolver{
		args:       args,
		method:     method,
		store:      store,
		provider:   provider,
		validate:   validator.New(),
		logger:     logger,
		warehouses: make(map[string]*Warehouse),
		carriers:   make(map[string]*Carrier),
	}
}

// Get resolves a dot or slash delimited path. Bare keys go through the
// call-time args and then the method instance; "ssopt." paths go through
// the call-time args and then the plugin settings; "services_enabled" is
// derived from the instance's services table.
func (r *Resolver) Get(ctx context.Context, path string, def any) any {
	segments := splitPath(path)
	if len(segments) == 0 {
		return def
	}

	if segments[0] == "services_enabled" {
		enabled := r.servicesEnabled()
		if len(enabled) == 0 {
			return def
		}
		return enabled
	}

	if segments[0] == "ssopt" {
		if len(segments) < 2 {
			return def
		}
		if v, ok := traverse(r.args, segments[1:]); ok {
			return v
		}
		if v, ok := r.pluginOption(ctx, segments[1:]); ok {
			return v
		}
		return def
	}

	if v, ok := traverse(r.args, segments); ok {
		return v
	}
	if r.method != nil {
		if v, ok := traverse(r.method, segments); ok {
			return v
		}
	}
	return def
}

// layered walks every layer, including the plugin settings and platform
// defaults, and returns the first value found.
func (r *Resolver) layered(ctx context.Context, key string) (any, bool) {
	segments := splitPath(key)
	if v, ok := traverse(r.args, segments); ok {
		return v, true
	}
	if r.method != nil {
		if v, ok := traverse(r.method, segments); ok {
			return v, true
		}
	}
	if v, ok := r.pluginOption(ctx, segments); ok {
		return v, true
	}
	if r.store != nil {
		v, ok, err := r.store.PlatformOption(ctx, segments[0])
		if err != nil {
			r.logger.Warn("Resolver: platform option lookup failed", "key", key, "error", err)
			return nil, false
		}
		if ok {
			return traverseValue(v, segments[1:])
		}
	}
	return nil, false
}

func (r *Resolver) pluginOption(ctx context.Context, segments []string) (any, bool) {
	if r.store == nil || len(segments) == 0 {
		return nil, false
	}
	v, ok, err := r.store.PluginOption(ctx, segments[0])
	if err != nil {
		r.logger.Warn("Resolver: plugin option lookup failed", "key", segments[0], "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return traverseValue(v, segments[1:])
}

func (r *Resolver) String(ctx context.Context, path, def string) string {
	if s, ok := toString(r.Get(ctx, path, nil)); ok && s != "" {
		return s
	}
	return def
}

func (r *Resolver) Bool(ctx context.Context, path string, def bool) bool {
	if b, ok := toBool(r.Get(ctx, path, nil)); ok {
		return b
	}
	return def
}

func (r *Resolver) Decimal(ctx context.Context, path string, def decimal.Decimal) decimal.Decimal {
	if d, ok := toDecimal(r.Get(ctx, path, nil)); ok {
		return d
	}
	return def
}

func (r *Resolver) layeredString(ctx context.Context, key, def string) string {
	v, _ := r.layered(ctx, key)
	if s, ok := toString(v); ok && s != "" {
		return s
	}
	return def
}

func (r *Resolver) layeredFloat(ctx context.Context, key string, def float64) float64 {
	v, _ := r.layered(ctx, key)
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}

// servicesEnabled filters the instance services table down to enabled
// rows, grouped by carrier then service code.
func (r *Resolver) servicesEnabled() map[string]map[string]ServiceSetting {
	var raw any
	if v, ok := r.args.Lookup("services"); ok {
		raw = v
	} else if r.method != nil {
		raw, _ = r.method.Lookup("services")
	}

	carriers, ok := asMap(raw)
	if !ok {
		return nil
	}

	out := make(map[string]map[string]ServiceSetting)
	for carrierID, rawServices := range carriers {
		services, ok := asMap(rawServices)
		if !ok {
			continue
		}
		for code, rawRow := range services {
			row, ok := asMap(rawRow)
			if !ok {
				continue
			}
			if enabled, _ := toBool(row["enabled"]); !enabled {
				continue
			}
			setting := ServiceSetting{}
			setting.Nickname, _ = toString(row["nickname"])
			setting.AdjustmentType, _ = toString(row["adjustment_type"])
			if rawAdj, present := row["adjustment"]; present && rawAdj != nil {
				adj, _ := toDecimal(rawAdj)
				setting.Adjustment = &adj
			}
			if out[carrierID] == nil {
				out[carrierID] = make(map[string]ServiceSetting)
			}
			out[carrierID][code] = setting
		}
	}
	return out
}

// Warehouse returns the warehouse, looked up at most once per run.
func (r *Resolver) Warehouse(ctx context.Context, id string) (*Warehouse, error) {
	if wh, ok := r.warehouses[id]; ok {
		return wh, nil
	}
	if r.provider == nil {
		return nil, fmt.Errorf("warehouse %s: no rate provider", id)
	}
	wh, err := r.provider.GetWarehouse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("warehouse %s: %w", id, err)
	}
	r.warehouses[id] = wh
	return wh, nil
}

// Carrier returns the carrier catalog entry, looked up at most once per run.
func (r *Resolver) Carrier(ctx context.Context, id string) (*Carrier, error) {
	if c, ok := r.carriers[id]; ok {
		return c, nil
	}
	if r.provider == nil {
		return nil, fmt.Errorf("carrier %s: no rate provider", id)
	}
	c, err := r.provider.GetCarrier(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("carrier %s: %w", id, err)
	}
	r.carriers[id] = c
	return c, nil
}

// Resolve builds the CalculationConfig of the run. cartDestination is the
// destination carried by a cart shaped dataset, if any.
func (r *Resolver) Resolve(ctx context.Context, cartDestination *Address) *CalculationConfig {
	cfg := &CalculationConfig{
		WeightUnit:        normalizeUnit(r.layeredString(ctx, "weight_unit", "lbs")),
		DimUnit:           normalizeUnit(r.layeredString(ctx, "dim_unit", "in")),
		Packing:           PackingStrategy(r.layeredString(ctx, "packing", string(PackingIndividual))),
		PackingSub:        OneBoxMode(r.layeredString(ctx, "packing_sub", string(OneBoxWeightOnly))),
		ReturnLowest:      r.Bool(ctx, "return_lowest", false),
		ReturnLowestLabel: r.String(ctx, "return_lowest_label", ""),
	}

	switch cfg.Packing {
	case PackingIndividual, PackingOneBox, PackingCustomBoxes:
	default:
		r.logger.Warn("Resolver: unknown packing strategy, using individual", "packing", cfg.Packing)
		cfg.Packing = PackingIndividual
	}
	switch cfg.PackingSub {
	case OneBoxWeightOnly, OneBoxStacked:
	default:
		cfg.PackingSub = OneBoxWeightOnly
	}

	cfg.MinWeight = r.layeredFloat(ctx, "minweight", 0)

	cfg.CustomBoxes = r.activeBoxes(ctx)

	cfg.Services = r.servicesEnabled()
	for carrierID := range cfg.Services {
		cfg.CarrierIDs = append(cfg.CarrierIDs, carrierID)
	}
	sort.Strings(cfg.CarrierIDs)

	cfg.GlobalAdjustment = r.globalAdjustment(ctx)
	cfg.Origin = r.origin(ctx)

	if to, ok := decodeAddress(r.Get(ctx, "to", nil)); ok {
		cfg.Destination = to
	} else if cartDestination != nil {
		cfg.Destination = *cartDestination
	}

	return cfg
}

func (r *Resolver) activeBoxes(ctx context.Context) []CustomBox {
	raw, ok := r.layered(ctx, "customboxes")
	if !ok {
		return nil
	}
	var boxes []CustomBox
	if err := decodeValue(raw, &boxes); err != nil {
		r.logger.Warn("Resolver: unreadable custom boxes", "error", err)
		return nil
	}

	active := make([]CustomBox, 0, len(boxes))
	for _, box := range boxes {
		if !box.Active {
			continue
		}
		if err := r.validate.Struct(box); err != nil {
			r.logger.Warn("Resolver: skipping invalid custom box", "nickname", box.Nickname, "error", err)
			continue
		}
		active = append(active, box)
	}
	return active
}

func (r *Resolver) globalAdjustment(ctx context.Context) GlobalAdjustment {
	ga := GlobalAdjustment{
		Amount: r.Decimal(ctx, "ssopt.global_adjustment", decimal.Zero),
		Type:   r.String(ctx, "ssopt.global_adjustment_type", ""),
	}
	if r.Get(ctx, "ssopt.global_adjustment", nil) == nil {
		// Older settings were saved under a misspelled key.
		ga.Amount = r.Decimal(ctx, "ssopt.global_asjustment", decimal.Zero)
	}
	if ga.Type == "" && !ga.Amount.IsZero() {
		ga.Type = AdjustmentPercentage
	}
	return ga
}

// origin resolves the ship-from address: an explicit override, then the
// configured warehouse, then the store address.
func (r *Resolver) origin(ctx context.Context) Address {
	if from, ok := decodeAddress(r.Get(ctx, "from", nil)); ok {
		return from
	}

	warehouseID := r.String(ctx, "warehouse", "")
	if warehouseID == "" {
		warehouseID = r.String(ctx, "ssopt.warehouse", "")
	}
	if warehouseID != "" {
		wh, err := r.Warehouse(ctx, warehouseID)
		if err == nil {
			return wh.OriginAddress
		}
		r.logger.Warn("Resolver: warehouse lookup failed, using store address", "warehouse_id", warehouseID, "error", err)
	}

	if v, ok := r.layered(ctx, "store_address"); ok {
		if addr, ok := decodeAddress(v); ok {
			return addr
		}
	}
	return Address{}
}

func splitPath(path string) []string {
	fields := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '/' })
	return fields
}

func traverse(src Source, segments []string) (any, bool) {
	if src == nil || len(segments) == 0 {
		return nil, false
	}
	v, ok := src.Lookup(segments[0])
	if !ok {
		return nil, false
	}
	return traverseValue(v, segments[1:])
}

func traverseValue(v any, segments []string) (any, bool) {
	for _, seg := range segments {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			v = next
		case MapSource:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			v = node[idx]
		default:
			return nil, false
		}
	}
	return v, v != nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case MapSource:
		return m, true
	}
	return nil, false
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decodeValue converts a settings value, either JSON shaped maps or values
// that are already typed, into out. Fields match on their json tags.
func decodeValue(v any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       decimalHook,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}

func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	if d, ok := toDecimal(data); ok {
		return d, nil
	}
	return data, nil
}

func decodeAddress(v any) (Address, bool) {
	switch a := v.(type) {
	case nil:
		return Address{}, false
	case Address:
		return a, !a.IsZero()
	case *Address:
		if a == nil {
			return Address{}, false
		}
		return *a, !a.IsZero()
	}
	var addr Address
	if err := decodeValue(v, &addr); err != nil {
		return Address{}, false
	}
	return addr, !addr.IsZero()
}

func toString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	str, err := cast.ToStringE(v)
	return str, err == nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil, bool:
		return 0, false
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case string:
		v = strings.TrimSpace(n)
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}
	if f, ok := toFloat(v); ok {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Zero, false
}

// toBool accepts booleans, numbers and the "yes"/"no" strings settings
// forms store.
func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case nil:
		return false, false
	case string:
		b = strings.ToLower(strings.TrimSpace(b))
		switch b {
		case "yes", "on":
			return true, true
		case "no", "off", "":
			return false, true
		}
		v = b
	case float64:
		return b != 0, true
	}
	out, err := cast.ToBoolE(v)
	return out, err == nil
}
