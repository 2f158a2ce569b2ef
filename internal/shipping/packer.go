package shipping

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Strategy turns a cart into the packages that will be quoted.
type Strategy interface {
	Pack(ctx context.Context, cart Cart, cfg *CalculationConfig) ([]PackageRequest, error)
}

// NewStrategy returns the strategy configured for the run.
func NewStrategy(cfg *CalculationConfig, newPacker func() Packer, logger *slog.Logger) Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Packing {
	case PackingOneBox:
		return &OneBoxStrategy{logger: logger}
	case PackingCustomBoxes:
		return &CustomBoxStrategy{newPacker: newPacker, logger: logger}
	default:
		return &IndividualStrategy{logger: logger}
	}
}

// itemWeight returns the item weight, falling back to the configured
// minimum weight.
func itemWeight(item CartItem, cfg *CalculationConfig) float64 {
	if w := item.Weight(); w > 0 {
		return w
	}
	return cfg.MinWeight
}

// IndividualStrategy ships every cart line in its own package.
type IndividualStrategy struct {
	logger *slog.Logger
}

func (s *IndividualStrategy) Pack(ctx context.Context, cart Cart, cfg *CalculationConfig) ([]PackageRequest, error) {
	weightUnit := TargetWeightUnit(cfg.WeightUnit)
	dimUnit := TargetDimUnit(cfg.DimUnit)

	packages := make([]PackageRequest, 0, len(cart))
	for _, item := range cart {
		if !item.NeedsShipping() {
			continue
		}

		weight := itemWeight(item, cfg)

		var dims []float64
		for _, d := range []float64{item.Length(), item.Width(), item.Height()} {
			if d > 0 {
				dims = append(dims, d)
			}
		}

		if weight <= 0 || len(dims) < 3 {
			return nil, fmt.Errorf("item %s: %w", item.Key, ErrMissingItemData)
		}

		sort.Float64s(dims)
		packages = append(packages, PackageRequest{
			Name: item.Product.Name,
			Weight: Weight{
				Value: round2(ConvertWeight(weight, cfg.WeightUnit, weightUnit)),
				Unit:  weightUnit,
			},
			Dimensions: &Dimensions{
				Length: round2(ConvertDimension(dims[2], cfg.DimUnit, dimUnit)),
				Width:  round2(ConvertDimension(dims[1], cfg.DimUnit, dimUnit)),
				Height: round2(ConvertDimension(dims[0], cfg.DimUnit, dimUnit)),
				Unit:   dimUnit,
			},
			Items:       []string{item.Label()},
			PackageCode: "package",
			ItemKey:     item.Key,
			Quantity:    item.Quantity,
		})
	}

	return packages, nil
}

// OneBoxStrategy ships the whole cart as a single package.
type OneBoxStrategy struct {
	logger *slog.Logger
}

func (s *OneBoxStrategy) Pack(ctx context.Context, cart Cart, cfg *CalculationConfig) ([]PackageRequest, error) {
	var (
		totalWeight float64
		maxLength   float64
		maxWidth    float64
		totalHeight float64
		labels      []string
	)

	for _, item := range cart {
		if !item.NeedsShipping() {
			continue
		}

		weight := itemWeight(item, cfg)
		if weight <= 0 {
			return nil, fmt.Errorf("item %s: %w", item.Key, ErrMissingItemData)
		}

		qty := float64(item.Quantity)
		totalWeight += weight * qty
		labels = append(labels, item.Label())

		if cfg.PackingSub == OneBoxStacked {
			totalHeight += item.Height() * qty
			maxLength = max(maxLength, item.Length())
			maxWidth = max(maxWidth, item.Width())
		}
	}

	if len(labels) == 0 {
		return nil, nil
	}

	weightUnit := TargetWeightUnit(cfg.WeightUnit)
	pkg := PackageRequest{
		Name: "One Box",
		Weight: Weight{
			Value: round2(ConvertWeight(totalWeight, cfg.WeightUnit, weightUnit)),
			Unit:  weightUnit,
		},
		Items:       labels,
		PackageCode: "package",
	}

	if cfg.PackingSub == OneBoxStacked {
		if maxLength > 0 && maxWidth > 0 && totalHeight > 0 {
			dimUnit := TargetDimUnit(cfg.DimUnit)
			pkg.Dimensions = &Dimensions{
				Length: round2(ConvertDimension(maxLength, cfg.DimUnit, dimUnit)),
				Width:  round2(ConvertDimension(maxWidth, cfg.DimUnit, dimUnit)),
				Height: round2(ConvertDimension(totalHeight, cfg.DimUnit, dimUnit)),
				Unit:   dimUnit,
			}
		} else {
			s.logger.WarnContext(ctx, "OneBoxStrategy: incomplete stacked dimensions, quoting by weight only",
				"length", maxLength,
				"width", maxWidth,
				"height", totalHeight,
				"weight", totalWeight)
		}
	}

	return []PackageRequest{pkg}, nil
}

// CustomBoxStrategy packs the cart into the operator's custom boxes.
type CustomBoxStrategy struct {
	newPacker func() Packer
	logger    *slog.Logger
}

func (s *CustomBoxStrategy) Pack(ctx context.Context, cart Cart, cfg *CalculationConfig) ([]PackageRequest, error) {
	if len(cfg.CustomBoxes) == 0 {
		s.logger.WarnContext(ctx, "CustomBoxStrategy: no active custom boxes, packing individually")
		return (&IndividualStrategy{logger: s.logger}).Pack(ctx, cart, cfg)
	}

	var packer Packer
	if s.newPacker != nil {
		packer = s.newPacker()
	}
	if packer == nil {
		packer = NewBoxPacker()
	}

	for _, box := range cfg.CustomBoxes {
		packer.AddBox(box)
	}

	for _, item := range cart {
		if !item.NeedsShipping() {
			continue
		}
		weight := itemWeight(item, cfg)
		l, w, h := item.Length(), item.Width(), item.Height()
		if weight <= 0 || l <= 0 || w <= 0 || h <= 0 {
			return nil, fmt.Errorf("item %s: %w", item.Key, ErrMissingItemData)
		}
		for i := 0; i < item.Quantity; i++ {
			packer.AddItem(l, w, h, weight, item.Product.Price, item.Label())
		}
	}

	packer.Pack()

	weightUnit := TargetWeightUnit(cfg.WeightUnit)
	dimUnit := TargetDimUnit(cfg.DimUnit)

	packed := packer.Packages()
	packages := make([]PackageRequest, 0, len(packed))
	for i, p := range packed {
		s.logger.DebugContext(ctx, "CustomBoxStrategy: packed box",
			"index", i,
			"box", p.Box.Nickname,
			"packed", !p.Unpacked,
			"item_count", len(p.Items),
			"dimensions", fmt.Sprintf("%gx%gx%g", p.Length, p.Width, p.Height),
			"weight", p.Weight,
			"max_volume", p.MaxVolume)

		pkg := PackageRequest{
			Name: p.Box.Nickname,
			Weight: Weight{
				Value: round2(ConvertWeight(p.Weight, cfg.WeightUnit, weightUnit)),
				Unit:  weightUnit,
			},
			Dimensions: &Dimensions{
				Length: round2(ConvertDimension(p.Length, cfg.DimUnit, dimUnit)),
				Width:  round2(ConvertDimension(p.Width, cfg.DimUnit, dimUnit)),
				Height: round2(ConvertDimension(p.Height, cfg.DimUnit, dimUnit)),
				Unit:   dimUnit,
			},
			Items:       p.Items,
			PackageCode: "package",
		}
		if !p.Unpacked {
			price := p.Box.Price
			pkg.BoxNickname = p.Box.Nickname
			pkg.BoxWeight = round2(ConvertWeight(p.Box.BoxWeight, cfg.WeightUnit, weightUnit))
			pkg.MaxWeight = round2(ConvertWeight(p.Box.MaxWeight, cfg.WeightUnit, weightUnit))
			pkg.CarrierCode = p.Box.CarrierCode
			pkg.Price = &price
		} else if len(p.Items) > 0 {
			pkg.Name = p.Items[0]
		}
		packages = append(packages, pkg)
	}

	return packages, nil
}
