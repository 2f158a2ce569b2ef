package shipping

// Options are the call-time arguments of a calculation. They take
// precedence over every stored setting.
type Options struct {
	WeightUnit        string                  `json:"weight_unit,omitempty" validate:"omitempty,oneof=kg g lbs lb oz"`
	DimUnit           string                  `json:"dim_unit,omitempty" validate:"omitempty,oneof=m cm mm in yd"`
	Cart              CartOverride            `json:"cart"`
	Items             map[string]ItemOverride `json:"items,omitempty"`
	CustomBoxes       []CustomBox             `json:"customboxes,omitempty"`
	MinWeight         *float64                `json:"minweight,omitempty" validate:"omitempty,gte=0"`
	Packing           PackingStrategy         `json:"packing,omitempty" validate:"omitempty,oneof=individual onebox wc-box-packer"`
	PackingSub        OneBoxMode              `json:"packing_sub,omitempty" validate:"omitempty,oneof=weightonly stacked"`
	To                *Address                `json:"to,omitempty"`
	From              *Address                `json:"from,omitempty"`
	InstanceID        int                     `json:"instance_id,omitempty" validate:"gte=0"`
	ReturnLowest      *bool                   `json:"return_lowest,omitempty"`
	ReturnLowestLabel string                  `json:"return_lowest_label,omitempty"`

	// Method binds the settings of a shipping method directly, bypassing
	// the InstanceID lookup.
	Method Source `json:"-"`

	// Extra carries any other argument, addressable by the Resolver.
	Extra map[string]any `json:"-"`
}

func (o Options) overrides() Overrides {
	return Overrides{Cart: o.Cart, Items: o.Items}
}

// source exposes the set options as the call-time configuration layer.
func (o Options) source() MapSource {
	src := MapSource{}
	for k, v := range o.Extra {
		src[k] = v
	}
	if o.WeightUnit != "" {
		src["weight_unit"] = o.WeightUnit
	}
	if o.DimUnit != "" {
		src["dim_unit"] = o.DimUnit
	}
	if len(o.CustomBoxes) > 0 {
		src["customboxes"] = o.CustomBoxes
	}
	if o.MinWeight != nil {
		src["minweight"] = *o.MinWeight
	}
	if o.Packing != "" {
		src["packing"] = string(o.Packing)
	}
	if o.PackingSub != "" {
		src["packing_sub"] = string(o.PackingSub)
	}
	if o.To != nil {
		src["to"] = *o.To
	}
	if o.From != nil {
		src["from"] = *o.From
	}
	if o.ReturnLowest != nil {
		src["return_lowest"] = *o.ReturnLowest
	}
	if o.ReturnLowestLabel != "" {
		src["return_lowest_label"] = o.ReturnLowestLabel
	}
	return src
}
