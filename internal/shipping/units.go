package shipping

import (
	"math"
	"strings"
)

// Weight units understood by the engine, expressed in grams.
var gramsPer = map[string]float64{
	"kg":  1000,
	"g":   1,
	"lbs": 453.59237,
	"oz":  28.349523125,
}

// Dimension units understood by the engine, expressed in centimeters.
var centimetersPer = map[string]float64{
	"m":  100,
	"cm": 1,
	"mm": 0.1,
	"in": 2.54,
	"yd": 91.44,
}

// normalizeUnit maps common spellings onto the canonical unit keys.
func normalizeUnit(unit string) string {
	switch u := strings.ToLower(strings.TrimSpace(unit)); u {
	case "lb", "pound", "pounds":
		return "lbs"
	case "ounce", "ounces":
		return "oz"
	case "gram", "grams":
		return "g"
	case "kilogram", "kilograms":
		return "kg"
	case "inch", "inches":
		return "in"
	case "centimeter", "centimeters":
		return "cm"
	default:
		return u
	}
}

// TargetWeightUnit returns the unit weights are quoted in. Every store
// weight unit is accepted by the carrier API, so it is kept as is.
func TargetWeightUnit(storeUnit string) string {
	u := normalizeUnit(storeUnit)
	if _, ok := gramsPer[u]; ok {
		return u
	}
	return "lbs"
}

// TargetDimUnit returns the unit dimensions are quoted in. The carrier API
// only takes inches and centimeters.
func TargetDimUnit(storeUnit string) string {
	switch normalizeUnit(storeUnit) {
	case "in", "yd":
		return "in"
	case "cm", "m", "mm":
		return "cm"
	default:
		return "in"
	}
}

// ConvertWeight converts value between two weight units. Unknown units
// leave the value untouched.
func ConvertWeight(value float64, from, to string) float64 {
	f, okFrom := gramsPer[normalizeUnit(from)]
	t, okTo := gramsPer[normalizeUnit(to)]
	if !okFrom || !okTo || f == t {
		return value
	}
	return value * f / t
}

// ConvertDimension converts value between two length units. Unknown units
// leave the value untouched.
func ConvertDimension(value float64, from, to string) float64 {
	f, okFrom := centimetersPer[normalizeUnit(from)]
	t, okTo := centimetersPer[normalizeUnit(to)]
	if !okFrom || !okTo || f == t {
		return value
	}
	return value * f / t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
