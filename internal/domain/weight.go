package domain

import (
	"fmt"
	"math"
	"strings"
)

// PoundsPerKg is the fixed display factor. kg -> lb -> kg is not exact and is not corrected.
const PoundsPerKg = 2.20462

func KgToLb(kg float64) float64 { return kg * PoundsPerKg }

func LbToKg(lb float64) float64 { return lb / PoundsPerKg }

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FormatPounds renders a kilogram value as pounds with 2 decimals, e.g. "9.92 lb".
func FormatPounds(kg float64) string {
	return fmt.Sprintf("%.2f lb", RoundTo(KgToLb(kg), 2))
}

// ToKg converts a user-entered weight to kilograms.
func ToKg(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("weight must be > 0")
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kg":
		return value, nil
	case "lb", "lbs":
		return LbToKg(value), nil
	default:
		return 0, fmt.Errorf("invalid weight unit %q (use kg or lb)", unit)
	}
}
