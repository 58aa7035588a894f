package metrics

import (
	"fmt"
	"math"
)

type prefixStep struct {
	factor float64
	symbol string
}

var siLarge = []prefixStep{
	{1e18, "E"}, {1e15, "P"}, {1e12, "T"}, {1e9, "G"}, {1e6, "M"}, {1e3, "k"},
}

var siSmall = []prefixStep{
	{1e-3, "m"}, {1e-6, "u"}, {1e-9, "n"}, {1e-12, "p"}, {1e-15, "f"}, {1e-18, "a"},
}

var iecLarge = []prefixStep{
	{1 << 60, "E"}, {1 << 50, "P"}, {1 << 40, "T"}, {1 << 30, "G"}, {1 << 20, "M"}, {1 << 10, "k"},
}

// scaleWithPrefix scales v into [1,1000) (SI) or the analogous IEC window
// using powers of 1024, per §4.9's formatting algorithm. mode is "si",
// "iec", or anything else for "none".
func scaleWithPrefix(v float64, mode string) (scaled float64, symbol string) {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v, ""
	}
	abs := math.Abs(v)
	switch mode {
	case "si":
		if abs >= 1 {
			for _, p := range siLarge {
				if abs >= p.factor {
					return v / p.factor, p.symbol
				}
			}
			return v, ""
		}
		for _, p := range siSmall {
			if abs >= p.factor {
				return v / p.factor, p.symbol
			}
		}
		return v, ""
	case "iec":
		for _, p := range iecLarge {
			if abs >= p.factor {
				return v / p.factor, p.symbol
			}
		}
		return v, ""
	default:
		return v, ""
	}
}

// Format renders v (already scaled by the metric's `scale` multiplier)
// with the metric's prefix mode and decimal precision, appending units
// when withUnits (render-level request) or showUnits (metric-level
// always-on) is set (§4.9 "Formatting").
func Format(v float64, decimals int, prefix string, units string, withUnits bool, showUnits bool) string {
	scaled, symbol := scaleWithPrefix(v, prefix)
	text := fmt.Sprintf("%.*f", decimals, scaled)
	if symbol != "" {
		text += symbol
	}
	if (withUnits || showUnits) && units != "" {
		text += units
	}
	return text
}
