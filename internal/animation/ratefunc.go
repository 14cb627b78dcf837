package animation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fogleman/ease"
)

// RateFunc maps linear progress in [0,1] to eased progress.
type RateFunc func(t float64) float64

// Linear leaves progress unchanged.
func Linear(t float64) float64 { return ease.Linear(t) }

// Smooth eases in and out.
func Smooth(t float64) float64 { return ease.InOutCubic(t) }

// RushInto starts slowly and ends at full speed.
func RushInto(t float64) float64 { return ease.InQuad(t) }

// RushFrom starts at full speed and settles.
func RushFrom(t float64) float64 { return ease.OutQuad(t) }

// SlowInto follows a quarter circle into the end state.
func SlowInto(t float64) float64 { return ease.OutCirc(t) }

// DoubleSmooth eases each half of the motion separately.
func DoubleSmooth(t float64) float64 {
	if t < 0.5 {
		return 0.5 * Smooth(2*t)
	}
	return 0.5 * (1 + Smooth(2*t-1))
}

// ThereAndBack goes to the end state and returns to the start. It ends at 0,
// so it is only available through WithRateFunc and cannot be looked up by
// name as a default.
func ThereAndBack(t float64) float64 {
	if t < 0.5 {
		return Smooth(2 * t)
	}
	return Smooth(2 - 2*t)
}

var rateFuncs = map[string]RateFunc{
	"linear":        Linear,
	"smooth":        Smooth,
	"rush_into":     RushInto,
	"rush_from":     RushFrom,
	"slow_into":     SlowInto,
	"double_smooth": DoubleSmooth,
}

// LookupRateFunc resolves a rate function by its configuration name.
func LookupRateFunc(name string) (RateFunc, error) {
	fn, ok := rateFuncs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown rate function %q (known: %s)", name, strings.Join(RateFuncNames(), ", "))
	}
	return fn, nil
}

// RateFuncNames lists registered rate function names in sorted order.
func RateFuncNames() []string {
	names := make([]string, 0, len(rateFuncs))
	for name := range rateFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
