package mobject

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultStrokeWidth matches the renderer's default line width.
const DefaultStrokeWidth = 4.0

// Style carries the fill and stroke attributes of a mobject.
type Style struct {
	FillColor     colorful.Color
	FillOpacity   float64
	StrokeColor   colorful.Color
	StrokeOpacity float64
	StrokeWidth   float64
}

// DefaultStyle is a white stroke with no fill.
func DefaultStyle() Style {
	white, _ := colorful.Hex("#ffffff")
	return Style{
		FillColor:     white,
		StrokeColor:   white,
		StrokeOpacity: 1,
		StrokeWidth:   DefaultStrokeWidth,
	}
}

// FilledStyle returns a style with both fill and stroke set to hex.
func FilledStyle(hex string, fillOpacity float64) (Style, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return Style{}, err
	}
	return Style{
		FillColor:     c,
		FillOpacity:   fillOpacity,
		StrokeColor:   c,
		StrokeOpacity: 1,
		StrokeWidth:   DefaultStrokeWidth,
	}, nil
}

// ParseColor decodes a #rrggbb colour.
func ParseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("parse colour %q: %w", hex, err)
	}
	return c, nil
}

// Interpolate blends s toward other. Colours blend in RGB so that endpoints
// are reproduced exactly.
func (s Style) Interpolate(other Style, alpha float64) Style {
	return Style{
		FillColor:     s.FillColor.BlendRgb(other.FillColor, alpha).Clamped(),
		FillOpacity:   lerp(s.FillOpacity, other.FillOpacity, alpha),
		StrokeColor:   s.StrokeColor.BlendRgb(other.StrokeColor, alpha).Clamped(),
		StrokeOpacity: lerp(s.StrokeOpacity, other.StrokeOpacity, alpha),
		StrokeWidth:   lerp(s.StrokeWidth, other.StrokeWidth, alpha),
	}
}

func lerp(a, b, alpha float64) float64 {
	return a + (b-a)*alpha
}
