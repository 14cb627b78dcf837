package mobject

import "math"

// Polygon builds a closed polyline through vertices.
func Polygon(name string, style Style, vertices ...Point) *Mobject {
	pts := append([]Point(nil), vertices...)
	if len(pts) > 0 {
		pts = append(pts, pts[0])
	}
	return New(name, pts, style)
}

// RegularPolygon builds an n-sided polygon of the given circumradius centred
// on the origin, with its first vertex at angle start.
func RegularPolygon(name string, n int, radius, start float64, style Style) *Mobject {
	vertices := make([]Point, n)
	for i := range vertices {
		theta := start + 2*math.Pi*float64(i)/float64(n)
		vertices[i] = Point{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	}
	return Polygon(name, style, vertices...)
}

// Square builds an axis-aligned square with the given side length.
func Square(name string, side float64, style Style) *Mobject {
	return RegularPolygon(name, 4, side/math.Sqrt2, math.Pi/4, style)
}

// Circle approximates a circle with samples vertices.
func Circle(name string, radius float64, samples int, style Style) *Mobject {
	return RegularPolygon(name, samples, radius, 0, style)
}

// Dot builds a small filled circle centred on p.
func Dot(name string, p Point, style Style) *Mobject {
	return Circle(name, 0.08, 16, style).Shift(p)
}

// Line builds an open two-point segment.
func Line(name string, from, to Point, style Style) *Mobject {
	return New(name, []Point{from, to}, style)
}
