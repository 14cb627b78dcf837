package mobject

import (
	"fmt"

	"github.com/google/uuid"
)

// Point is a position in scene space.
type Point struct {
	X, Y, Z float64
}

// Add returns p translated by v.
func (p Point) Add(v Point) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y, Z: p.Z + v.Z}
}

// Lerp returns the point a fraction alpha of the way from p to q.
func (p Point) Lerp(q Point, alpha float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*alpha,
		Y: p.Y + (q.Y-p.Y)*alpha,
		Z: p.Z + (q.Z-p.Z)*alpha,
	}
}

// Updater mutates a mobject given the seconds elapsed since its last update.
type Updater func(m *Mobject, dt float64)

// Mobject is a node in the animated object graph.
type Mobject struct {
	ID          string
	Name        string
	Points      []Point
	Style       Style
	Submobjects []*Mobject

	updaters  []Updater
	suspended bool
}

// New constructs a mobject with a fresh identifier.
func New(name string, points []Point, style Style) *Mobject {
	return &Mobject{
		ID:     uuid.NewString(),
		Name:   name,
		Points: append([]Point(nil), points...),
		Style:  style,
	}
}

// NewGroup constructs a pointless parent for the given children.
func NewGroup(name string, children ...*Mobject) *Mobject {
	m := New(name, nil, DefaultStyle())
	m.Submobjects = append(m.Submobjects, children...)
	return m
}

func (m *Mobject) String() string {
	if m == nil {
		return "<nil>"
	}
	if m.Name != "" {
		return m.Name
	}
	return "Mobject"
}

// Add appends children to m.
func (m *Mobject) Add(children ...*Mobject) *Mobject {
	m.Submobjects = append(m.Submobjects, children...)
	return m
}

// Copy returns a deep copy of m. Identifiers and updaters are preserved.
func (m *Mobject) Copy() *Mobject {
	if m == nil {
		return nil
	}
	clone := &Mobject{
		ID:        m.ID,
		Name:      m.Name,
		Points:    append([]Point(nil), m.Points...),
		Style:     m.Style,
		updaters:  append([]Updater(nil), m.updaters...),
		suspended: m.suspended,
	}
	if len(m.Submobjects) > 0 {
		clone.Submobjects = make([]*Mobject, len(m.Submobjects))
		for i, child := range m.Submobjects {
			clone.Submobjects[i] = child.Copy()
		}
	}
	return clone
}

// Snapshot returns a deep copy of m without updaters. Nothing advances a
// snapshot, so it can serve as a fixed reference state.
func (m *Mobject) Snapshot() *Mobject {
	clone := m.Copy()
	for _, member := range clone.Family() {
		member.updaters = nil
		member.suspended = false
	}
	return clone
}

// Family returns m followed by every descendant in depth-first order.
func (m *Mobject) Family() []*Mobject {
	if m == nil {
		return nil
	}
	out := []*Mobject{m}
	for _, child := range m.Submobjects {
		out = append(out, child.Family()...)
	}
	return out
}

// FamilyWithPoints returns the members of Family that carry geometry. The
// ordering is the structural position used to zip a mobject with its copies.
func (m *Mobject) FamilyWithPoints() []*Mobject {
	family := m.Family()
	out := family[:0:0]
	for _, member := range family {
		if len(member.Points) > 0 {
			out = append(out, member)
		}
	}
	return out
}

// Shift translates every point in the family by v.
func (m *Mobject) Shift(v Point) *Mobject {
	for _, member := range m.Family() {
		for i := range member.Points {
			member.Points[i] = member.Points[i].Add(v)
		}
	}
	return m
}

// Center returns the midpoint of the family's bounding box.
func (m *Mobject) Center() Point {
	var (
		minP, maxP Point
		seen       bool
	)
	for _, member := range m.Family() {
		for _, p := range member.Points {
			if !seen {
				minP, maxP, seen = p, p, true
				continue
			}
			minP = Point{X: min(minP.X, p.X), Y: min(minP.Y, p.Y), Z: min(minP.Z, p.Z)}
			maxP = Point{X: max(maxP.X, p.X), Y: max(maxP.Y, p.Y), Z: max(maxP.Z, p.Z)}
		}
	}
	return minP.Lerp(maxP, 0.5)
}

// MoveTo shifts m so that its center lands on target.
func (m *Mobject) MoveTo(target Point) *Mobject {
	c := m.Center()
	return m.Shift(Point{X: target.X - c.X, Y: target.Y - c.Y, Z: target.Z - c.Z})
}

// SetFill sets the fill colour and opacity across the family.
func (m *Mobject) SetFill(hex string, opacity float64) error {
	c, err := ParseColor(hex)
	if err != nil {
		return err
	}
	for _, member := range m.Family() {
		member.Style.FillColor = c
		member.Style.FillOpacity = opacity
	}
	return nil
}

// SetOpacity sets both fill and stroke opacity across the family.
func (m *Mobject) SetOpacity(opacity float64) *Mobject {
	for _, member := range m.Family() {
		member.Style.FillOpacity = opacity
		member.Style.StrokeOpacity = opacity
	}
	return m
}

// MatchPoints resamples m so every family member with points has the same
// count as its structural counterpart in other.
func (m *Mobject) MatchPoints(other *Mobject) error {
	mine := m.FamilyWithPoints()
	theirs := other.FamilyWithPoints()
	if len(mine) != len(theirs) {
		return fmt.Errorf("match points: %d members with points vs %d", len(mine), len(theirs))
	}
	for i := range mine {
		n := max(len(mine[i].Points), len(theirs[i].Points))
		mine[i].Points = Resample(mine[i].Points, n)
		theirs[i].Points = Resample(theirs[i].Points, n)
	}
	return nil
}

// Resample returns n points spaced evenly by index along the polyline pts.
func Resample(pts []Point, n int) []Point {
	if len(pts) == n || len(pts) == 0 || n <= 0 {
		return pts
	}
	if len(pts) == 1 || n == 1 {
		out := make([]Point, n)
		for i := range out {
			out[i] = pts[0]
		}
		return out
	}
	out := make([]Point, n)
	last := float64(len(pts) - 1)
	for i := range out {
		pos := float64(i) * last / float64(n-1)
		lo := int(pos)
		if lo >= len(pts)-1 {
			out[i] = pts[len(pts)-1]
			continue
		}
		out[i] = pts[lo].Lerp(pts[lo+1], pos-float64(lo))
	}
	return out
}

// Interpolate sets m's own points and style to the blend of start and end at
// alpha. Point counts of start and end must agree.
func (m *Mobject) Interpolate(start, end *Mobject, alpha float64) error {
	if len(start.Points) != len(end.Points) {
		return fmt.Errorf("interpolate %s: %d points vs %d", m, len(start.Points), len(end.Points))
	}
	if len(m.Points) != len(start.Points) {
		m.Points = make([]Point, len(start.Points))
	}
	for i := range start.Points {
		m.Points[i] = start.Points[i].Lerp(end.Points[i], alpha)
	}
	m.Style = start.Style.Interpolate(end.Style, alpha)
	return nil
}
