package mobject

// SerializedStyle is the wire form of Style.
type SerializedStyle struct {
	FillColor     string  `json:"fill_color"`
	FillOpacity   float64 `json:"fill_opacity"`
	StrokeColor   string  `json:"stroke_color"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	StrokeWidth   float64 `json:"stroke_width"`
}

// Serialized is the wire form of a single mobject with points.
type Serialized struct {
	ID          string          `json:"id"`
	NeedsRedraw bool            `json:"needs_redraw"`
	Points      [][3]float64    `json:"points"`
	Style       SerializedStyle `json:"style"`
}

// Serialize flattens the family members of m that carry points. redraw
// reports whether a given ID changed since the renderer last saw it; nil
// marks every entry for redraw.
func (m *Mobject) Serialize(redraw func(id string) bool) []Serialized {
	members := m.FamilyWithPoints()
	out := make([]Serialized, 0, len(members))
	for _, member := range members {
		out = append(out, member.serializeSelf(redraw == nil || redraw(member.ID)))
	}
	return out
}

func (m *Mobject) serializeSelf(needsRedraw bool) Serialized {
	points := make([][3]float64, len(m.Points))
	for i, p := range m.Points {
		points[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return Serialized{
		ID:          m.ID,
		NeedsRedraw: needsRedraw,
		Points:      points,
		Style: SerializedStyle{
			FillColor:     m.Style.FillColor.Clamped().Hex(),
			FillOpacity:   m.Style.FillOpacity,
			StrokeColor:   m.Style.StrokeColor.Clamped().Hex(),
			StrokeOpacity: m.Style.StrokeOpacity,
			StrokeWidth:   m.Style.StrokeWidth,
		},
	}
}

// SerializeAll serializes several top-level mobjects in order.
func SerializeAll(mobjects []*Mobject, redraw func(id string) bool) []Serialized {
	var out []Serialized
	for _, m := range mobjects {
		out = append(out, m.Serialize(redraw)...)
	}
	return out
}
