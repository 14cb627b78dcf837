package animation

import (
	"fmt"
	"math"

	"framecast/internal/mobject"
)

func interpolateBetween(sub, start, end *mobject.Mobject, alpha float64) error {
	if end == nil {
		end = start
	}
	return sub.Interpolate(start, end, alpha)
}

// Transform morphs target into the shape and style of into. Point counts
// are aligned on Begin.
func Transform(target, into *mobject.Mobject, opts ...Option) *Animation {
	a := New("transform", target, nil, opts...)
	a.setup = func(a *Animation) error {
		end := into.Snapshot()
		if err := a.Target.MatchPoints(end); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
		a.end = end
		return nil
	}
	return a
}

// FadeIn introduces target from full transparency.
func FadeIn(target *mobject.Mobject, opts ...Option) *Animation {
	a := New("fade in", target, nil, opts...)
	a.Introducer = true
	a.setup = func(a *Animation) error {
		a.end = a.Target.Snapshot()
		a.starting = a.Target.Snapshot().SetOpacity(0)
		return nil
	}
	return a
}

// FadeOut fades target to transparency and removes it from the scene.
func FadeOut(target *mobject.Mobject, opts ...Option) *Animation {
	a := New("fade out", target, nil, opts...)
	a.Remover = true
	a.setup = func(a *Animation) error {
		a.end = a.Target.Snapshot().SetOpacity(0)
		return nil
	}
	return a
}

// Shift moves target by offset.
func Shift(target *mobject.Mobject, offset mobject.Point, opts ...Option) *Animation {
	a := New("shift", target, nil, opts...)
	a.setup = func(a *Animation) error {
		a.end = a.Target.Snapshot().Shift(offset)
		return nil
	}
	return a
}

// SetColor recolours the fill and stroke of target.
func SetColor(target *mobject.Mobject, hex string, opts ...Option) *Animation {
	a := New("set color", target, nil, opts...)
	a.setup = func(a *Animation) error {
		c, err := mobject.ParseColor(hex)
		if err != nil {
			return err
		}
		end := a.Target.Snapshot()
		for _, member := range end.Family() {
			member.Style.FillColor = c
			member.Style.StrokeColor = c
		}
		a.end = end
		return nil
	}
	return a
}

// ShowCreation draws target's outline progressively from its first point.
func ShowCreation(target *mobject.Mobject, opts ...Option) *Animation {
	a := New("show creation", target, drawPartial, opts...)
	a.Introducer = true
	return a
}

// drawPartial keeps the point count fixed and collapses the undrawn tail
// onto the pen position.
func drawPartial(sub, start, _ *mobject.Mobject, alpha float64) error {
	n := len(start.Points)
	if len(sub.Points) != n {
		sub.Points = make([]mobject.Point, n)
	}
	sub.Style = start.Style
	if n < 2 {
		copy(sub.Points, start.Points)
		return nil
	}
	for j := range sub.Points {
		pos := alpha * float64(j)
		lo := int(math.Floor(pos))
		if lo >= n-1 {
			sub.Points[j] = start.Points[n-1]
			continue
		}
		sub.Points[j] = start.Points[lo].Lerp(start.Points[lo+1], pos-float64(lo))
	}
	return nil
}
