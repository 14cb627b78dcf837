package scenes

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"framecast/internal/animation"
	"framecast/internal/mobject"
	"framecast/internal/scene"
)

// Palette colours shared by the built-in scenes.
const (
	Orange     = "#ffa001"
	OrangeDark = "#fc7400"
	Cyan       = "#00b49d"
	CyanDark   = "#007563"
	Dark       = "#012523"
)

// ErrUnknownScene is returned by Lookup for names that are not registered.
var ErrUnknownScene = errors.New("unknown scene")

// Definition is a named timeline.
type Definition struct {
	Name        string
	Description string
	Script      scene.Script
}

var registry = map[string]Definition{}

func register(def Definition) {
	registry[def.Name] = def
}

func init() {
	register(Definition{
		Name:        "square_to_circle",
		Description: "draws a square, morphs it into a circle and fades it out",
		Script:      squareToCircle,
	})
	register(Definition{
		Name:        "staggered_row",
		Description: "fades in a row of squares one after another, then shifts and recolours it",
		Script:      staggeredRow,
	})
	register(Definition{
		Name:        "orbiting_dot",
		Description: "waits while an updater moves a dot until it reaches the far side",
		Script:      orbitingDot,
	})
}

// Lookup returns the scene registered under name.
func Lookup(name string) (Definition, error) {
	def, ok := registry[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w %q (available: %v)", ErrUnknownScene, name, Names())
	}
	return def, nil
}

// Names lists registered scene names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every definition ordered by name.
func All() []Definition {
	names := Names()
	defs := make([]Definition, len(names))
	for i, name := range names {
		defs[i] = registry[name]
	}
	return defs
}

func squareToCircle(ctx context.Context, s *scene.Scene) error {
	orange, err := mobject.FilledStyle(Orange, 0.5)
	if err != nil {
		return err
	}
	cyan, err := mobject.FilledStyle(Cyan, 0.5)
	if err != nil {
		return err
	}
	square := mobject.Square("square", 2, orange)
	circle := mobject.Circle("circle", 1, 64, cyan)

	if err := s.Play(ctx, animation.ShowCreation(square)); err != nil {
		return err
	}
	if err := s.Play(ctx, animation.Transform(square, circle, animation.WithRunTime(1.5))); err != nil {
		return err
	}
	if err := s.Wait(ctx, 1); err != nil {
		return err
	}
	return s.Play(ctx, animation.FadeOut(square))
}

func staggeredRow(ctx context.Context, s *scene.Scene) error {
	style, err := mobject.FilledStyle(OrangeDark, 0.8)
	if err != nil {
		return err
	}
	row := mobject.NewGroup("row")
	for i := 0; i < 5; i++ {
		row.Add(mobject.Square("cell", 0.8, style).Shift(mobject.Point{X: float64(i-2) * 1.2}))
	}

	if err := s.Play(ctx, animation.FadeIn(row, animation.WithLagRatio(0.5), animation.WithRunTime(2))); err != nil {
		return err
	}
	err = s.Play(ctx,
		animation.Shift(row, mobject.Point{Y: 1.5}, animation.WithLagRatio(0.2), animation.WithRateFunc(animation.RushFrom)),
	)
	if err != nil {
		return err
	}
	if err := s.Play(ctx, animation.SetColor(row, CyanDark, animation.WithLagRatio(1))); err != nil {
		return err
	}
	return s.Wait(ctx, 0.5)
}

// orbitingDot moves a dot counter-clockwise around the origin. The updater
// steps on the scene's fixed frame rate, so cached replays trace the same
// orbit the live frames did.
func orbitingDot(ctx context.Context, s *scene.Scene) error {
	style, err := mobject.FilledStyle(Cyan, 1)
	if err != nil {
		return err
	}
	const omega = 1.0
	dot := mobject.Dot("dot", mobject.Point{X: 2}, style)
	dot.AddUpdater(func(m *mobject.Mobject, dt float64) {
		c := m.Center()
		m.Shift(mobject.Point{X: -c.Y * omega * dt, Y: c.X * omega * dt})
	})
	orbit := mobject.Circle("orbit", 2, 64, mobject.DefaultStyle())

	if err := s.Play(ctx, animation.ShowCreation(orbit), animation.FadeIn(dot)); err != nil {
		return err
	}
	farSide := func() bool { return dot.Center().X < -1.5 }
	if err := s.WaitUntil(ctx, farSide, 10); err != nil {
		return err
	}
	return s.Play(ctx, animation.SetColor(dot, Orange))
}
