package animation

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"framecast/internal/mobject"
)

const (
	// DefaultRunTime is the run time of an animation that does not set one.
	DefaultRunTime = 1.0
	// DefaultLagRatio plays every submobject in lockstep.
	DefaultLagRatio = 0.0
)

// SubmobjectFunc writes the state of one family member at alpha. end is nil
// for animations without an end state.
type SubmobjectFunc func(sub, start, end *mobject.Mobject, alpha float64) error

// setupFunc prepares the starting snapshot and end state during Begin.
type setupFunc func(a *Animation) error

// Remover is the part of a scene an animation may remove its target from.
type Remover interface {
	Remove(mobjects ...*mobject.Mobject)
}

// Animation interpolates a target mobject from a starting snapshot over
// RunTime seconds.
type Animation struct {
	Kind            string
	Target          *mobject.Mobject
	RunTime         float64
	RateFunc        RateFunc
	LagRatio        float64
	Remover         bool
	Introducer      bool
	SuspendUpdating bool
	Name            string

	setup    setupFunc
	apply    SubmobjectFunc
	starting *mobject.Mobject
	end      *mobject.Mobject
	begun    bool
}

// Option customizes an animation at construction.
type Option func(*Animation)

// WithRunTime sets the animation duration in seconds.
func WithRunTime(seconds float64) Option {
	return func(a *Animation) { a.RunTime = seconds }
}

// WithRateFunc sets the easing applied to progress.
func WithRateFunc(fn RateFunc) Option {
	return func(a *Animation) { a.RateFunc = fn }
}

// WithLagRatio staggers submobjects; 0 plays them together, 1 one after another.
func WithLagRatio(ratio float64) Option {
	return func(a *Animation) { a.LagRatio = ratio }
}

// WithName overrides the display name.
func WithName(name string) Option {
	return func(a *Animation) { a.Name = name }
}

// WithUpdaters keeps the target's updaters running during the animation.
func WithUpdaters() Option {
	return func(a *Animation) { a.SuspendUpdating = false }
}

// New builds an animation of kind over target. apply writes each
// submobject's state; a nil apply interpolates between start and end.
func New(kind string, target *mobject.Mobject, apply SubmobjectFunc, opts ...Option) *Animation {
	a := &Animation{
		Kind:            kind,
		Target:          target,
		RunTime:         DefaultRunTime,
		LagRatio:        DefaultLagRatio,
		SuspendUpdating: true,
		apply:           apply,
	}
	if a.apply == nil {
		a.apply = interpolateBetween
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// String returns the display name: Name when set, otherwise the title-cased
// kind and the target.
func (a *Animation) String() string {
	if a.Name != "" {
		return a.Name
	}
	kind := strings.ReplaceAll(cases.Title(language.English).String(a.Kind), " ", "")
	if kind == "" {
		kind = "Animation"
	}
	return kind + "(" + a.Target.String() + ")"
}

// Begin captures the starting snapshot and moves the target to alpha 0.
func (a *Animation) Begin() error {
	if a.RunTime <= 0 {
		return ErrInvalidRunTime
	}
	if a.LagRatio < 0 || a.LagRatio > 1 {
		return ErrInvalidLagRatio
	}
	if a.RateFunc == nil {
		a.RateFunc = Smooth
	}
	if a.setup != nil {
		if err := a.setup(a); err != nil {
			return err
		}
	}
	if a.starting == nil {
		a.starting = a.Target.Snapshot()
	}
	if a.SuspendUpdating {
		a.Target.SuspendUpdating()
	}
	a.begun = true
	return a.Interpolate(0)
}

// Finish moves the target to alpha 1 and resumes its updaters.
func (a *Animation) Finish() error {
	err := a.Interpolate(1)
	if a.SuspendUpdating {
		a.Target.ResumeUpdating()
	}
	return err
}

// Interpolate sets the target to its state at linear progress alpha.
// alpha is clamped to [0,1] before the rate function is applied.
func (a *Animation) Interpolate(alpha float64) error {
	if !a.begun {
		return ErrNotBegun
	}
	p := a.RateFunc(clamp01(alpha))

	targets := a.Target.FamilyWithPoints()
	starts := a.starting.FamilyWithPoints()
	var ends []*mobject.Mobject
	if a.end != nil {
		ends = a.end.FamilyWithPoints()
	}
	if len(targets) != len(starts) || (a.end != nil && len(ends) != len(targets)) {
		mismatch := &StructureMismatchError{Animation: a.String(), Target: len(targets), Starting: len(starts), End: -1}
		if a.end != nil {
			mismatch.End = len(ends)
		}
		return mismatch
	}

	n := len(targets)
	for i, sub := range targets {
		var end *mobject.Mobject
		if ends != nil {
			end = ends[i]
		}
		if err := a.apply(sub, starts[i], end, SubAlpha(p, i, n, a.LagRatio)); err != nil {
			return err
		}
	}
	return nil
}

// SubAlpha returns the local progress of submobject index out of count when
// the overall eased progress is alpha.
func SubAlpha(alpha float64, index, count int, lagRatio float64) float64 {
	fullLength := float64(count-1)*lagRatio + 1
	value := alpha * fullLength
	lower := float64(index) * lagRatio
	return clamp01(value - lower)
}

// UpdateMobjects runs the updaters of every mobject the animation handles
// other than the target. The starting and end states are snapshots without
// updaters, so they stay fixed for the life of the animation.
func (a *Animation) UpdateMobjects(dt float64) {
	if a.starting != nil {
		a.starting.Update(dt)
	}
	if a.end != nil {
		a.end.Update(dt)
	}
}

// CleanUp removes the target from scene when the animation is a remover.
func (a *Animation) CleanUp(scene Remover) {
	if a.Remover && scene != nil {
		scene.Remove(a.Target)
	}
}

// Begun reports whether Begin has captured the starting snapshot.
func (a *Animation) Begun() bool {
	return a.begun
}

// Retarget returns a begun copy of a acting on target, which must share the
// original target's structure. Snapshots are deep-copied so the copy can be
// driven independently.
func (a *Animation) Retarget(target *mobject.Mobject) *Animation {
	clone := *a
	clone.Target = target
	clone.starting = a.starting.Copy()
	clone.end = a.end.Copy()
	return &clone
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
