package scene

import (
	"math"

	"framecast/internal/animation"
	"framecast/internal/mobject"
)

// DefaultFrameRate is the updater integration rate used when
// Options.FrameRate is not set.
const DefaultFrameRate = 60.0

// clock integrates updaters on a fixed timestep. The state it produces at an
// offset depends only on that offset, so a replay from the unit's starting
// state reaches the frame that was served live.
type clock struct {
	rate  float64
	steps int
}

func newClock(rate float64) *clock {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return &clock{rate: rate}
}

// stepsAt returns the number of whole steps that fit in offset.
func (c *clock) stepsAt(offset float64) int {
	return int(math.Floor(offset*c.rate + 1e-9))
}

// advance runs the remaining whole steps up to offset. Each step starts from
// the animations placed at the step's own time, so updaters see the same
// state no matter which offsets were requested on the way.
func (c *clock) advance(mobjects []*mobject.Mobject, anims []*animation.Animation, offset float64) error {
	target := c.stepsAt(offset)
	dt := 1 / c.rate
	for c.steps < target {
		if err := interpolateAll(anims, float64(c.steps)*dt); err != nil {
			return err
		}
		for _, anim := range anims {
			anim.UpdateMobjects(dt)
		}
		for _, m := range mobjects {
			m.Update(dt)
		}
		c.steps++
	}
	return nil
}

func interpolateAll(anims []*animation.Animation, offset float64) error {
	for _, anim := range anims {
		if err := anim.Interpolate(offset / anim.RunTime); err != nil {
			return err
		}
	}
	return nil
}
