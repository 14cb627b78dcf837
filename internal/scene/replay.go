package scene

import (
	"fmt"

	"framecast/internal/animation"
	"framecast/internal/mobject"
)

// replay reconstructs any instant of a finished unit from the state captured
// when it began. The captured state is never mutated, so concurrent replays
// each work on their own copy.
type replay struct {
	mobjects   []*mobject.Mobject
	animations []*animation.Animation
	moving     map[string]struct{}
	frameRate  float64
}

func newReplay(mobjects []*mobject.Mobject, anims []*animation.Animation, moving map[string]struct{}, frameRate float64) *replay {
	r := &replay{moving: moving, frameRate: frameRate}
	r.mobjects, r.animations = cloneScene(mobjects, anims)
	return r
}

// FrameAt implements keyframe.Replayer.
func (r *replay) FrameAt(offset float64) ([]mobject.Serialized, error) {
	mobjects, anims := cloneScene(r.mobjects, r.animations)
	if err := newClock(r.frameRate).advance(mobjects, anims, offset); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if err := interpolateAll(anims, offset); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return mobject.SerializeAll(mobjects, r.needsRedraw), nil
}

func (r *replay) needsRedraw(id string) bool {
	_, ok := r.moving[id]
	return ok
}

// cloneScene deep-copies mobjects and rebinds each animation to the copy of
// its target.
func cloneScene(mobjects []*mobject.Mobject, anims []*animation.Animation) ([]*mobject.Mobject, []*animation.Animation) {
	copies := make([]*mobject.Mobject, len(mobjects))
	byID := make(map[string]*mobject.Mobject)
	for i, m := range mobjects {
		copies[i] = m.Copy()
		for _, member := range copies[i].Family() {
			byID[member.ID] = member
		}
	}
	rebound := make([]*animation.Animation, len(anims))
	for i, anim := range anims {
		target, ok := byID[anim.Target.ID]
		if !ok {
			target = anim.Target.Copy()
		}
		rebound[i] = anim.Retarget(target)
	}
	return copies, rebound
}
