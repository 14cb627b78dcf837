package scene

import (
	"context"
	"fmt"
	"time"

	"framecast/internal/animation"
	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/mobject"
)

// StopCondition ends a wait early. It runs while the scene is locked and
// may read mobject state but must not call back into the Scene.
type StopCondition func() bool

type unit struct {
	index      int
	kind       keyframe.Kind
	name       string
	duration   float64
	animations []*animation.Animation
	stop       StopCondition
	skipped    bool

	clock      *clock
	settled    float64
	moving     map[string]struct{}
	replay     *replay
}

func (u *unit) info() UnitInfo {
	return UnitInfo{
		Index:    u.index,
		Kind:     u.kind,
		Name:     u.name,
		Duration: u.effectiveDuration(),
		Skipped:  u.skipped,
	}
}

func (u *unit) effectiveDuration() float64 {
	if u.settled >= 0 {
		return u.settled
	}
	return u.duration
}

func (u *unit) needsRedraw(id string) bool {
	_, ok := u.moving[id]
	return ok
}

// Play runs anims together as one unit. The unit lasts as long as the
// longest animation and stays live until the renderer releases it.
func (s *Scene) Play(ctx context.Context, anims ...*animation.Animation) error {
	if len(anims) == 0 {
		return ErrNoAnimations
	}
	s.mu.Lock()
	u := &unit{
		index:      s.cache.Len(),
		kind:       keyframe.KindPlay,
		name:       playName(anims),
		animations: anims,
		clock:      newClock(s.opts.FrameRate),
		settled:    -1,
	}
	for _, anim := range anims {
		if anim.RateFunc == nil {
			anim.RateFunc = s.opts.DefaultRateFunc
		}
		s.addLocked(anim.Target)
		if err := anim.Begin(); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("unit %d: begin %s: %w", u.index, anim, err)
		}
		u.duration = max(u.duration, anim.RunTime)
	}
	s.mu.Unlock()
	return s.runUnit(ctx, u)
}

// Wait holds the current state for duration seconds while updaters run.
// A non-positive duration waits DefaultWaitTime.
func (s *Scene) Wait(ctx context.Context, duration float64) error {
	return s.WaitUntil(ctx, nil, duration)
}

// WaitUntil holds until stop reports true or maxTime elapses, whichever
// comes first on the renderer's clock.
func (s *Scene) WaitUntil(ctx context.Context, stop StopCondition, maxTime float64) error {
	if maxTime <= 0 {
		maxTime = DefaultWaitTime
	}
	s.mu.Lock()
	u := &unit{
		index:    s.cache.Len(),
		kind:     keyframe.KindWait,
		name:     "Wait",
		duration: maxTime,
		stop:     stop,
		clock:    newClock(s.opts.FrameRate),
		settled:  -1,
	}
	s.mu.Unlock()
	return s.runUnit(ctx, u)
}

func (s *Scene) runUnit(ctx context.Context, u *unit) error {
	log := s.logger.With(logging.Int(logging.FieldUnitIndex, u.index))

	s.mu.Lock()
	u.skipped = s.skipping(u.index)
	u.moving = movingIDs(s.mobjects, u.animations)
	u.replay = newReplay(s.mobjects, u.animations, u.moving, s.opts.FrameRate)
	s.live = u
	s.mu.Unlock()

	log.Debug("unit live",
		logging.String(logging.FieldEventType, "unit_live"),
		logging.String("kind", string(u.kind)),
		logging.String("name", u.name),
		logging.Float64("duration", u.duration),
		logging.Bool("skipped", u.skipped),
	)
	s.announce(ctx, u.index)

	if u.skipped {
		s.gate.skip(u.index)
	} else if err := s.gate.await(ctx); err != nil {
		s.mu.Lock()
		s.live = nil
		s.mu.Unlock()
		return err
	}

	entry, err := s.finishUnit(u)
	if err != nil {
		return err
	}
	s.cache.Fanout(ctx, entry)
	return nil
}

// finishUnit settles the unit and moves it from live to the cache in one
// step, so State never observes it in both places or neither.
func (s *Scene) finishUnit(u *unit) (keyframe.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = nil
	// Updaters advance to the end of the unit even if the renderer never
	// asked for its final instant.
	if err := u.clock.advance(s.mobjects, u.animations, u.effectiveDuration()); err != nil {
		return keyframe.Entry{}, fmt.Errorf("unit %d: %w", u.index, err)
	}
	for _, anim := range u.animations {
		if err := anim.Finish(); err != nil {
			return keyframe.Entry{}, fmt.Errorf("unit %d: finish %s: %w", u.index, anim, err)
		}
		anim.CleanUp(lockedRemover{s})
	}
	entry := keyframe.Entry{
		Index:    u.index,
		Kind:     u.kind,
		Name:     u.name,
		Duration: u.effectiveDuration(),
		Final:    mobject.SerializeAll(s.mobjects, nil),
		Skipped:  u.skipped,
		Replay:   u.replay,
	}
	return s.cache.Insert(entry)
}

// announce tells the renderer a new unit is live if it was waiting.
func (s *Scene) announce(ctx context.Context, index int) {
	if !s.rendererWaiting.CompareAndSwap(true, false) {
		return
	}
	if s.opts.Notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.opts.Notifier.AnimationReady(notifyCtx, s.opts.Name, index); err != nil {
		logging.WarnWithContext(s.logger, "renderer notification failed", "renderer_notify_failed",
			logging.Int(logging.FieldUnitIndex, index),
			logging.Error(err),
			logging.String(logging.FieldImpact, "renderer learns about the unit on its next poll"),
			logging.String(logging.FieldErrorHint, "verify the renderer is reachable on renderer.addr"),
		)
	}
}

func playName(anims []*animation.Animation) string {
	name := anims[0].String()
	if len(anims) > 1 {
		name += "..."
	}
	return name
}

func movingIDs(mobjects []*mobject.Mobject, anims []*animation.Animation) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, anim := range anims {
		for _, member := range anim.Target.Family() {
			ids[member.ID] = struct{}{}
		}
	}
	for _, m := range mobjects {
		if !m.HasUpdaters() {
			continue
		}
		for _, member := range m.Family() {
			ids[member.ID] = struct{}{}
		}
	}
	return ids
}
