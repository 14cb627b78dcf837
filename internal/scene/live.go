package scene

import (
	"fmt"

	"framecast/internal/keyframe"
	"framecast/internal/mobject"
)

// Frame is the serialized scene at one instant of a unit.
type Frame struct {
	Mobjects []mobject.Serialized
	// Stopped is set when a wait unit's stop condition held after the frame
	// was computed.
	Stopped bool
}

// LiveFrame computes the frame of the live unit index at offset seconds.
// It returns ErrUnitNotLive once the unit has moved to the cache.
func (s *Scene) LiveFrame(index int, offset float64) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.live
	if u == nil || u.index != index {
		return Frame{}, ErrUnitNotLive
	}
	// The clock only moves forward; a rewound offset replays no updater time.
	if err := u.clock.advance(s.mobjects, u.animations, offset); err != nil {
		return Frame{}, fmt.Errorf("unit %d: %w", u.index, err)
	}
	if err := interpolateAll(u.animations, offset); err != nil {
		return Frame{}, fmt.Errorf("unit %d: %w", u.index, err)
	}

	frame := Frame{Mobjects: mobject.SerializeAll(s.mobjects, u.needsRedraw)}
	if u.kind == keyframe.KindWait && u.stop != nil && u.settled < 0 {
		frame.Stopped = u.stop()
	}
	return frame, nil
}

// StopWait settles the live wait unit index at offset and releases it. It
// reports whether this call woke the driver.
func (s *Scene) StopWait(index int, offset float64) bool {
	s.mu.Lock()
	u := s.live
	if u == nil || u.index != index || u.kind != keyframe.KindWait {
		s.mu.Unlock()
		return false
	}
	if u.settled < 0 {
		u.settled = max(offset, 0)
	}
	s.mu.Unlock()
	return s.Release(index)
}
