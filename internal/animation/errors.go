package animation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBegun is returned when an animation is interpolated before Begin.
	ErrNotBegun = errors.New("animation not begun")
	// ErrInvalidRunTime is returned by Begin for a non-positive run time.
	ErrInvalidRunTime = errors.New("run time must be positive")
	// ErrInvalidLagRatio is returned by Begin for a lag ratio outside [0,1].
	ErrInvalidLagRatio = errors.New("lag ratio must be within [0,1]")
)

// StructureMismatchError reports that the target and its snapshots no longer
// share the same family layout, so they cannot be zipped by position.
type StructureMismatchError struct {
	Animation string
	Target    int
	Starting  int
	End       int
}

func (e *StructureMismatchError) Error() string {
	if e.End < 0 {
		return fmt.Sprintf("%s: structure mismatch: target has %d members with points, starting snapshot %d",
			e.Animation, e.Target, e.Starting)
	}
	return fmt.Sprintf("%s: structure mismatch: target has %d members with points, starting snapshot %d, end state %d",
		e.Animation, e.Target, e.Starting, e.End)
}
