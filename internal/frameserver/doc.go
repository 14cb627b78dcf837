// Package frameserver resolves (unit index, time offset) requests to frames.
//
// A request below the cache length replays a finished keyframe; a request at
// the cache length reads the live unit. When the offset runs past a unit's
// duration the service either steps into the next unit's local time (cached
// units) or releases the scene driver and reports the frame as pending (the
// live unit). Requests beyond the live unit fail with ErrSkipForward.
package frameserver
