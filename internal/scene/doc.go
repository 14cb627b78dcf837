// Package scene runs a timeline script on its own goroutine and hands each
// unit to the frame server one at a time.
//
// A unit is either a Play of one or more animations or a Wait. While a unit
// is live the frame server computes frames from it with LiveFrame; the
// driver blocks until the renderer releases the unit, then settles it and
// publishes it to the keyframe cache. Skipped units publish immediately.
package scene
