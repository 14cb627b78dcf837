// Package keyframe holds the append-only record of finished timeline units.
package keyframe
