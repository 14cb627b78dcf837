// Package mobject provides the minimal object graph animated by framecast.
//
// A Mobject owns a polyline of points, a fill/stroke style, an ordered list of
// submobjects, and optional updaters that evolve it with elapsed time. The
// package offers deep copies that preserve identifiers, structural traversal
// (Family, FamilyWithPoints), point resampling so two shapes can be
// interpolated, and serialization into the wire form renderers consume.
//
// Mobjects are not safe for concurrent use. The scene driver serializes access
// to live objects and historical replays operate on private copies.
package mobject
