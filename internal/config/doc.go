// Package config loads, normalizes, and validates framecast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FRAMECAST_RENDERER_PATH. The Config type centralizes the frame server bind
// address, the renderer peer, scene playback switches, and the optional
// keyframe journal and event publisher.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
