// Package main hosts the framecast CLI entrypoint and command graph.
//
// `framecast serve` runs the frame server for one scene. The remaining
// commands inspect a running server over JSON-RPC (status, frame), read the
// keyframe journal (sessions, keyframes), list the built-in scenes and
// scaffold configuration.
package main
