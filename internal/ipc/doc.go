// Package ipc exposes the frame server over JSON-RPC on a loopback TCP port
// and ships the clients used by the CLI and by peer discovery.
//
// The server registers the FrameServer service and runs every call through
// a fixed-size worker pool. RendererClient speaks to the renderer's own
// Renderer service for status probes and ready notifications.
package ipc
