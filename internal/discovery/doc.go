// Package discovery makes sure a renderer is serving the scene on startup.
//
// It probes the renderer's status endpoint once. When nothing answers the
// configured renderer command is started detached; other failures surface
// to the caller.
package discovery
