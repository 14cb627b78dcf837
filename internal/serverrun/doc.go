// Package serverrun assembles the framecast runtime: it takes the
// single-instance lock, builds the logger, opens the keyframe journal and the
// MQTT emitter, starts the scene driver and the frame server, and makes sure a
// renderer is listening.
package serverrun
