// Package events publishes a JSON message to MQTT for every keyframe the
// scene driver completes, one topic per scene.
package events
