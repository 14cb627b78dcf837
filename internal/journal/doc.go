// Package journal archives published keyframes in SQLite so past sessions
// can be inspected after the server exits.
//
// Each serving session gets a row in sessions; every keyframe the cache
// publishes is stored with its final frame as JSON. The schema is versioned
// and a journal written by another version is rejected.
package journal
