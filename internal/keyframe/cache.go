package keyframe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"framecast/internal/logging"
	"framecast/internal/mobject"
)

// Kind distinguishes animation units from waits.
type Kind string

const (
	KindPlay Kind = "play"
	KindWait Kind = "wait"
)

var (
	// ErrIndexOutOfRange is returned by Get for indices not yet published.
	ErrIndexOutOfRange = errors.New("keyframe index out of range")
	// ErrOutOfOrder is returned by Append when an entry skips or repeats an index.
	ErrOutOfOrder = errors.New("keyframe appended out of order")
)

// Replayer recomputes a finished unit's frame at a local time offset.
type Replayer interface {
	FrameAt(offset float64) ([]mobject.Serialized, error)
}

// Entry is the immutable record of a finished unit.
type Entry struct {
	Index       int
	Kind        Kind
	Name        string
	Duration    float64
	Final       []mobject.Serialized
	Skipped     bool
	PublishedAt time.Time
	Replay      Replayer
}

// FrameAt returns the unit's frame at offset seconds into it. Entries
// without a replayer answer every offset with their final frame.
func (e Entry) FrameAt(offset float64) ([]mobject.Serialized, error) {
	if e.Replay == nil {
		return e.Final, nil
	}
	return e.Replay.FrameAt(offset)
}

// Sink receives every entry appended to a Cache.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Cache is an append-only, index-addressed store of finished units.
type Cache struct {
	mu      sync.RWMutex
	entries []Entry
	sinks   []Sink
	logger  *slog.Logger
}

// NewCache returns an empty cache.
func NewCache(logger *slog.Logger) *Cache {
	return &Cache{logger: logging.NewComponentLogger(logger, "keyframe")}
}

// AddSink registers s to receive subsequently appended entries.
func (c *Cache) AddSink(s Sink) {
	if s == nil {
		return
	}
	c.mu.Lock()
	c.sinks = append(c.sinks, s)
	c.mu.Unlock()
}

// Append inserts entry and hands it to every sink.
func (c *Cache) Append(ctx context.Context, entry Entry) error {
	stored, err := c.Insert(entry)
	if err != nil {
		return err
	}
	c.Fanout(ctx, stored)
	return nil
}

// Insert stores entry without notifying sinks. Its index must equal the
// current length.
func (c *Cache) Insert(entry Entry) (Entry, error) {
	if entry.PublishedAt.IsZero() {
		entry.PublishedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.Index != len(c.entries) {
		return Entry{}, fmt.Errorf("%w: got index %d, expected %d", ErrOutOfOrder, entry.Index, len(c.entries))
	}
	c.entries = append(c.entries, entry)

	c.logger.Debug("keyframe published",
		logging.Int(logging.FieldUnitIndex, entry.Index),
		logging.String("kind", string(entry.Kind)),
		logging.String("name", entry.Name),
		logging.Float64("duration", entry.Duration),
	)
	return entry, nil
}

// Fanout hands entry to every registered sink. Sink failures are logged.
func (c *Cache) Fanout(ctx context.Context, entry Entry) {
	c.mu.RLock()
	sinks := append([]Sink(nil), c.sinks...)
	c.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Publish(ctx, entry); err != nil {
			logging.WarnWithContext(c.logger, "keyframe sink failed", "keyframe_sink_failed",
				logging.Int(logging.FieldUnitIndex, entry.Index),
				logging.Error(err),
				logging.String(logging.FieldImpact, "keyframe missing from journal or event stream"),
				logging.String(logging.FieldErrorHint, "check journal path and broker connectivity"),
			)
		}
	}
}

// Get returns the entry at index.
func (c *Cache) Get(index int) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.entries) {
		return Entry{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(c.entries))
	}
	return c.entries[index], nil
}

// Len returns the number of published entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a snapshot of every published entry.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}
