package keyframe_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/mobject"
)

type recordingSink struct {
	mu      sync.Mutex
	indices []int
	err     error
}

func (s *recordingSink) Publish(_ context.Context, entry keyframe.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indices = append(s.indices, entry.Index)
	return s.err
}

type offsetReplay struct{}

func (offsetReplay) FrameAt(offset float64) ([]mobject.Serialized, error) {
	return []mobject.Serialized{{ID: "x", Points: [][3]float64{{offset, 0, 0}}}}, nil
}

func TestAppendEnforcesOrder(t *testing.T) {
	cache := keyframe.NewCache(logging.NewNop())
	ctx := context.Background()

	if err := cache.Append(ctx, keyframe.Entry{Index: 0, Kind: keyframe.KindPlay}); err != nil {
		t.Fatalf("Append(0): %v", err)
	}
	if err := cache.Append(ctx, keyframe.Entry{Index: 2}); !errors.Is(err, keyframe.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder for gap, got %v", err)
	}
	if err := cache.Append(ctx, keyframe.Entry{Index: 0}); !errors.Is(err, keyframe.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder for repeat, got %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected length 1, got %d", cache.Len())
	}
}

func TestGetOutOfRange(t *testing.T) {
	cache := keyframe.NewCache(nil)
	if _, err := cache.Get(0); !errors.Is(err, keyframe.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := cache.Get(-1); !errors.Is(err, keyframe.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange for negative index, got %v", err)
	}
}

func TestEntriesAreStable(t *testing.T) {
	cache := keyframe.NewCache(nil)
	ctx := context.Background()
	final := []mobject.Serialized{{ID: "a"}}
	if err := cache.Append(ctx, keyframe.Entry{Index: 0, Name: "first", Duration: 2, Final: final}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	for i := 1; i < 5; i++ {
		if err := cache.Append(ctx, keyframe.Entry{Index: i}); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	entry, err := cache.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Name != "first" || entry.Duration != 2 || entry.PublishedAt.IsZero() {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	frame, err := entry.FrameAt(1.5)
	if err != nil || len(frame) != 1 || frame[0].ID != "a" {
		t.Fatalf("expected final frame without replayer, got %v %v", frame, err)
	}
}

func TestEntryReplay(t *testing.T) {
	entry := keyframe.Entry{Replay: offsetReplay{}}
	frame, err := entry.FrameAt(0.75)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if frame[0].Points[0][0] != 0.75 {
		t.Fatalf("expected replay at offset, got %v", frame)
	}
}

func TestSinksReceiveEntriesAndFailuresDoNotBlock(t *testing.T) {
	cache := keyframe.NewCache(logging.NewNop())
	good := &recordingSink{}
	bad := &recordingSink{err: errors.New("broker down")}
	cache.AddSink(bad)
	cache.AddSink(good)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := cache.Append(ctx, keyframe.Entry{Index: i}); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if len(good.indices) != 3 || len(bad.indices) != 3 {
		t.Fatalf("expected both sinks to see 3 entries, got %v and %v", good.indices, bad.indices)
	}
}

func TestConcurrentReadersDuringAppend(t *testing.T) {
	cache := keyframe.NewCache(nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				n := cache.Len()
				if n > 0 {
					if _, err := cache.Get(n - 1); err != nil {
						t.Errorf("Get(%d): %v", n-1, err)
						return
					}
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		if err := cache.Append(ctx, keyframe.Entry{Index: i}); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	wg.Wait()
}
