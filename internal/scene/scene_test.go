package scene_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"framecast/internal/animation"
	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/mobject"
	"framecast/internal/scene"
)

type recordingNotifier struct {
	calls chan int
}

func (n *recordingNotifier) AnimationReady(_ context.Context, _ string, index int) error {
	n.calls <- index
	return nil
}

func newScene(t *testing.T, opts scene.Options) (*scene.Scene, *keyframe.Cache) {
	t.Helper()
	if opts.Name == "" {
		opts.Name = "test"
	}
	opts.Logger = logging.NewNop()
	cache := keyframe.NewCache(opts.Logger)
	return scene.New(cache, opts), cache
}

func waitLive(t *testing.T, s *scene.Scene, index int) scene.UnitInfo {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := s.State(); st.Live != nil && st.Live.Index == index {
			return *st.Live
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("unit %d never became live (state %+v)", index, s.State())
	return scene.UnitInfo{}
}

func waitDone(t *testing.T, s *scene.Scene) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("scene did not finish (state %+v)", s.State())
	}
}

func shiftScript(square *mobject.Mobject, units int) scene.Script {
	return func(ctx context.Context, s *scene.Scene) error {
		for i := 0; i < units; i++ {
			anim := animation.Shift(square, mobject.Point{X: 1}, animation.WithRateFunc(animation.Linear))
			if err := s.Play(ctx, anim); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestSingleUnitLifecycle(t *testing.T) {
	s, cache := newScene(t, scene.Options{})
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	s.Start(context.Background(), shiftScript(square, 1))

	info := waitLive(t, s, 0)
	if info.Kind != keyframe.KindPlay || info.Duration != 1 {
		t.Fatalf("unexpected live unit %+v", info)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache while unit is live, got %d", cache.Len())
	}

	frame, err := s.LiveFrame(0, 0.5)
	if err != nil {
		t.Fatalf("LiveFrame: %v", err)
	}
	if len(frame.Mobjects) != 1 || !frame.Mobjects[0].NeedsRedraw {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if got := square.Center().X; math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected center x 0.5 at half time, got %v", got)
	}

	if !s.Release(0) {
		t.Fatal("expected first release to wake the driver")
	}
	waitDone(t, s)

	if err := s.Err(); err != nil {
		t.Fatalf("scene error: %v", err)
	}
	entry, err := cache.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Name != "Shift(square)" || entry.Duration != 1 || entry.Skipped {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if got := square.Center().X; math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected finished center x 1, got %v", got)
	}
	st := s.State()
	if !st.Finished || st.Live != nil || st.Cached != 1 {
		t.Fatalf("unexpected final state %+v", st)
	}
	if _, err := s.LiveFrame(0, 0.5); !errors.Is(err, scene.ErrUnitNotLive) {
		t.Fatalf("expected ErrUnitNotLive after finish, got %v", err)
	}
}

func TestConcurrentReleaseWakesOnce(t *testing.T) {
	s, _ := newScene(t, scene.Options{})
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	s.Start(context.Background(), shiftScript(square, 1))
	waitLive(t, s, 0)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Release(0) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	waitDone(t, s)

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winning release, got %d", wins.Load())
	}
}

func TestSkipAnimationsPublishesWithoutRenderer(t *testing.T) {
	s, cache := newScene(t, scene.Options{SkipAnimations: true})
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	if err := s.Run(context.Background(), shiftScript(square, 3)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", cache.Len())
	}
	for _, entry := range cache.Entries() {
		if !entry.Skipped {
			t.Fatalf("expected entry %d to be skipped", entry.Index)
		}
	}
	if got := square.Center().X; math.Abs(got-3) > 1e-9 {
		t.Fatalf("expected skipped units to apply their end state, got x %v", got)
	}
}

func TestFromUnitSkipsEarlierUnits(t *testing.T) {
	s, cache := newScene(t, scene.Options{FromUnit: 1})
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	s.Start(context.Background(), shiftScript(square, 2))

	info := waitLive(t, s, 1)
	if info.Skipped {
		t.Fatalf("unit 1 should not be skipped: %+v", info)
	}
	entry, err := cache.Get(0)
	if err != nil || !entry.Skipped {
		t.Fatalf("expected unit 0 skipped in cache, got %+v (%v)", entry, err)
	}
	s.Release(1)
	waitDone(t, s)
}

func TestWaitStopConditionSettlesDuration(t *testing.T) {
	s, cache := newScene(t, scene.Options{})
	var stop atomic.Bool
	s.Start(context.Background(), func(ctx context.Context, s *scene.Scene) error {
		return s.WaitUntil(ctx, func() bool { return stop.Load() }, 5)
	})
	info := waitLive(t, s, 0)
	if info.Kind != keyframe.KindWait || info.Duration != 5 {
		t.Fatalf("unexpected wait unit %+v", info)
	}

	frame, err := s.LiveFrame(0, 0.1)
	if err != nil {
		t.Fatalf("LiveFrame: %v", err)
	}
	if frame.Stopped {
		t.Fatal("stop condition should not hold yet")
	}
	stop.Store(true)
	frame, err = s.LiveFrame(0, 0.25)
	if err != nil {
		t.Fatalf("LiveFrame: %v", err)
	}
	if !frame.Stopped {
		t.Fatal("expected stop condition to hold")
	}
	if !s.StopWait(0, 0.25) {
		t.Fatal("expected StopWait to release the unit")
	}
	waitDone(t, s)

	entry, err := cache.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Kind != keyframe.KindWait || entry.Duration != 0.25 {
		t.Fatalf("unexpected wait entry %+v", entry)
	}
}

func TestWaitRunsUpdaters(t *testing.T) {
	s, _ := newScene(t, scene.Options{SkipAnimations: true})
	dot := mobject.Dot("dot", mobject.Point{}, mobject.DefaultStyle())
	dot.AddUpdater(func(m *mobject.Mobject, dt float64) {
		m.Shift(mobject.Point{X: dt})
	})
	err := s.Run(context.Background(), func(ctx context.Context, s *scene.Scene) error {
		s.Add(dot)
		return s.Wait(ctx, 2)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dot.Center().X; math.Abs(got-2) > 1e-9 {
		t.Fatalf("expected updater to advance 2s, got x %v", got)
	}
}

func TestCachedReplayMatchesLiveFrame(t *testing.T) {
	s, cache := newScene(t, scene.Options{})
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	s.Start(context.Background(), shiftScript(square, 1))
	waitLive(t, s, 0)

	live, err := s.LiveFrame(0, 0.3)
	if err != nil {
		t.Fatalf("LiveFrame: %v", err)
	}
	s.Release(0)
	waitDone(t, s)

	entry, err := cache.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	replayed, err := entry.FrameAt(0.3)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if !reflect.DeepEqual(live.Mobjects, replayed) {
		t.Fatalf("replay diverged from live frame:\nlive   %+v\nreplay %+v", live.Mobjects, replayed)
	}
	// Replays never touch the scene's own mobjects.
	if got := square.Center().X; math.Abs(got-1) > 1e-9 {
		t.Fatalf("replay mutated scene state, x %v", got)
	}
}

func rotate(m *mobject.Mobject, dt float64) {
	c := m.Center()
	m.Shift(mobject.Point{X: -c.Y * dt, Y: c.X * dt})
}

func TestCachedReplayMatchesLiveFrameWithUpdaters(t *testing.T) {
	tests := []struct {
		name   string
		script func(dot *mobject.Mobject) scene.Script
	}{
		{
			name: "wait",
			script: func(dot *mobject.Mobject) scene.Script {
				return func(ctx context.Context, s *scene.Scene) error {
					s.Add(dot)
					return s.Wait(ctx, 2)
				}
			},
		},
		{
			name: "play with updaters",
			script: func(dot *mobject.Mobject) scene.Script {
				return func(ctx context.Context, s *scene.Scene) error {
					return s.Play(ctx, animation.SetColor(dot, "#ff0000", animation.WithUpdaters(), animation.WithRunTime(2)))
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, cache := newScene(t, scene.Options{})
			dot := mobject.Dot("dot", mobject.Point{X: 2}, mobject.DefaultStyle())
			dot.AddUpdater(rotate)
			s.Start(context.Background(), tt.script(dot))
			waitLive(t, s, 0)

			live := make(map[int][]mobject.Serialized)
			for i := 1; i <= 10; i++ {
				frame, err := s.LiveFrame(0, float64(i)/10)
				if err != nil {
					t.Fatalf("LiveFrame: %v", err)
				}
				live[i] = frame.Mobjects
			}
			if reflect.DeepEqual(live[1], live[10]) {
				t.Fatal("expected frames to change over the unit")
			}
			s.Release(0)
			waitDone(t, s)

			entry, err := cache.Get(0)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			for _, i := range []int{1, 5, 10} {
				replayed, err := entry.FrameAt(float64(i) / 10)
				if err != nil {
					t.Fatalf("FrameAt: %v", err)
				}
				if !reflect.DeepEqual(live[i], replayed) {
					t.Fatalf("offset %.1f: replay diverged from live frame:\nlive   %+v\nreplay %+v", float64(i)/10, live[i], replayed)
				}
			}
		})
	}
}

func TestSuspendedTargetHoldsPosition(t *testing.T) {
	s, cache := newScene(t, scene.Options{})
	dot := mobject.Dot("dot", mobject.Point{X: 2}, mobject.DefaultStyle())
	dot.AddUpdater(rotate)
	s.Start(context.Background(), func(ctx context.Context, s *scene.Scene) error {
		return s.Play(ctx, animation.SetColor(dot, "#ff0000"))
	})
	waitLive(t, s, 0)

	first, err := s.LiveFrame(0, 0)
	if err != nil {
		t.Fatalf("LiveFrame: %v", err)
	}
	later, err := s.LiveFrame(0, 0.9)
	if err != nil {
		t.Fatalf("LiveFrame: %v", err)
	}
	if !reflect.DeepEqual(first.Mobjects[0].Points, later.Mobjects[0].Points) {
		t.Fatalf("suspended target moved:\nt=0   %v\nt=0.9 %v", first.Mobjects[0].Points, later.Mobjects[0].Points)
	}
	s.Release(0)
	waitDone(t, s)

	entry, err := cache.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	replayed, err := entry.FrameAt(0.9)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if !reflect.DeepEqual(later.Mobjects, replayed) {
		t.Fatalf("replay diverged from live frame:\nlive   %+v\nreplay %+v", later.Mobjects, replayed)
	}
}

func TestNotifierCalledWhenRendererWaits(t *testing.T) {
	notifier := &recordingNotifier{calls: make(chan int, 4)}
	s, _ := newScene(t, scene.Options{Notifier: notifier})
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	s.Start(context.Background(), shiftScript(square, 2))

	waitLive(t, s, 0)
	select {
	case index := <-notifier.calls:
		t.Fatalf("renderer was not waiting, but notifier got %d", index)
	default:
	}

	s.Release(0)
	select {
	case index := <-notifier.calls:
		if index != 1 {
			t.Fatalf("expected notification for unit 1, got %d", index)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
	if s.RendererWaiting() {
		t.Fatal("expected waiting flag to clear after notification")
	}
	s.Release(1)
	waitDone(t, s)
}

func TestRunTwiceFails(t *testing.T) {
	s, _ := newScene(t, scene.Options{SkipAnimations: true})
	noop := func(context.Context, *scene.Scene) error { return nil }
	if err := s.Run(context.Background(), noop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Run(context.Background(), noop); !errors.Is(err, scene.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestCancelWhileLive(t *testing.T) {
	s, cache := newScene(t, scene.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	s.Start(ctx, shiftScript(square, 1))
	waitLive(t, s, 0)

	cancel()
	waitDone(t, s)
	if !errors.Is(s.Err(), context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", s.Err())
	}
	if st := s.State(); st.Live != nil || cache.Len() != 0 {
		t.Fatalf("unexpected state after cancel %+v", st)
	}
}

func TestPlayRejectsEmptyAndInvalid(t *testing.T) {
	s, _ := newScene(t, scene.Options{SkipAnimations: true})
	err := s.Run(context.Background(), func(ctx context.Context, s *scene.Scene) error {
		if err := s.Play(ctx); !errors.Is(err, scene.ErrNoAnimations) {
			t.Errorf("expected ErrNoAnimations, got %v", err)
		}
		square := mobject.Square("square", 2, mobject.DefaultStyle())
		return s.Play(ctx, animation.FadeIn(square, animation.WithRunTime(0)))
	})
	if !errors.Is(err, animation.ErrInvalidRunTime) {
		t.Fatalf("expected ErrInvalidRunTime, got %v", err)
	}
}
