package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"framecast/internal/animation"
	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/mobject"
)

// DefaultWaitTime is the duration of a Wait without an explicit length.
const DefaultWaitTime = 1.0

var (
	// ErrAlreadyStarted is returned when Run is called twice.
	ErrAlreadyStarted = errors.New("scene already started")
	// ErrUnitNotLive is returned when the requested unit stopped being live.
	ErrUnitNotLive = errors.New("unit is not live")
	// ErrNoAnimations is returned by Play without animations.
	ErrNoAnimations = errors.New("play requires at least one animation")
)

// Script is a timeline: it drives the scene through Play and Wait calls.
type Script func(ctx context.Context, s *Scene) error

// ReadyNotifier is told when a new unit becomes live while the renderer
// waits for one.
type ReadyNotifier interface {
	AnimationReady(ctx context.Context, scene string, index int) error
}

// Options configures a Scene.
type Options struct {
	Name            string
	SkipAnimations  bool
	FromUnit        int
	// FrameRate is the updater integration rate in steps per second.
	FrameRate       float64
	DefaultRateFunc animation.RateFunc
	Notifier        ReadyNotifier
	Logger          *slog.Logger
}

// Scene owns the object graph of a running timeline and publishes each
// finished unit to a keyframe cache.
type Scene struct {
	opts   Options
	cache  *keyframe.Cache
	logger *slog.Logger
	gate   *gate

	mu       sync.Mutex
	mobjects []*mobject.Mobject
	live     *unit
	finished bool
	err      error

	rendererWaiting atomic.Bool
	started         atomic.Bool
	done            chan struct{}
}

// UnitInfo describes the live unit.
type UnitInfo struct {
	Index    int
	Kind     keyframe.Kind
	Name     string
	Duration float64
	Skipped  bool
}

// State is a consistent view of the scene's progress.
type State struct {
	Cached   int
	Live     *UnitInfo
	Finished bool
}

// New returns a scene publishing into cache.
func New(cache *keyframe.Cache, opts Options) *Scene {
	if opts.DefaultRateFunc == nil {
		opts.DefaultRateFunc = animation.Smooth
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	return &Scene{
		opts:   opts,
		cache:  cache,
		logger: logging.NewComponentLogger(opts.Logger, "scene").With(logging.String(logging.FieldSceneName, opts.Name)),
		gate:   newGate(),
		done:   make(chan struct{}),
	}
}

// Name returns the scene name.
func (s *Scene) Name() string {
	return s.opts.Name
}

// Cache returns the keyframe cache the scene publishes into.
func (s *Scene) Cache() *keyframe.Cache {
	return s.cache
}

// Run executes script on the calling goroutine and marks the scene finished
// when it returns.
func (s *Scene) Run(ctx context.Context, script Script) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	started := time.Now()
	s.logger.Info("scene started",
		logging.String(logging.FieldEventType, "scene_started"),
		logging.Bool("skip_animations", s.opts.SkipAnimations),
		logging.Int("from_unit", s.opts.FromUnit),
	)

	err := script(ctx, s)

	s.mu.Lock()
	s.finished = true
	s.err = err
	units := s.cache.Len()
	s.mu.Unlock()
	close(s.done)

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("scene failed",
			logging.String(logging.FieldEventType, "scene_failed"),
			logging.Int("units", units),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the timeline script for invalid animations"),
		)
		return err
	}
	s.logger.Info("scene finished",
		logging.String(logging.FieldEventType, "scene_finished"),
		logging.Int("units", units),
		logging.Duration("elapsed", time.Since(started)),
	)
	return err
}

// Start runs script on its own goroutine.
func (s *Scene) Start(ctx context.Context, script Script) {
	go func() {
		_ = s.Run(ctx, script)
	}()
}

// Done is closed once the script has returned.
func (s *Scene) Done() <-chan struct{} {
	return s.done
}

// Err returns the script's error once Done is closed.
func (s *Scene) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the cache length, the live unit, and whether the script has
// finished, observed atomically.
func (s *Scene) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Cached: s.cache.Len(), Finished: s.finished}
	if s.live != nil {
		info := s.live.info()
		st.Live = &info
	}
	return st
}

// Add places mobjects in the scene. Mobjects already present are ignored.
func (s *Scene) Add(mobjects ...*mobject.Mobject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(mobjects...)
}

// Remove takes mobjects out of the scene.
func (s *Scene) Remove(mobjects ...*mobject.Mobject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(mobjects...)
}

// Mobjects returns a copy of the scene's top-level mobjects.
func (s *Scene) Mobjects() []*mobject.Mobject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*mobject.Mobject, len(s.mobjects))
	for i, m := range s.mobjects {
		out[i] = m.Copy()
	}
	return out
}

// RendererWaiting reports whether the renderer is waiting for the next unit.
func (s *Scene) RendererWaiting() bool {
	return s.rendererWaiting.Load()
}

// Release signals that the renderer has consumed unit index. Only the first
// release of a unit wakes the driver; later calls report false.
func (s *Scene) Release(index int) bool {
	s.rendererWaiting.Store(true)
	if !s.gate.release(index) {
		return false
	}
	s.logger.Debug("unit released",
		logging.Int(logging.FieldUnitIndex, index),
		logging.String(logging.FieldEventType, "unit_released"),
	)
	return true
}

func (s *Scene) addLocked(mobjects ...*mobject.Mobject) {
	for _, m := range mobjects {
		if m == nil || s.indexOfLocked(m.ID) >= 0 {
			continue
		}
		s.mobjects = append(s.mobjects, m)
	}
}

func (s *Scene) removeLocked(mobjects ...*mobject.Mobject) {
	for _, m := range mobjects {
		if m == nil {
			continue
		}
		if i := s.indexOfLocked(m.ID); i >= 0 {
			s.mobjects = append(s.mobjects[:i], s.mobjects[i+1:]...)
		}
	}
}

func (s *Scene) indexOfLocked(id string) int {
	for i, m := range s.mobjects {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Scene) skipping(index int) bool {
	return s.opts.SkipAnimations || index < s.opts.FromUnit
}

// lockedRemover lets animations clean up while the driver holds s.mu.
type lockedRemover struct{ s *Scene }

func (r lockedRemover) Remove(mobjects ...*mobject.Mobject) {
	r.s.removeLocked(mobjects...)
}

func (s *Scene) String() string {
	return fmt.Sprintf("Scene(%s)", s.opts.Name)
}
