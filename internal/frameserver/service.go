package frameserver

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/mobject"
	"framecast/internal/scene"
)

var (
	// ErrSkipForward is returned for requests beyond the live unit. Catching
	// up across units that have not run yet is not implemented.
	ErrSkipForward = errors.New("skip forward beyond the live unit is not implemented")
	// ErrInvalidRequest is returned for negative indices or offsets.
	ErrInvalidRequest = errors.New("invalid frame request")
)

// Request addresses a frame by unit index and local time offset in seconds.
type Request struct {
	UnitIndex  int
	TimeOffset float64
}

// Response is a resolved frame, or a pending marker when the requested unit
// has no frame yet.
type Response struct {
	FramePending      bool
	SceneFinished     bool
	AnimationFinished bool
	Duration          float64
	// AnimationName is set only on the first response for a unit.
	AnimationName string
	Mobjects      []mobject.Serialized
}

// Status describes the served scene.
type Status struct {
	SceneName   string
	SessionID   string
	CachedUnits int
	LiveUnit    *scene.UnitInfo
	Finished    bool
}

// Options configures a Service.
type Options struct {
	SessionID string
	Logger    *slog.Logger
}

// Service resolves frame requests against a scene and its keyframe cache.
type Service struct {
	scene     *scene.Scene
	cache     *keyframe.Cache
	sessionID string
	logger    *slog.Logger

	mu       sync.Mutex
	previous int
}

// New returns a service answering for sc.
func New(sc *scene.Scene, opts Options) *Service {
	return &Service{
		scene:     sc,
		cache:     sc.Cache(),
		sessionID: opts.SessionID,
		logger:    logging.NewComponentLogger(opts.Logger, "frameserver"),
		previous:  -1,
	}
}

// FrameAtTime resolves req. A nil response with a nil error means the unit
// ran in skip mode and has no frame to show.
func (s *Service) FrameAtTime(req Request) (*Response, error) {
	if req.UnitIndex < 0 || req.TimeOffset < 0 || math.IsNaN(req.TimeOffset) || math.IsInf(req.TimeOffset, 0) {
		return nil, fmt.Errorf("%w: unit %d offset %v", ErrInvalidRequest, req.UnitIndex, req.TimeOffset)
	}

	index, offset := req.UnitIndex, req.TimeOffset
	crossed := false
	for {
		st := s.scene.State()
		switch {
		case index > st.Cached:
			return nil, fmt.Errorf("%w: unit %d requested, unit %d is the latest", ErrSkipForward, index, st.Cached)

		case index < st.Cached:
			entry, err := s.cache.Get(index)
			if err != nil {
				return nil, err
			}
			if offset > entry.Duration {
				offset -= entry.Duration
				index++
				crossed = true
				continue
			}
			if entry.Skipped {
				return nil, nil
			}
			frame, err := entry.FrameAt(offset)
			if err != nil {
				return nil, fmt.Errorf("unit %d: %w", index, err)
			}
			resp := s.respond(index, entry.Name, entry.Duration, frame)
			resp.AnimationFinished = crossed
			return resp, nil

		case st.Live == nil || st.Live.Index != index:
			// Between units, or past the last one.
			return &Response{FramePending: true, SceneFinished: st.Finished, AnimationFinished: crossed}, nil

		default:
			live := *st.Live
			if live.Skipped {
				return nil, nil
			}
			if offset > live.Duration {
				if s.scene.Release(index) {
					s.logger.Debug("unit boundary crossed",
						logging.Int(logging.FieldUnitIndex, index),
						logging.Float64("offset", offset),
						logging.String(logging.FieldEventType, "boundary_crossed"),
					)
				}
				return &Response{FramePending: true, SceneFinished: st.Finished, AnimationFinished: crossed}, nil
			}
			frame, err := s.scene.LiveFrame(index, offset)
			if errors.Is(err, scene.ErrUnitNotLive) {
				// Published since State was read; resolve again from the cache.
				continue
			}
			if err != nil {
				return nil, err
			}
			resp := s.respond(index, live.Name, live.Duration, frame.Mobjects)
			resp.AnimationFinished = crossed
			if frame.Stopped {
				s.scene.StopWait(index, offset)
				resp.FramePending = true
			}
			return resp, nil
		}
	}
}

func (s *Service) respond(index int, name string, duration float64, mobjects []mobject.Serialized) *Response {
	resp := &Response{Duration: duration, Mobjects: mobjects}
	s.mu.Lock()
	if index != s.previous {
		s.previous = index
		resp.AnimationName = name
	}
	s.mu.Unlock()
	return resp
}

// Status reports the scene name and progress.
func (s *Service) Status() Status {
	st := s.scene.State()
	return Status{
		SceneName:   s.scene.Name(),
		SessionID:   s.sessionID,
		CachedUnits: st.Cached,
		LiveUnit:    st.Live,
		Finished:    st.Finished,
	}
}
