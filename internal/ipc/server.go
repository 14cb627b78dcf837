package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"golang.org/x/sync/semaphore"

	"framecast/internal/frameserver"
	"framecast/internal/logging"
	"framecast/internal/mobject"
)

// FrameSource resolves frame requests and reports scene status.
type FrameSource interface {
	FrameAtTime(req frameserver.Request) (*frameserver.Response, error)
	Status() frameserver.Status
}

// Server exposes a FrameSource via JSON-RPC over TCP.
type Server struct {
	listener  net.Listener
	rpcServer *rpc.Server
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer listens on addr. At most workers calls are handled at once.
func NewServer(ctx context.Context, addr string, workers int, source FrameSource, logger *slog.Logger) (*Server, error) {
	if source == nil {
		return nil, errors.New("ipc server requires a frame source")
	}
	if workers <= 0 {
		return nil, fmt.Errorf("ipc server requires a positive worker count, got %d", workers)
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{
		source: source,
		logger: logger,
		pool:   semaphore.NewWeighted(int64(workers)),
		ctx:    serverCtx,
	}
	if err := rpcServer.RegisterName("FrameServer", srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		listener:  listener,
		rpcServer: rpcServer,
		logger:    logger,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Info("frame server listening",
		logging.String("addr", s.Addr()),
		logging.String(logging.FieldEventType, "frame_server_listening"))

	var (
		connsMu sync.Mutex
		conns   = make(map[net.Conn]struct{})
	)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
		connsMu.Lock()
		for c := range conns {
			_ = c.Close()
		}
		connsMu.Unlock()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "renderer may fail to connect"),
					logging.String(logging.FieldErrorHint, "check that server.bind is free and restart framecast"))
				continue
			}
			connsMu.Lock()
			conns[conn] = struct{}{}
			connsMu.Unlock()

			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.logger.Debug("renderer connected", logging.String(logging.FieldPeer, c.RemoteAddr().String()))
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
				connsMu.Lock()
				delete(conns, c)
				connsMu.Unlock()
			}(conn)
		}
	}()
}

// Close stops accepting connections, drops open ones and waits for the
// serving goroutines to exit.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

type service struct {
	source FrameSource
	logger *slog.Logger
	pool   *semaphore.Weighted
	ctx    context.Context
}

// acquire takes a worker slot; the returned func gives it back.
func (s *service) acquire() (func(), error) {
	if err := s.pool.Acquire(s.ctx, 1); err != nil {
		return nil, fmt.Errorf("frame server shutting down: %w", err)
	}
	return func() { s.pool.Release(1) }, nil
}

func (s *service) GetFrameAtTime(req FrameRequest, resp *FrameResponse) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	frame, err := s.source.FrameAtTime(frameserver.Request{
		UnitIndex:  req.AnimationIndex,
		TimeOffset: req.AnimationOffset,
	})
	if err != nil {
		logging.ErrorWithContext(s.logger, "frame request failed", "frame_request_failed",
			logging.Int(logging.FieldUnitIndex, req.AnimationIndex),
			logging.Float64("offset", req.AnimationOffset),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "renderer must request the live unit or an earlier one"))
		return err
	}
	if frame == nil {
		resp.Skipped = true
		return nil
	}
	*resp = convertFrame(frame)
	return nil
}

func (s *service) RendererStatus(_ RendererStatusRequest, resp *RendererStatusResponse) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	st := s.source.Status()
	resp.SceneName = st.SceneName
	resp.SessionID = st.SessionID
	resp.CachedUnits = st.CachedUnits
	resp.Finished = st.Finished
	if st.LiveUnit != nil {
		resp.LiveUnit = &UnitStatus{
			Index:    st.LiveUnit.Index,
			Kind:     string(st.LiveUnit.Kind),
			Name:     st.LiveUnit.Name,
			Duration: st.LiveUnit.Duration,
			Skipped:  st.LiveUnit.Skipped,
		}
	}
	return nil
}

func (s *service) UpdateSceneLocation(_ SceneLocationRequest, _ *SceneLocationResponse) error {
	return nil
}

func convertFrame(frame *frameserver.Response) FrameResponse {
	resp := FrameResponse{
		FramePending:      frame.FramePending,
		SceneFinished:     frame.SceneFinished,
		AnimationFinished: frame.AnimationFinished,
		Duration:          frame.Duration,
		AnimationName:     frame.AnimationName,
	}
	if len(frame.Mobjects) > 0 {
		resp.Mobjects = make([]Mobject, 0, len(frame.Mobjects))
		for _, m := range frame.Mobjects {
			resp.Mobjects = append(resp.Mobjects, convertMobject(m))
		}
	}
	return resp
}

func convertMobject(m mobject.Serialized) Mobject {
	points := make([]Point, len(m.Points))
	for i, p := range m.Points {
		points[i] = Point{X: p[0], Y: p[1], Z: p[2]}
	}
	return Mobject{
		ID:          m.ID,
		NeedsRedraw: m.NeedsRedraw,
		Points:      points,
		Style: Style{
			FillColor:     m.Style.FillColor,
			FillOpacity:   m.Style.FillOpacity,
			StrokeColor:   m.Style.StrokeColor,
			StrokeOpacity: m.Style.StrokeOpacity,
			StrokeWidth:   m.Style.StrokeWidth,
		},
	}
}
