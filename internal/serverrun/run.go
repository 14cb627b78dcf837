package serverrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"framecast/internal/animation"
	"framecast/internal/config"
	"framecast/internal/discovery"
	"framecast/internal/events"
	"framecast/internal/frameserver"
	"framecast/internal/ipc"
	"framecast/internal/journal"
	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/scene"
	"framecast/internal/scenes"
)

// ErrAlreadyRunning is returned when another server holds the state lock.
var ErrAlreadyRunning = errors.New("another framecast server is already running")

// Options configures process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Logger replaces the logger built from config when set.
	Logger *slog.Logger
	// Launch replaces discovery's process launcher when set.
	Launch discovery.LaunchFunc
}

// Runtime is a started frame server.
type Runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	sessionID string

	lock    *flock.Flock
	store   *journal.Store
	emitter *events.Emitter
	scene   *scene.Scene
	server  *ipc.Server

	group  *errgroup.Group
	cancel context.CancelFunc
}

// Run starts the server and blocks until SIGINT, SIGTERM or a scene failure.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := Start(signalCtx, cfg, opts)
	if err != nil {
		return err
	}
	return rt.Wait()
}

// Start brings the runtime up and returns once the frame server accepts
// connections. Callers must call Wait.
func Start(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	def, err := scenes.Lookup(cfg.Scene.Name)
	if err != nil {
		return nil, err
	}
	rate, err := animation.LookupRateFunc(cfg.Scene.DefaultRateFunc)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	rt := &Runtime{cfg: cfg, sessionID: uuid.NewString(), lock: flock.New(cfg.LockPath())}
	ok, err := rt.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	started := false
	defer func() {
		if !started {
			rt.release()
		}
	}()

	rt.logger = opts.Logger
	if rt.logger == nil {
		logger, err := newLogger(cfg, opts, rt.sessionID)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		rt.logger = logger
	}
	logger := rt.logger.With(logging.String(logging.FieldSceneName, def.Name))

	cache := keyframe.NewCache(logger)
	if cfg.Journal.Enabled {
		store, err := journal.OpenFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		rt.store = store
		if err := store.BeginSession(ctx, rt.sessionID, def.Name); err != nil {
			return nil, fmt.Errorf("begin journal session: %w", err)
		}
		cache.AddSink(store.Sink(rt.sessionID))
	}
	if cfg.EventsEnabled() {
		emitter := events.New(cfg.Events, def.Name, rt.sessionID, logger)
		if err := emitter.Connect(ctx); err != nil {
			logging.WarnWithContext(logger, "keyframe events disabled", "events_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "keyframe transitions are not published"),
				logging.String(logging.FieldErrorHint, "check events.broker"))
		} else {
			rt.emitter = emitter
			cache.AddSink(emitter)
		}
	}

	renderer := ipc.NewRendererClient(cfg.Renderer.Addr, cfg.DialTimeout())
	rt.scene = scene.New(cache, scene.Options{
		Name:            def.Name,
		SkipAnimations:  cfg.Scene.SkipAnimations,
		FromUnit:        cfg.Scene.FromUnit,
		FrameRate:       cfg.Scene.FrameRate,
		DefaultRateFunc: rate,
		Notifier:        renderer,
		Logger:          logger,
	})
	service := frameserver.New(rt.scene, frameserver.Options{SessionID: rt.sessionID, Logger: logger})

	runCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel
	server, err := ipc.NewServer(runCtx, cfg.Server.Bind, cfg.Server.Workers, service, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start frame server: %w", err)
	}
	rt.server = server
	server.Serve()

	group, groupCtx := errgroup.WithContext(runCtx)
	rt.group = group
	group.Go(func() error {
		err := rt.scene.Run(groupCtx, def.Script)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scene %s: %w", def.Name, err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})

	logger.Info("framecast server started",
		logging.String(logging.FieldEventType, "server_started"),
		logging.String("addr", server.Addr()),
		logging.String("renderer", cfg.Renderer.Addr),
		logging.Bool("skip_animations", cfg.Scene.SkipAnimations),
		logging.Int("from_unit", cfg.Scene.FromUnit),
		logging.Bool("journal", rt.store != nil),
		logging.Bool("events", rt.emitter != nil))

	if cfg.Renderer.Discover {
		rt.discover(runCtx, renderer, opts.Launch, logger)
	}

	started = true
	return rt, nil
}

func (rt *Runtime) discover(ctx context.Context, renderer *ipc.RendererClient, launch discovery.LaunchFunc, logger *slog.Logger) {
	probeCtx, cancel := context.WithTimeout(ctx, rt.cfg.DialTimeout())
	defer cancel()
	_, err := discovery.Ensure(probeCtx, renderer, discovery.Options{
		SceneName:  rt.scene.Name(),
		Path:       rt.cfg.Renderer.Path,
		Args:       rt.cfg.Renderer.Args,
		ServerAddr: rt.server.Addr(),
		Launch:     launch,
		Logger:     logger,
	})
	if err != nil {
		logging.WarnWithContext(logger, "renderer discovery failed", "renderer_discovery_failed",
			logging.Error(err),
			logging.String(logging.FieldPeer, renderer.Addr()),
			logging.String(logging.FieldImpact, "frames are served once a renderer connects"),
			logging.String(logging.FieldErrorHint, "start the renderer manually or set renderer.path"))
	}
}

// Addr returns the frame server listen address.
func (rt *Runtime) Addr() string {
	return rt.server.Addr()
}

// SessionID identifies this run in logs, the journal and events.
func (rt *Runtime) SessionID() string {
	return rt.sessionID
}

// Scene returns the running scene.
func (rt *Runtime) Scene() *scene.Scene {
	return rt.scene
}

// Stop cancels the runtime; Wait returns afterwards.
func (rt *Runtime) Stop() {
	rt.cancel()
}

// Wait blocks until the runtime stops and releases its resources. The server
// keeps answering from the cache after the scene finishes.
func (rt *Runtime) Wait() error {
	err := rt.group.Wait()
	rt.logger.Info("framecast server shutting down",
		logging.String(logging.FieldEventType, "server_stopping"))
	rt.cancel()
	rt.server.Close()
	rt.release()
	return err
}

func (rt *Runtime) release() {
	if rt.emitter != nil {
		rt.emitter.Disconnect()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil && rt.logger != nil {
			rt.logger.Warn("close journal", logging.Error(err))
		}
	}
	if err := rt.lock.Unlock(); err != nil && rt.logger != nil {
		rt.logger.Warn("failed to release server lock", logging.Error(err))
	}
}

func newLogger(cfg *config.Config, opts Options, sessionID string) (*slog.Logger, error) {
	logOpts, err := logging.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		logOpts.Level = opts.LogLevel
	}
	logOpts.Development = opts.Development
	logOpts.SessionID = sessionID
	return logging.New(logOpts)
}
