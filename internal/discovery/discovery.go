package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"framecast/internal/logging"
)

// ErrNoRendererPath is returned when the renderer must be launched but no
// executable is configured.
var ErrNoRendererPath = errors.New("renderer unavailable and renderer.path is not set")

// Prober announces the served scene to the renderer.
type Prober interface {
	Status(ctx context.Context, sceneName string) error
}

// LaunchFunc starts the renderer process and returns its PID.
type LaunchFunc func(path string, args, env []string) (int, error)

// State reports how Ensure found the renderer.
type State string

const (
	StateAlreadyRunning State = "already_running"
	StateLaunched       State = "launched"
)

// Options controls discovery.
type Options struct {
	SceneName string
	// Path and Args form the renderer command line.
	Path string
	Args []string
	// ServerAddr is exported to the launched renderer as FRAMECAST_SERVER_ADDR.
	ServerAddr string
	Launch     LaunchFunc
	Logger     *slog.Logger
}

// Result captures the discovery outcome.
type Result struct {
	State State
	PID   int
}

// Launch starts a detached renderer process.
func Launch(path string, args, env []string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("resolve renderer: executable path is empty")
	}
	proc := exec.Command(path, args...)
	proc.Env = append(os.Environ(), env...)
	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch renderer: %w", err)
	}
	pid := proc.Process.Pid
	return pid, proc.Process.Release()
}

// Ensure probes the renderer once. A reachable renderer is left alone; an
// unavailable one is launched. Any other probe failure and any launch
// failure are returned without retrying.
func Ensure(ctx context.Context, prober Prober, opts Options) (Result, error) {
	logger := logging.NewComponentLogger(opts.Logger, "discovery")
	err := prober.Status(ctx, opts.SceneName)
	if err == nil {
		logger.Info("renderer already running",
			logging.String(logging.FieldEventType, "renderer_found"),
			logging.String(logging.FieldSceneName, opts.SceneName))
		return Result{State: StateAlreadyRunning}, nil
	}
	if !isPeerUnavailable(err) {
		return Result{}, fmt.Errorf("probe renderer: %w", err)
	}
	if strings.TrimSpace(opts.Path) == "" {
		return Result{}, fmt.Errorf("%w (probe: %v)", ErrNoRendererPath, err)
	}

	launch := opts.Launch
	if launch == nil {
		launch = Launch
	}
	var env []string
	if opts.ServerAddr != "" {
		env = append(env, "FRAMECAST_SERVER_ADDR="+opts.ServerAddr)
	}
	if opts.SceneName != "" {
		env = append(env, "FRAMECAST_SCENE="+opts.SceneName)
	}
	pid, err := launch(opts.Path, opts.Args, env)
	if err != nil {
		return Result{}, err
	}
	logger.Info("renderer launched",
		logging.String(logging.FieldEventType, "renderer_launched"),
		logging.String("path", opts.Path),
		logging.Int("pid", pid))
	return Result{State: StateLaunched, PID: pid}, nil
}

func isPeerUnavailable(err error) bool {
	if errors.Is(err, unix.ECONNREFUSED) ||
		errors.Is(err, unix.EHOSTUNREACH) ||
		errors.Is(err, unix.ENETUNREACH) ||
		errors.Is(err, unix.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout()
}
