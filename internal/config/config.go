package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains the frame server listener settings.
type Server struct {
	Bind    string `toml:"bind"`
	Workers int    `toml:"workers"`
}

// Renderer describes the external renderer peer.
type Renderer struct {
	Addr          string   `toml:"addr"`
	Path          string   `toml:"path"`
	Args          []string `toml:"args"`
	DialTimeoutMS int      `toml:"dial_timeout_ms"`
	Discover      bool     `toml:"discover"`
}

// Scene contains playback switches for the scene driver.
type Scene struct {
	Name            string  `toml:"name"`
	SkipAnimations  bool    `toml:"skip_animations"`
	FromUnit        int     `toml:"from_unit"`
	FrameRate       float64 `toml:"frame_rate"`
	DefaultRateFunc string  `toml:"default_rate_func"`
}

// Paths contains directories used for runtime state.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Journal controls the SQLite keyframe archive.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Events configures MQTT publication of keyframe transitions.
type Events struct {
	Broker   string `toml:"broker"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
	QoS      int    `toml:"qos"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for framecast.
//
// Configuration sections by subsystem:
//   - Server: frame server bind address and request worker count
//   - Renderer: renderer peer address and launch command
//   - Scene: scene selection and fast-forward switches
//   - Paths: state and log directories
//   - Journal: SQLite keyframe archive
//   - Events: MQTT keyframe publication
//   - Logging: log format and level
type Config struct {
	Server   Server   `toml:"server"`
	Renderer Renderer `toml:"renderer"`
	Scene    Scene    `toml:"scene"`
	Paths    Paths    `toml:"paths"`
	Journal  Journal  `toml:"journal"`
	Events   Events   `toml:"events"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("framecast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file for the frame server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "framecast.lock")
}

// JournalPath returns the SQLite keyframe journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "keyframes.db")
}

// DialTimeout returns the renderer dial timeout as a duration.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Renderer.DialTimeoutMS) * time.Millisecond
}

// EventsEnabled reports whether an MQTT broker is configured.
func (c *Config) EventsEnabled() bool {
	return strings.TrimSpace(c.Events.Broker) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
