package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"framecast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The server binds an ephemeral loopback port, renderer discovery is off and
// no MQTT broker is configured.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Renderer.Discover = false
	cfgVal.Renderer.DialTimeoutMS = 200
	cfgVal.Events.Broker = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithScene selects the scene to serve.
func WithScene(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scene.Name = name
	}
}

// WithSkipAnimations runs every unit without waiting for a renderer.
func WithSkipAnimations() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scene.SkipAnimations = true
	}
}

// WithStubRenderer writes a stub renderer executable that exits immediately,
// enables discovery against addr and points renderer.path at the stub.
func WithStubRenderer(addr string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "renderer")
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			b.t.Fatalf("write stub renderer: %v", err)
		}
		b.cfg.Renderer.Addr = addr
		b.cfg.Renderer.Path = target
		b.cfg.Renderer.Discover = true
	}
}
