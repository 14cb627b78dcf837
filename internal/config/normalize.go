package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	if err := c.normalizeRenderer(); err != nil {
		return err
	}
	c.normalizeScene()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEvents()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.Workers == 0 {
		c.Server.Workers = defaultServerWorkers
	}
}

func (c *Config) normalizeRenderer() error {
	c.Renderer.Addr = strings.TrimSpace(c.Renderer.Addr)
	if c.Renderer.Addr == "" {
		c.Renderer.Addr = defaultRendererAddr
	}
	c.Renderer.Path = strings.TrimSpace(c.Renderer.Path)
	if c.Renderer.Path == "" {
		if value, ok := os.LookupEnv(rendererPathEnv); ok {
			c.Renderer.Path = strings.TrimSpace(value)
		}
	}
	if c.Renderer.Path != "" && strings.HasPrefix(c.Renderer.Path, "~") {
		expanded, err := expandPath(c.Renderer.Path)
		if err != nil {
			return fmt.Errorf("renderer.path: %w", err)
		}
		c.Renderer.Path = expanded
	}
	args := c.Renderer.Args[:0]
	for _, arg := range c.Renderer.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Renderer.Args = args
	if c.Renderer.DialTimeoutMS == 0 {
		c.Renderer.DialTimeoutMS = defaultRendererDialMS
	}
	return nil
}

func (c *Config) normalizeScene() {
	c.Scene.Name = strings.ToLower(strings.TrimSpace(c.Scene.Name))
	if c.Scene.Name == "" {
		c.Scene.Name = defaultSceneName
	}
	c.Scene.DefaultRateFunc = strings.ToLower(strings.TrimSpace(c.Scene.DefaultRateFunc))
	if c.Scene.DefaultRateFunc == "" {
		c.Scene.DefaultRateFunc = defaultRateFunc
	}
	if c.Scene.FrameRate == 0 {
		c.Scene.FrameRate = defaultFrameRate
	}
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEvents() {
	c.Events.Broker = strings.TrimSpace(c.Events.Broker)
	if c.Events.Broker == "" {
		if value, ok := os.LookupEnv(eventsBrokerEnv); ok {
			c.Events.Broker = strings.TrimSpace(value)
		}
	}
	c.Events.Topic = strings.Trim(strings.TrimSpace(c.Events.Topic), "/")
	if c.Events.Topic == "" {
		c.Events.Topic = defaultEventsTopic
	}
	c.Events.ClientID = strings.TrimSpace(c.Events.ClientID)
	if c.Events.ClientID == "" {
		c.Events.ClientID = defaultEventsClientID
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
