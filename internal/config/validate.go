package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateScene(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if c.Server.Workers < 1 {
		return errors.New("server.workers must be at least 1")
	}
	return nil
}

func (c *Config) validateRenderer() error {
	if _, _, err := net.SplitHostPort(c.Renderer.Addr); err != nil {
		return fmt.Errorf("renderer.addr must be host:port: %w", err)
	}
	if c.Renderer.DialTimeoutMS < 0 {
		return errors.New("renderer.dial_timeout_ms must be positive")
	}
	if c.Renderer.Addr == c.Server.Bind {
		return errors.New("renderer.addr must differ from server.bind")
	}
	return nil
}

func (c *Config) validateScene() error {
	if c.Scene.FromUnit < 0 {
		return errors.New("scene.from_unit must be >= 0")
	}
	if c.Scene.FrameRate <= 0 {
		return errors.New("scene.frame_rate must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.QoS < 0 || c.Events.QoS > 2 {
		return errors.New("events.qos must be 0, 1, or 2")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
