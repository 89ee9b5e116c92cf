package config

import (
	"errors"
	"fmt"
)

// maxSocketPathLen is the usable length of sockaddr_un.sun_path on Linux.
const maxSocketPathLen = 107

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.SocketPath == "" {
		return errors.New("paths.socket_path must be set")
	}
	if len(c.Paths.SocketPath) > maxSocketPathLen {
		return fmt.Errorf("paths.socket_path: %q is longer than %d bytes", c.Paths.SocketPath, maxSocketPathLen)
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Backlog < 1 {
		return errors.New("server.backlog must be at least 1")
	}
	if _, err := parseSocketMode(c.Server.SocketMode); err != nil {
		return err
	}
	if c.Server.Shell == "" {
		return errors.New("server.shell must be set")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
