package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cmdsock/internal/config"
)

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

// ensureConfig loads the configuration once and applies the --socket override.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if socket := c.socketOverride(); socket != "" {
			expanded, err := config.ExpandPath(socket)
			if err != nil {
				c.configErr = err
				return
			}
			cfg.Paths.SocketPath = expanded
			if err := cfg.Validate(); err != nil {
				c.configErr = fmt.Errorf("--socket: %w", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) socketOverride() string {
	if c.socketFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.socketFlag)
}

func (c *commandContext) socketPath() string {
	if cfg := c.configValue(); cfg != nil {
		return cfg.Paths.SocketPath
	}
	if socket := c.socketOverride(); socket != "" {
		return socket
	}
	return config.DefaultSocketPath
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
