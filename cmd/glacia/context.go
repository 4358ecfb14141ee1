package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"glacia/internal/config"
	"glacia/internal/history"
	"glacia/internal/identity"
	"glacia/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// withStore opens the history store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) profiles() (*identity.Provider, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return identity.NewProvider(cfg, c.ensureLogger()), nil
}

// requireProfile loads the current profile or explains how to create one.
func (c *commandContext) requireProfile() (*identity.Provider, *identity.Profile, error) {
	provider, err := c.profiles()
	if err != nil {
		return nil, nil, err
	}
	profile, err := provider.Current()
	if err != nil {
		return nil, nil, fmt.Errorf("no profile found; run `glacia account login` first (%w)", err)
	}
	return provider, profile, nil
}

// stdinConfirmer asks for confirmation on the terminal.
type stdinConfirmer struct {
	cmd *cobra.Command
}

func (s stdinConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(s.cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(s.cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
