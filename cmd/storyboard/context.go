package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/config"
	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/logging"
)

type commandContext struct {
	configFlag *string
	fileFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
}

func newCommandContext(configFlag, fileFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		fileFlag:   fileFlag,
	}
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
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) documentPath() string {
	if c.fileFlag == nil || strings.TrimSpace(*c.fileFlag) == "" {
		return "storyboard.yaml"
	}
	return strings.TrimSpace(*c.fileFlag)
}

func (c *commandContext) log() *zap.Logger {
	c.loggerOnce.Do(func() {
		c.logger = zap.NewNop()
		cfg, err := c.ensureConfig()
		if err != nil {
			return
		}
		logger, err := logging.New(logging.Config{
			Level:      cfg.Logging.Level,
			Encoding:   cfg.Logging.Format,
			OutputPath: cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err == nil {
			c.logger = logger
		}
	})
	return c.logger
}

func (c *commandContext) syncLogger() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// withProject opens the document, runs fn and, when save is set, writes the
// document back.
func (c *commandContext) withProject(ctx context.Context, save bool, fn func(*engine.Project) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	p, err := engine.Open(cfg, c.documentPath(), c.log())
	if err != nil {
		return err
	}
	defer p.Close()

	if err := fn(p); err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := p.Save(ctx); err != nil {
		return fmt.Errorf("save %s: %w", p.Path(), err)
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
