package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnimation(); err != nil {
		return err
	}
	if err := c.validateStoryboard(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAnimation() error {
	if c.Animation.FPS <= 0 {
		return fmt.Errorf("animation.fps must be positive, got %d", c.Animation.FPS)
	}
	return nil
}

func (c *Config) validateStoryboard() error {
	if c.Storyboard.UndoLimit < 0 {
		return errors.New("storyboard.undo_limit must not be negative")
	}
	return nil
}

func (c *Config) validateThumbnails() error {
	t := c.Thumbnails
	if t.Width <= 0 {
		return fmt.Errorf("thumbnails.width must be positive, got %d", t.Width)
	}
	if t.Height < 0 {
		return errors.New("thumbnails.height must not be negative")
	}
	if t.IdleDelayMS < 0 || t.CompressIntervalMS < 0 {
		return errors.New("thumbnails intervals must not be negative")
	}
	if t.DPI <= 0 {
		return errors.New("thumbnails.dpi must be positive")
	}
	if t.ExportWorkers < 0 {
		return errors.New("thumbnails.export_workers must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return errors.New("logging rotation limits must not be negative")
	}
	return nil
}
