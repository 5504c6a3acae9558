package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if c.Animation.FPS == 0 {
		c.Animation.FPS = defaultFPS
	}
	if c.Storyboard.UndoLimit == 0 {
		c.Storyboard.UndoLimit = defaultUndoLimit
	}
	if c.Thumbnails.ExportWorkers == 0 {
		c.Thumbnails.ExportWorkers = defaultExportWorkers
	}
	if c.Thumbnails.DPI == 0 {
		c.Thumbnails.DPI = defaultDPI
	}

	var err error
	if c.Thumbnails.CachePath, err = expandPath(strings.TrimSpace(c.Thumbnails.CachePath)); err != nil {
		return fmt.Errorf("thumbnails.cache_path: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
