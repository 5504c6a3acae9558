// Package config loads storyboard settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Animation holds the defaults of new documents.
type Animation struct {
	FPS                     int  `toml:"fps"`
	FreezeKeyframePositions bool `toml:"freeze_keyframe_positions"`
}

// Storyboard holds scene list settings.
type Storyboard struct {
	Locked      bool     `toml:"locked"`
	ScenePrefix string   `toml:"scene_name_prefix"`
	Comments    []string `toml:"comments"`
	UndoLimit   int      `toml:"undo_limit"`
}

// Thumbnails holds render and cache settings. A zero height follows the
// aspect ratio of the document.
type Thumbnails struct {
	Width              int    `toml:"width"`
	Height             int    `toml:"height"`
	IdleDelayMS        int    `toml:"idle_delay_ms"`
	CompressIntervalMS int    `toml:"compress_interval_ms"`
	DPI                int    `toml:"dpi"`
	ExportWorkers      int    `toml:"export_workers"`
	CachePath          string `toml:"cache_path"`
}

// Logging configures the zap logger. An empty file logs to stderr.
type Logging struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config is the full set of settings.
type Config struct {
	Animation  Animation  `toml:"animation"`
	Storyboard Storyboard `toml:"storyboard"`
	Thumbnails Thumbnails `toml:"thumbnails"`
	Logging    Logging    `toml:"logging"`
}

// IdleDelay is the quiet period before thumbnails render.
func (t Thumbnails) IdleDelay() time.Duration {
	return time.Duration(t.IdleDelayMS) * time.Millisecond
}

// CompressInterval is the minimum spacing of image update handling.
func (t Thumbnails) CompressInterval() time.Duration {
	return time.Duration(t.CompressIntervalMS) * time.Millisecond
}

// Load reads the configuration at path, or the default location when path is
// empty. A missing file yields the defaults. It returns the resolved path and
// whether the file existed.
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
		decoder.DisallowUnknownFields()
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

// WriteSample writes the default configuration to path unless a file exists
// there.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config %s already exists", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the expanded default configuration location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
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
