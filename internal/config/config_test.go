package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "storyboard", "config.toml"), resolved)
	assert.Equal(t, 24, cfg.Animation.FPS)
	assert.Equal(t, "scene ", cfg.Storyboard.ScenePrefix)
	assert.Equal(t, filepath.Join(home, ".cache", "storyboard", "thumbnails.db"), cfg.Thumbnails.CachePath)
	assert.Equal(t, 300*time.Millisecond, cfg.Thumbnails.IdleDelay())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[animation]
fps = 12
freeze_keyframe_positions = true

[storyboard]
comments = ["Action", "Dialogue"]
scene_name_prefix = "shot "

[thumbnails]
width = 96
cache_path = ""

[logging]
level = " DEBUG "
format = "json"
`), 0o644))

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 12, cfg.Animation.FPS)
	assert.True(t, cfg.Animation.FreezeKeyframePositions)
	assert.Equal(t, []string{"Action", "Dialogue"}, cfg.Storyboard.Comments)
	assert.Equal(t, "shot ", cfg.Storyboard.ScenePrefix)
	assert.Equal(t, 96, cfg.Thumbnails.Width)
	assert.Empty(t, cfg.Thumbnails.CachePath)
	assert.Equal(t, 200, cfg.Storyboard.UndoLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"negative fps":   "[animation]\nfps = -3\n",
		"negative width": "[thumbnails]\nwidth = -1\n",
		"bad log level":  "[logging]\nlevel = \"loud\"\n",
		"unknown field":  "[storyboard]\nmystery = 1\n",
		"malformed toml": "[animation\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, _, _, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWriteSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.WriteSample(path))
	assert.Error(t, config.WriteSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, config.Default().Thumbnails.Width, cfg.Thumbnails.Width)
}
