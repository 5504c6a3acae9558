package config

const (
	defaultConfigPath         = "~/.config/storyboard/config.toml"
	defaultFPS                = 24
	defaultScenePrefix        = "scene "
	defaultUndoLimit          = 200
	defaultThumbnailWidth     = 192
	defaultThumbnailHeight    = 0
	defaultIdleDelayMS        = 300
	defaultCompressIntervalMS = 100
	defaultDPI                = 72
	defaultExportWorkers      = 4
	defaultCachePath          = "~/.cache/storyboard/thumbnails.db"
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
	defaultLogMaxSizeMB       = 10
	defaultLogMaxBackups      = 3
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Animation: Animation{
			FPS: defaultFPS,
		},
		Storyboard: Storyboard{
			ScenePrefix: defaultScenePrefix,
			UndoLimit:   defaultUndoLimit,
		},
		Thumbnails: Thumbnails{
			Width:              defaultThumbnailWidth,
			Height:             defaultThumbnailHeight,
			IdleDelayMS:        defaultIdleDelayMS,
			CompressIntervalMS: defaultCompressIntervalMS,
			DPI:                defaultDPI,
			ExportWorkers:      defaultExportWorkers,
			CachePath:          defaultCachePath,
		},
		Logging: Logging{
			Level:      defaultLogLevel,
			Format:     defaultLogFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
