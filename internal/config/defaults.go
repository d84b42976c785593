package config

const (
	defaultConfigPath      = "~/.config/ytframes/config.toml"
	defaultStagingDir      = "~/.local/share/ytframes/staging"
	defaultArchiveDir      = "~/ytframes"
	defaultStateDir        = "~/.local/share/ytframes"
	defaultLogDir          = "~/.local/share/ytframes/logs"
	defaultAPIBind         = "127.0.0.1:7490"
	defaultDownloadBinary  = "yt-dlp"
	defaultDownloadFormat  = "bestvideo[ext=mp4][height<=2160][fps<=60]"
	defaultDownloadTimeout = 1800
	defaultIntervalSeconds = 5.0
	defaultMinBrightness   = 10.0
	defaultMaxBrightness   = 245.0
	defaultLumaStride      = 1
	defaultThumbnailWidth  = 320
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultDatasetName     = "frames_dataset"
	defaultImageFormat     = "png"
	defaultJPEGQuality     = 92
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultNotifyTimeout   = 10
	defaultStoragePrefix   = "datasets"
	maxLumaStride          = 16
	maxThumbnailWidth      = 1920
)

const brightnessScaleMax float64 = 255

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			ArchiveDir: defaultArchiveDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Download: Download{
			Binary:         defaultDownloadBinary,
			Format:         defaultDownloadFormat,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Sampling: Sampling{
			IntervalSeconds: defaultIntervalSeconds,
			MinBrightness:   defaultMinBrightness,
			MaxBrightness:   defaultMaxBrightness,
			LumaStride:      defaultLumaStride,
			ThumbnailWidth:  defaultThumbnailWidth,
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
		},
		Archive: Archive{
			DatasetName: defaultDatasetName,
			ImageFormat: defaultImageFormat,
			JPEGQuality: defaultJPEGQuality,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Storage: Storage{
			UseSSL: true,
			Prefix: defaultStoragePrefix,
		},
	}
}
