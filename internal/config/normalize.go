package config

import (
	"fmt"
	"os"
	"strings"

	"ytframes/internal/textutil"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeSampling()
	c.normalizeArchive()
	c.normalizeLogging()
	c.normalizeNotifications()
	c.normalizeStorage()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(orDefault(c.Paths.StagingDir, defaultStagingDir)); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(orDefault(c.Paths.ArchiveDir, defaultArchiveDir)); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(orDefault(c.Paths.StateDir, defaultStateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = strings.TrimSpace(os.Getenv("YTFRAMES_API_TOKEN"))
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.Binary = orDefault(c.Download.Binary, defaultDownloadBinary)
	c.Download.Format = orDefault(c.Download.Format, defaultDownloadFormat)
}

func (c *Config) normalizeSampling() {
	c.Sampling.FFmpegBinary = orDefault(c.Sampling.FFmpegBinary, defaultFFmpegBinary)
	c.Sampling.FFprobeBinary = orDefault(c.Sampling.FFprobeBinary, defaultFFprobeBinary)
	if c.Sampling.LumaStride == 0 {
		c.Sampling.LumaStride = defaultLumaStride
	}
	if c.Sampling.ThumbnailWidth == 0 {
		c.Sampling.ThumbnailWidth = defaultThumbnailWidth
	}
}

func (c *Config) normalizeArchive() {
	if c.Archive.TriggerWord == "" {
		if value, ok := os.LookupEnv("YTFRAMES_TRIGGER_WORD"); ok {
			c.Archive.TriggerWord = value
		}
	}
	c.Archive.TriggerWord = textutil.NormalizeTriggerWord(c.Archive.TriggerWord)
	c.Archive.DatasetName = textutil.SanitizeFileName(c.Archive.DatasetName)
	if c.Archive.DatasetName == "" {
		c.Archive.DatasetName = defaultDatasetName
	}
	c.Archive.ImageFormat = strings.ToLower(strings.TrimSpace(c.Archive.ImageFormat))
	switch c.Archive.ImageFormat {
	case "":
		c.Archive.ImageFormat = defaultImageFormat
	case "jpg":
		c.Archive.ImageFormat = "jpeg"
	}
	if c.Archive.JPEGQuality == 0 {
		c.Archive.JPEGQuality = defaultJPEGQuality
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("YTFRAMES_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeStorage() {
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("YTFRAMES_S3_ACCESS_KEY"); ok {
			c.Storage.AccessKey = value
		}
	}
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("YTFRAMES_S3_SECRET_KEY"); ok {
			c.Storage.SecretKey = value
		}
	}
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
