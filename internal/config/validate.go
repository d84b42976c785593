package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateStorage()
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds <= 0 {
		return errors.New("download.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSampling() error {
	s := c.Sampling
	if s.IntervalSeconds <= 0 {
		return errors.New("sampling.interval_seconds must be greater than 0")
	}
	if s.FrameStep < 0 {
		return errors.New("sampling.frame_step must be 0 or positive")
	}
	if err := ValidateBrightness(s.MinBrightness, s.MaxBrightness); err != nil {
		return err
	}
	if s.LumaStride < 1 || s.LumaStride > maxLumaStride {
		return fmt.Errorf("sampling.luma_stride must be between 1 and %d", maxLumaStride)
	}
	if s.ThumbnailWidth < 16 || s.ThumbnailWidth > maxThumbnailWidth {
		return fmt.Errorf("sampling.thumbnail_width must be between 16 and %d", maxThumbnailWidth)
	}
	return nil
}

// ValidateBrightness checks a brightness threshold pair on the 0-255 luma scale.
func ValidateBrightness(minBrightness, maxBrightness float64) error {
	if minBrightness < 0 || minBrightness > brightnessScaleMax {
		return errors.New("sampling.min_brightness must be between 0 and 255")
	}
	if maxBrightness < 0 || maxBrightness > brightnessScaleMax {
		return errors.New("sampling.max_brightness must be between 0 and 255")
	}
	if maxBrightness <= minBrightness {
		return errors.New("sampling.max_brightness must be greater than sampling.min_brightness")
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.ImageFormat {
	case "png", "jpeg":
	default:
		return fmt.Errorf("archive.image_format must be png or jpeg, got %q", c.Archive.ImageFormat)
	}
	if c.Archive.JPEGQuality < 1 || c.Archive.JPEGQuality > 100 {
		return errors.New("archive.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Endpoint == "" {
		return errors.New("storage.endpoint must be set when storage.enabled is true")
	}
	if strings.Contains(c.Storage.Endpoint, "://") {
		return errors.New("storage.endpoint must be host[:port] without a scheme")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return errors.New("storage.access_key and storage.secret_key must be set when storage.enabled is true (or YTFRAMES_S3_ACCESS_KEY / YTFRAMES_S3_SECRET_KEY)")
	}
	return nil
}
