package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeQueue()
	c.normalizeTransform()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("CUTOUT_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeQueue() {
	if c.Queue.MaxPending < 0 {
		c.Queue.MaxPending = 0
	}
	if c.Queue.TransformTimeout < 0 {
		c.Queue.TransformTimeout = 0
	}
}

func (c *Config) normalizeTransform() {
	c.Transform.Engine = strings.ToLower(strings.TrimSpace(c.Transform.Engine))
	if c.Transform.Engine == "" {
		c.Transform.Engine = defaultEngine
	}
	c.Transform.Endpoint = strings.TrimSpace(c.Transform.Endpoint)
	if c.Transform.Endpoint == "" {
		if value, ok := os.LookupEnv("CUTOUT_TRANSFORM_ENDPOINT"); ok {
			c.Transform.Endpoint = strings.TrimSpace(value)
		}
	}
	if c.Transform.WorkingSize <= 0 {
		c.Transform.WorkingSize = defaultWorkingSize
	}
	if c.Transform.FetchTimeout <= 0 {
		c.Transform.FetchTimeout = defaultFetchTimeout
	}
	if c.Transform.MaxSourceBytes <= 0 {
		c.Transform.MaxSourceBytes = defaultMaxSourceBytes
	}
	if c.Transform.MaxPixels <= 0 {
		c.Transform.MaxPixels = defaultMaxPixels
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CUTOUT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
