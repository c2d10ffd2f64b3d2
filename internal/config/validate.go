package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateTransform() error {
	switch c.Transform.Engine {
	case EngineLocal:
	case EngineRemote:
		if c.Transform.Endpoint == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("transform.endpoint is required for the remote engine. Set CUTOUT_TRANSFORM_ENDPOINT or edit %s (create with 'cutout config init')", defaultPath)
		}
		parsed, err := url.Parse(c.Transform.Endpoint)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("transform.endpoint must be an http(s) URL, got %q", c.Transform.Endpoint)
		}
	default:
		return fmt.Errorf("transform.engine must be %q or %q, got %q", EngineLocal, EngineRemote, c.Transform.Engine)
	}
	if err := ensurePositiveMap(map[string]int{
		"transform.working_size":  c.Transform.WorkingSize,
		"transform.fetch_timeout": c.Transform.FetchTimeout,
	}); err != nil {
		return err
	}
	if c.Transform.Tolerance < 0 || c.Transform.Tolerance > 1 {
		return errors.New("transform.tolerance must be between 0 and 1")
	}
	if c.Transform.Softness < 0 || c.Transform.Softness > 1 {
		return errors.New("transform.softness must be between 0 and 1")
	}
	if c.Transform.MaxSourceBytes <= 0 {
		return errors.New("transform.max_source_bytes must be positive")
	}
	if c.Transform.MaxPixels <= 0 {
		return errors.New("transform.max_pixels must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
