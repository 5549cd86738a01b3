package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateClip(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.RepoDir == "" {
		return errors.New("paths.repo_dir must be set")
	}
	if c.Paths.ClipDir == "" {
		return errors.New("paths.clip_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.PageSize <= 0 {
		return errors.New("search.page_size must be positive")
	}
	return nil
}

func (c *Config) validateClip() error {
	if c.Clip.PreReserveSeconds < 0 {
		return errors.New("clip.pre_reserve_seconds must not be negative")
	}
	if c.Clip.PostReserveSeconds < 0 {
		return errors.New("clip.post_reserve_seconds must not be negative")
	}
	if c.Clip.TimeoutSeconds < 0 {
		return errors.New("clip.timeout_seconds must not be negative (0 disables the limit)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
