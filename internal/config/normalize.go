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
	c.normalizeClip()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(RepoEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.RepoDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.RepoDir) == "" {
		c.Paths.RepoDir = defaultRepoDir
	}
	if strings.TrimSpace(c.Paths.ClipDir) == "" {
		c.Paths.ClipDir = defaultClipDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	var err error
	if c.Paths.RepoDir, err = expandPath(strings.TrimSpace(c.Paths.RepoDir)); err != nil {
		return fmt.Errorf("paths.repo_dir: %w", err)
	}
	if c.Paths.ClipDir, err = expandPath(strings.TrimSpace(c.Paths.ClipDir)); err != nil {
		return fmt.Errorf("paths.clip_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeClip() {
	c.Clip.FFmpegBinary = strings.TrimSpace(c.Clip.FFmpegBinary)
	if c.Clip.FFmpegBinary == "" {
		c.Clip.FFmpegBinary = defaultFFmpegBinary
	}
	c.Clip.VideoCodec = strings.TrimSpace(c.Clip.VideoCodec)
	if c.Clip.VideoCodec == "" {
		c.Clip.VideoCodec = defaultVideoCodec
	}
	c.Clip.AudioCodec = strings.TrimSpace(c.Clip.AudioCodec)
	if c.Clip.AudioCodec == "" {
		c.Clip.AudioCodec = defaultAudioCodec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
}
