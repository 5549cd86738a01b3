package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// RepoEnv overrides paths.repo_dir when set.
const RepoEnv = "ENCHANT_REPO"

// Paths contains directory configuration.
type Paths struct {
	RepoDir string `toml:"repo_dir"`
	ClipDir string `toml:"clip_dir"`
	LogDir  string `toml:"log_dir"`
}

// Search contains result paging settings.
type Search struct {
	PageSize int `toml:"page_size"`
}

// Clip contains excerpt padding and encoder settings.
type Clip struct {
	PreReserveSeconds  float64 `toml:"pre_reserve_seconds"`
	PostReserveSeconds float64 `toml:"post_reserve_seconds"`
	FFmpegBinary       string  `toml:"ffmpeg_binary"`
	VideoCodec         string  `toml:"video_codec"`
	AudioCodec         string  `toml:"audio_codec"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format  string `toml:"format"`
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

// Config encapsulates all configuration values for enchant.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Search  Search  `toml:"search"`
	Clip    Clip    `toml:"clip"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error: defaults apply.
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
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
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

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("enchant.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the repository, clip, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RepoDir, c.Paths.ClipDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ObjectsDir returns the object store root inside the repository.
func (c *Config) ObjectsDir() string {
	return filepath.Join(c.Paths.RepoDir, "objects")
}

// IndexDir returns the search index directory inside the repository.
func (c *Config) IndexDir() string {
	return filepath.Join(c.Paths.RepoDir, "index")
}

// CatalogPath returns the movie catalog database inside the repository.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.RepoDir, "enchant.db")
}

// FFmpegBinary returns the ffmpeg executable used for clipping.
func (c *Config) FFmpegBinary() string {
	if binary := strings.TrimSpace(c.Clip.FFmpegBinary); binary != "" {
		return binary
	}
	return defaultFFmpegBinary
}

// PreReserve returns the default padding before a clip.
func (c *Config) PreReserve() time.Duration {
	return secondsToDuration(c.Clip.PreReserveSeconds)
}

// PostReserve returns the default padding after a clip.
func (c *Config) PostReserve() time.Duration {
	return secondsToDuration(c.Clip.PostReserveSeconds)
}

// EncoderTimeout returns the ffmpeg time limit. Zero means unbounded.
func (c *Config) EncoderTimeout() time.Duration {
	return time.Duration(c.Clip.TimeoutSeconds) * time.Second
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
