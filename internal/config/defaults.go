package config

const (
	defaultConfigPath         = "~/.config/enchant/config.toml"
	defaultRepoDir            = "~/.local/share/enchant/repo"
	defaultClipDir            = "~/.local/share/enchant/clips"
	defaultLogDir             = "~/.local/share/enchant/logs"
	defaultPageSize           = 15
	defaultPreReserveSeconds  = 0.5
	defaultPostReserveSeconds = 2.0
	defaultFFmpegBinary       = "ffmpeg"
	defaultVideoCodec         = "libx264"
	defaultAudioCodec         = "aac"
	defaultEncoderTimeout     = 1800
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RepoDir: defaultRepoDir,
			ClipDir: defaultClipDir,
			LogDir:  defaultLogDir,
		},
		Search: Search{
			PageSize: defaultPageSize,
		},
		Clip: Clip{
			PreReserveSeconds:  defaultPreReserveSeconds,
			PostReserveSeconds: defaultPostReserveSeconds,
			FFmpegBinary:       defaultFFmpegBinary,
			VideoCodec:         defaultVideoCodec,
			AudioCodec:         defaultAudioCodec,
			TimeoutSeconds:     defaultEncoderTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
