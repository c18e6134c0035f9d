package video_fetcher

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// Default directory for downloads when a job doesn't specify one.
	TargetDir string `mapstructure:"target_dir"`
	// Container (file extension) requested from the stream catalog.
	Container string `mapstructure:"container"`
	// Path or name of the ffmpeg binary used for muxing and audio extraction.
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	// Size of each read during a download; progress is reported once per chunk.
	ChunkSize int `mapstructure:"chunk_size"`
	// Maximum number of candidate filenames tried before giving up.
	NamingLimit int `mapstructure:"naming_limit"`
	// Location of the outcome history database; empty disables history.
	HistoryPath string `mapstructure:"history_path"`
	LogLevel    string `mapstructure:"log_level"`
}

var DefaultConfig = Config{
	TargetDir:   ".",
	Container:   "mp4",
	FFmpegPath:  "ffmpeg",
	ChunkSize:   1 << 20,
	NamingLimit: 10000,
	HistoryPath: "",
	LogLevel:    "info",
}

// LoadConfig reads a YAML config file (if path is not empty) layered over DefaultConfig, then applies
// VIDEO_FETCHER_* environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("target_dir", DefaultConfig.TargetDir)
	v.SetDefault("container", DefaultConfig.Container)
	v.SetDefault("ffmpeg_path", DefaultConfig.FFmpegPath)
	v.SetDefault("chunk_size", DefaultConfig.ChunkSize)
	v.SetDefault("naming_limit", DefaultConfig.NamingLimit)
	v.SetDefault("history_path", DefaultConfig.HistoryPath)
	v.SetDefault("log_level", DefaultConfig.LogLevel)

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("VIDEO_FETCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills in defaults for zero values and rejects settings that can never work.
func (c *Config) Validate() error {
	if c.TargetDir == "" {
		c.TargetDir = DefaultConfig.TargetDir
	}
	if c.Container == "" {
		c.Container = DefaultConfig.Container
	}
	c.Container = strings.ToLower(strings.TrimPrefix(c.Container, "."))
	if c.FFmpegPath == "" {
		c.FFmpegPath = DefaultConfig.FFmpegPath
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative, got %d", c.ChunkSize)
	} else if c.ChunkSize == 0 {
		c.ChunkSize = DefaultConfig.ChunkSize
	}
	if c.NamingLimit < 0 {
		return fmt.Errorf("naming_limit must not be negative, got %d", c.NamingLimit)
	} else if c.NamingLimit == 0 {
		c.NamingLimit = DefaultConfig.NamingLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultConfig.LogLevel
	}
	return nil
}
