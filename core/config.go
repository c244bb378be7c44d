package core

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Settings holds the tunables that are not per-run flags. They are read
// from an optional YAML file and from METASTRIP_* environment variables.
type Settings struct {
	// Workers bounds the batch worker pool. Zero means runtime.NumCPU().
	Workers     int           `yaml:"workers" env:"METASTRIP_WORKERS" env-default:"0"`
	FFmpegPath  string        `yaml:"ffmpeg_path" env:"METASTRIP_FFMPEG" env-default:"ffmpeg"`
	FFprobePath string        `yaml:"ffprobe_path" env:"METASTRIP_FFPROBE" env-default:"ffprobe"`
	ToolTimeout time.Duration `yaml:"tool_timeout" env:"METASTRIP_TOOL_TIMEOUT" env-default:"10m"`
	JPEGQuality int           `yaml:"jpeg_quality" env:"METASTRIP_JPEG_QUALITY" env-default:"95"`
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// LoadSettings reads settings from configPath when it is non-empty, or from
// the environment alone otherwise.
func LoadSettings(configPath string) (Settings, error) {
	var s Settings
	var err error
	if configPath != "" {
		err = cleanenv.ReadConfig(configPath, &s)
	} else {
		err = cleanenv.ReadEnv(&s)
	}
	if err != nil {
		return s, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, s.Validate()
}

// Validate rejects settings that no run could use.
func (s Settings) Validate() error {
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.JPEGQuality < 1 || s.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be within 1..100, got %d", s.JPEGQuality)
	}
	if s.ToolTimeout < 0 {
		return fmt.Errorf("tool_timeout must not be negative, got %s", s.ToolTimeout)
	}
	return nil
}

// WorkerCount returns the effective pool size.
func (s Settings) WorkerCount() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}
