// Package config handles run configuration and environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultInput     = "ONG_dados_sinteticos.xlsx"
	DefaultOutputDir = "dados_limpos"
	DefaultChartsDir = "graficos"
	DefaultEnvFile   = ".env"
)

// Config holds the paths and switches of one pipeline run.
type Config struct {
	InputPath  string // spreadsheet to clean (TIDYSHEET_INPUT)
	OutputDir  string // directory of the cleaned workbook (TIDYSHEET_OUTPUT_DIR)
	ChartsDir  string // directory of the chart images (TIDYSHEET_CHARTS_DIR)
	OutputName string // output file name; empty means timestamped (TIDYSHEET_OUTPUT_NAME)
	LogLevel   string // debug, info, warn, error (TIDYSHEET_LOG_LEVEL)
	Charts     bool   // render charts (TIDYSHEET_CHARTS, default true)
}

// Load reads envFile when it exists, then builds the configuration from the
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return LoadFromEnv(), nil
}

// LoadFromEnv builds the configuration from environment variables, applying
// defaults for anything unset.
func LoadFromEnv() *Config {
	return &Config{
		InputPath:  envOr("TIDYSHEET_INPUT", DefaultInput),
		OutputDir:  envOr("TIDYSHEET_OUTPUT_DIR", DefaultOutputDir),
		ChartsDir:  envOr("TIDYSHEET_CHARTS_DIR", DefaultChartsDir),
		OutputName: os.Getenv("TIDYSHEET_OUTPUT_NAME"),
		LogLevel:   envOr("TIDYSHEET_LOG_LEVEL", "info"),
		Charts:     !isFalse(os.Getenv("TIDYSHEET_CHARTS")),
	}
}

// Validate checks that the paths needed by a run are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func isFalse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return true
	}
	return false
}
