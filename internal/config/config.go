// Package config handles castview configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all castview settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Import  ImportConfig  `yaml:"import"`
	Export  ExportConfig  `yaml:"export"`
	Library LibraryConfig `yaml:"library"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ImportConfig holds model projection settings.
type ImportConfig struct {
	Workers int `yaml:"workers"` // 0 = one per CPU
}

// ExportConfig holds settings for GLB and thumbnail output.
type ExportConfig struct {
	OutputDir     string `yaml:"output_dir"`
	TexturesWebP  bool   `yaml:"textures_webp"`
	ThumbnailSize int    `yaml:"thumbnail_size"`
}

// LibraryConfig lists the asset locations scanned by the list command.
type LibraryConfig struct {
	Paths     []string `yaml:"paths"`
	Recursive bool     `yaml:"recursive"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Import: ImportConfig{
			Workers: 0,
		},
		Export: ExportConfig{
			OutputDir:     "export",
			TexturesWebP:  true,
			ThumbnailSize: 256,
		},
		Library: LibraryConfig{
			Recursive: true,
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Import.Workers < 0 {
		errs = append(errs, fmt.Errorf("import.workers: must not be negative, got %d", c.Import.Workers))
	}
	if c.Export.ThumbnailSize < 0 {
		errs = append(errs, fmt.Errorf("export.thumbnail_size: must not be negative, got %d", c.Export.ThumbnailSize))
	}
	if c.Export.OutputDir == "" {
		errs = append(errs, errors.New("export.output_dir: must be set"))
	}
	return errors.Join(errs...)
}
