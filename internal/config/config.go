// Package config loads the toolkit configuration: an optional settings.env
// dotenv file, an optional ea.yaml config file, and EA_* environment
// overrides, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DotenvFile is the legacy settings file loaded from the working directory
// when present.
const DotenvFile = "settings.env"

// Config is the resolved toolkit configuration.
type Config struct {
	// Database is the path to the archive database file.
	Database string `mapstructure:"database"`

	Dirs struct {
		// Export holds the raw export files dropped by the upstream
		// system; ingest picks the newest.
		Export string `mapstructure:"export"`
		// Sheets holds the per-faculty review sheets.
		Sheets string `mapstructure:"sheets"`
		// Import holds reviewed sheets headed back for reconciliation.
		Import string `mapstructure:"import"`
	} `mapstructure:"dirs"`

	Faculty struct {
		// MappingFile is the department→faculty table (.json or .yaml).
		MappingFile string `mapstructure:"mapping_file"`
	} `mapstructure:"faculty"`

	Archive struct {
		// PreserveSourceDate keeps the prior row's retrieved_from_source
		// on updates whose batch carries no source date.
		PreserveSourceDate bool `mapstructure:"preserve_source_date"`
	} `mapstructure:"archive"`

	Reconcile struct {
		// Statuses is the allowed workflow_status set.
		Statuses []string `mapstructure:"statuses"`
	} `mapstructure:"reconcile"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		// File enables a rotating log file next to stderr output.
		File string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// Load resolves the configuration. cfgFile overrides the config file
// location; empty means ea.yaml in the working directory, if present.
func Load(cfgFile string) (*Config, error) {
	// settings.env is optional and the lowest layer.
	if _, err := os.Stat(DotenvFile); err == nil {
		if err := godotenv.Load(DotenvFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", DotenvFile, err)
		}
	}

	v := viper.New()
	v.SetDefault("database", "archive.db")
	v.SetDefault("dirs.export", "copyright_data")
	v.SetDefault("dirs.sheets", "sheets")
	v.SetDefault("dirs.import", "copyright_import")
	v.SetDefault("faculty.mapping_file", "department_mapping.json")
	v.SetDefault("archive.preserve_source_date", true)
	v.SetDefault("reconcile.statuses", []string{"To Do", "In Progress", "Done"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("EA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("ea")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the resolved configuration for values no command could
// work with.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if len(c.Reconcile.Statuses) == 0 {
		return fmt.Errorf("reconcile.statuses must not be empty")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	return nil
}
