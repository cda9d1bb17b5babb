// =============================================================================
// Dividend Feed - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Sources, lowest priority
// first:
//   1. Built-in defaults
//   2. The YAML config file (config.yaml), if present
//   3. A .env file in the working directory, if present
//   4. DIVIDENDOS_* environment variables
//
// The merged configuration is validated before use. A missing config file
// is not an error unless it was named explicitly.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "DIVIDENDOS"

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "config.yaml"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole application configuration.
type Config struct {
	Feed    FeedConfig    `yaml:"feed" envconfig:"FEED"`
	Display DisplayConfig `yaml:"display" envconfig:"DISPLAY"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`

	// DefaultCurrency replaces blank currency cells.
	// Default: "EUR"
	DefaultCurrency string `yaml:"default_currency" split_words:"true" validate:"required"`

	// Aliases adds header spellings on top of the built-in alias table.
	// Keys are raw header spellings, values canonical field names.
	//
	// Example:
	//   aliases:
	//     "Símbolo": ticker
	//     "Importe Bruto": importe_bruto
	Aliases map[string]string `yaml:"aliases" validate:"dive,oneof=ticker empresa ex_date pay_date importe_bruto moneda estado fuente_url"`
}

// FeedConfig says where the feed comes from. URL wins over Path.
type FeedConfig struct {
	// URL is the published CSV export ("Publish to web", CSV output).
	URL string `yaml:"url" validate:"omitempty,url"`

	// Path is a local .csv or .xlsx export.
	Path string `yaml:"path"`

	// Sheet selects the worksheet of an .xlsx export. Default: first sheet.
	Sheet string `yaml:"sheet"`

	// Timeout bounds the HTTP fetch.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// DisplayConfig controls labels.
type DisplayConfig struct {
	// Locale for month labels, e.g. "es_ES" -> "marzo de 2024".
	// Default: "es_ES"
	Locale string `yaml:"locale" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr" validate:"required"`

	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
}

// OutputConfig configures the export command.
type OutputConfig struct {
	// Dir receives exported files and summary logs.
	// Default: "./output"
	Dir string `yaml:"dir" validate:"required"`

	// NameFormat is the export file name without extension.
	// Placeholders:
	//   {uuid}      - Run identifier
	//   {timestamp} - YYYYMMDD_HHMMSS
	//   {date}      - YYYYMMDD
	// Default: "dividendos_{timestamp}_{uuid}"
	NameFormat string `yaml:"name_format" split_words:"true" validate:"required"`

	// Format of the exported file: "json" or "xml".
	// Default: "json"
	Format string `yaml:"format" validate:"oneof=json xml"`
}

// LoggingConfig configures the slog logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// File additionally receives the JSON log lines when set.
	File string `yaml:"file"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads, merges and validates the configuration.
//
// PARAMETERS:
//   - configPath: Path to the YAML file. Empty means DefaultPath.
//   - explicit: True when the user named the file; then it must exist.
//
// RETURNS:
//   - The validated configuration.
//   - An error if a file cannot be parsed, or validation fails.
func Load(configPath string, explicit bool) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	// Only variables that are set override the file values. Leaf fields carry
	// no envconfig tag: a tag would also match the unprefixed name ($PATH).
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads a .env file into the process environment if it exists.
// Variables already set win over the file.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults sets default values for any unset option.
func ApplyDefaults(cfg *Config) {
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 15 * time.Second
	}
	if cfg.Display.Locale == "" {
		cfg.Display.Locale = "es_ES"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./output"
	}
	if cfg.Output.NameFormat == "" {
		cfg.Output.NameFormat = "dividendos_{timestamp}_{uuid}"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
}

// Default returns a configuration holding only the defaults.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Validate checks the struct tags of the configuration.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// HasSource reports whether a feed location is configured.
func (c *Config) HasSource() bool {
	return c.Feed.URL != "" || c.Feed.Path != ""
}
