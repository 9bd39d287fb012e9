package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/saturnines/repsly-export/pkg/errors"
)

type ValidationError struct {
	Field   string
	Message string
}

type Validator interface {
	Validate(config *Config) []ValidationError
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultValueSetter Handles the interface for setting default values
type DefaultValueSetter interface {
	SetDefaults(config *Config)
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands environment variables with the given data
func (e *EnvExpander) Expand(data []byte) []byte {
	expanded := os.Expand(string(data), os.Getenv)
	return []byte(expanded)
}

// Loader reads exporter configuration
type Loader struct {
	expander      VariableExpander
	validators    []Validator
	defaultSetter DefaultValueSetter
}

// NewLoader creates a new Loader with the given components
func NewLoader(
	expander VariableExpander,
	defaultSetter DefaultValueSetter,
	validators ...Validator,
) *Loader {
	return &Loader{
		expander:      expander,
		validators:    validators,
		defaultSetter: defaultSetter,
	}
}

// DefaultLoader expands ${VARS}, fills defaults and runs every validator.
func DefaultLoader() *Loader {
	return NewLoader(
		&EnvExpander{},
		&Defaults{},
		&CredentialsValidator{},
		&CursorValidator{},
		&ExportValidator{},
	)
}

// Load a config from a YAML file. When optional is set a missing file
// yields the defaults.
func (l *Loader) Load(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return l.Parse(nil)
		}
		return nil, errors.WrapError(err, errors.ErrConfiguration, "failed to read file")
	}

	return l.Parse(data)
}

// Parse parses a yaml config
func (l *Loader) Parse(data []byte) (*Config, error) {
	// Expand variables if an expander is configured
	if l.expander != nil {
		data = l.expander.Expand(data)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "failed to parse YAML")
	}

	if l.defaultSetter != nil {
		l.defaultSetter.SetDefaults(&cfg)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs the validators against cfg. Missing credentials win over
// every other problem so callers can tell them apart.
func (l *Loader) Validate(cfg *Config) error {
	var allErrors []ValidationError
	for _, validator := range l.validators {
		allErrors = append(allErrors, validator.Validate(cfg)...)
	}
	if len(allErrors) == 0 {
		return nil
	}

	msgs := make([]string, len(allErrors))
	credentials := false
	for i, e := range allErrors {
		msgs[i] = e.Error()
		if strings.HasPrefix(e.Field, "api.username") || strings.HasPrefix(e.Field, "api.password") {
			credentials = true
		}
	}
	kind := errors.ErrConfiguration
	if credentials {
		kind = errors.ErrCredentials
	}
	return errors.WrapError(fmt.Errorf("%s", strings.Join(msgs, "; ")), kind, "validation errors")
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapError(err, errors.ErrConfiguration, "load "+path)
	}
	return nil
}

// Defaults implements DefaultValueSetter for Config
type Defaults struct{}

// SetDefaults sets default values for Config
func (d *Defaults) SetDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.repsly.com/v3/export"
	}
	if cfg.API.Username == "" {
		cfg.API.Username = os.Getenv(EnvUsername)
	}
	if cfg.API.Password == "" {
		cfg.API.Password = os.Getenv(EnvPassword)
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = defaultTimeout
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.CombinedPrefix == "" {
		cfg.Output.CombinedPrefix = "Repsly_Export_Combined"
	}
	if cfg.Cursors.Backend == "" {
		cfg.Cursors.Backend = "file"
	}
	if cfg.Cursors.Path == "" {
		if cfg.Cursors.Backend == "sqlite" {
			cfg.Cursors.Path = "repsly_cursors.db"
		} else {
			cfg.Cursors.Path = "repsly_cursors.yaml"
		}
	}
	if cfg.Export.WindowDays == 0 {
		cfg.Export.WindowDays = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// CredentialsValidator requires a username and password
type CredentialsValidator struct{}

// Validate checks the API credentials are present
func (v *CredentialsValidator) Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	if cfg.API.Username == "" {
		errs = append(errs, ValidationError{Field: "api.username", Message: "is required (set " + EnvUsername + ")"})
	}
	if cfg.API.Password == "" {
		errs = append(errs, ValidationError{Field: "api.password", Message: "is required (set " + EnvPassword + ")"})
	}
	return errs
}

// CursorValidator checks the cursor store settings
type CursorValidator struct{}

// Validate checks the backend is known
func (v *CursorValidator) Validate(cfg *Config) []ValidationError {
	switch cfg.Cursors.Backend {
	case "file", "sqlite":
		return nil
	default:
		return []ValidationError{{Field: "cursors.backend", Message: fmt.Sprintf("unknown backend: %s", cfg.Cursors.Backend)}}
	}
}

// ExportValidator checks run settings
type ExportValidator struct{}

// Validate checks concurrency, window, log format and schedule
func (v *ExportValidator) Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	if cfg.Export.Concurrency < 0 {
		errs = append(errs, ValidationError{Field: "export.concurrency", Message: "must not be negative"})
	}
	if cfg.Export.WindowDays < 0 {
		errs = append(errs, ValidationError{Field: "export.window_days", Message: "must be positive"})
	}
	if cfg.API.Timeout < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout", Message: "must be positive"})
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format: %s", cfg.Log.Format)})
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, ValidationError{Field: "schedule", Message: err.Error()})
		}
	}
	return errs
}
