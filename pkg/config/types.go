package config

import "time"

const defaultTimeout = 30 * time.Second

// Config represents the full config for the exporter
type Config struct {
	API      API      `yaml:"api"`                // Vendor API access
	Output   Output   `yaml:"output,omitempty"`   // Where workbooks go
	Cursors  Cursors  `yaml:"cursors,omitempty"`  // Resume point storage
	Export   Export   `yaml:"export,omitempty"`   // What to export and how
	Log      Log      `yaml:"log,omitempty"`      // Logging
	Metrics  Metrics  `yaml:"metrics,omitempty"`  // Optional metrics dump
	Schedule string   `yaml:"schedule,omitempty"` // Optional cron expression
}

// API holds the export API endpoint and credentials
type API struct {
	BaseURL  string        `yaml:"base_url,omitempty"` // Defaults to the Repsly export root
	Username string        `yaml:"username,omitempty"` // Defaults to $REPSLY_API_USERNAME
	Password string        `yaml:"password,omitempty"` // Defaults to $REPSLY_API_PASSWORD
	Timeout  time.Duration `yaml:"timeout,omitempty"`  // Per request, default 30s
}

// Output controls the produced workbooks
type Output struct {
	Dir               string `yaml:"dir,omitempty"`                 // Default "."
	CombinedPrefix    string `yaml:"combined_prefix,omitempty"`     // Default "Repsly_Export_Combined"
	KeepEndpointFiles bool   `yaml:"keep_endpoint_files,omitempty"` // Keep per-endpoint files after combining
}

// Cursors selects the cursor store
type Cursors struct {
	Backend string `yaml:"backend,omitempty"` // "file" (default) or "sqlite"
	Path    string `yaml:"path,omitempty"`    // Default "repsly_cursors.yaml" or "repsly_cursors.db"
}

// Export selects endpoints and concurrency
type Export struct {
	Endpoints   []string `yaml:"endpoints,omitempty"`     // Empty means all
	Concurrency int      `yaml:"concurrency,omitempty"`   // 0 means one worker per endpoint
	WindowDays  int      `yaml:"window_days,omitempty"`   // Look-back of date-window endpoints, default 30
	ImportJobID string   `yaml:"import_job_id,omitempty"` // Also export this import job's status
}

// Log configures logrus
type Log struct {
	Level  string `yaml:"level,omitempty"`  // Default "info"
	Format string `yaml:"format,omitempty"` // "text" (default) or "json"
}

// Metrics configures the textfile dump
type Metrics struct {
	Textfile string `yaml:"textfile,omitempty"` // Written after each run when set
}

// Environment variables holding the API credentials.
const (
	EnvUsername = "REPSLY_API_USERNAME"
	EnvPassword = "REPSLY_API_PASSWORD"
)
