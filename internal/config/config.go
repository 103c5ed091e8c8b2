package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that accepts both human-readable strings
// ("10s", "1m30s") and integer nanoseconds in YAML, and always writes the
// string form back.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Notification methods selectable via Config.Method.
const (
	MethodCLI    = "cli"
	MethodSystem = "system"
	MethodEmail  = "email"
	MethodGitHub = "github"
	MethodSlack  = "slack"
)

// Config holds runtime configuration for carrus. It is loaded once per
// invocation and treated as immutable afterwards; the configure command
// writes a new file rather than mutating a live value.
type Config struct {
	// Notification configuration
	Enabled       bool     `json:"enabled" yaml:"enabled"`
	Method        string   `json:"method" yaml:"method"` // cli|system|email|github|slack
	IntervalHours int      `json:"interval_hours" yaml:"interval_hours"`
	NotifyTimeout Duration `json:"notify_timeout" yaml:"notify_timeout"`

	// Slack webhook settings
	SlackWebhookURL string `json:"slack_webhook_url" yaml:"slack_webhook_url"`
	SlackChannel    string `json:"slack_channel" yaml:"slack_channel"`
	SlackUsername   string `json:"slack_username" yaml:"slack_username"`

	// Email (SMTP) settings
	EmailHost string   `json:"email_host" yaml:"email_host"`
	EmailPort int      `json:"email_port" yaml:"email_port"`
	EmailUser string   `json:"email_user" yaml:"email_user"`
	EmailPass string   `json:"email_pass" yaml:"email_pass"`
	EmailFrom string   `json:"email_from" yaml:"email_from"`
	EmailTo   []string `json:"email_to" yaml:"email_to"`

	// GitHub issue tracker settings
	GitHubToken string `json:"github_token" yaml:"github_token"`
	GitHubOwner string `json:"github_owner" yaml:"github_owner"`
	GitHubRepo  string `json:"github_repo" yaml:"github_repo"`

	// Storage
	DBPath string `json:"db_path" yaml:"db_path"`

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file"`

	// Metrics (opt-in)
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPort    int  `json:"metrics_port" yaml:"metrics_port"`

	// InfluxDB (push)
	InfluxURL      string   `json:"influx_url" yaml:"influx_url"`
	InfluxToken    string   `json:"influx_token" yaml:"influx_token"`
	InfluxOrg      string   `json:"influx_org" yaml:"influx_org"`
	InfluxBucket   string   `json:"influx_bucket" yaml:"influx_bucket"`
	InfluxInterval Duration `json:"influx_interval" yaml:"influx_interval"`
}

// DefaultConfig returns a sane default configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		Method:        MethodCLI,
		IntervalHours: 24,
		NotifyTimeout: Duration(10 * time.Second),
		EmailPort:     587,
		EmailFrom:     "carrus-updater@noreply.local",
		DBPath:        defaultDBPath(),
		LogLevel:      "info",

		MetricsEnabled: false,
		MetricsPort:    9090,

		InfluxInterval: Duration(1 * time.Minute),
	}
}

// defaultDBPath follows XDG conventions the way the original CLI tooling does.
func defaultDBPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "carrus.db"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "carrus", "carrus.db")
}

// ValidMethod reports whether m names a known notification method.
func ValidMethod(m string) bool {
	switch m {
	case MethodCLI, MethodSystem, MethodEmail, MethodGitHub, MethodSlack:
		return true
	}
	return false
}

// Validate returns a list of non-fatal configuration warnings, such as
// incomplete notifier credential combinations. A hard mismatch between the
// selected method and its settings is caught later by the provider factory.
func (c *Config) Validate() []string {
	var warnings []string
	checks := []struct {
		cond bool
		msg  string
	}{
		{!ValidMethod(c.Method), fmt.Sprintf("unknown notification method %q", c.Method)},
		{c.SlackWebhookURL == "" && c.Method == MethodSlack, "slack method selected but slack_webhook_url is empty"},
		{c.SlackWebhookURL != "" && c.Method != MethodSlack, "slack webhook configured but method is not slack"},
		{c.EmailHost != "" && len(c.EmailTo) == 0, "email host provided but no recipients configured (email_to)"},
		{c.EmailHost == "" && len(c.EmailTo) > 0, "email recipients configured but email host is empty"},
		{c.GitHubToken != "" && (c.GitHubOwner == "" || c.GitHubRepo == ""), "github token provided but owner/repo is missing"},
		{c.IntervalHours < 0, "interval_hours must not be negative"},
	}
	for _, ch := range checks {
		if ch.cond {
			warnings = append(warnings, ch.msg)
		}
	}
	return warnings
}

// LoadConfigFromFile loads config from a YAML/JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfigToFile persists the configuration as YAML, creating parent
// directories as needed. Used by the configure command to rewrite the
// persisted config.
func SaveConfigToFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
