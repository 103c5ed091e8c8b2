package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides reads configuration values from environment variables and
// overrides fields in the provided Config. Returns an error if parsing fails.
//
// Environment variables supported:
// - CARRUS_ENABLED (bool)
// - CARRUS_METHOD (cli|system|email|github|slack)
// - CARRUS_INTERVAL_HOURS (int)
// - CARRUS_NOTIFY_TIMEOUT (duration, e.g. "10s")
// - CARRUS_SLACK_WEBHOOK / CARRUS_SLACK_CHANNEL / CARRUS_SLACK_USERNAME
// - CARRUS_EMAIL_HOST / _PORT / _USER / _PASS / _FROM / _TO (comma separated)
// - CARRUS_GITHUB_TOKEN / CARRUS_GITHUB_OWNER / CARRUS_GITHUB_REPO
// - CARRUS_DB_PATH
// - CARRUS_LOG_LEVEL / CARRUS_LOG_FILE
// - CARRUS_METRICS_ENABLED (bool) / CARRUS_METRICS_PORT (int)
// - CARRUS_INFLUX_URL / _TOKEN / _ORG / _BUCKET / _INTERVAL (duration)
func ApplyEnvOverrides(cfg *Config) error {
	if err := applyBasicEnv(cfg); err != nil {
		return err
	}
	if err := applySlackEnv(cfg); err != nil {
		return err
	}
	if err := applyEmailEnv(cfg); err != nil {
		return err
	}
	if err := applyGitHubEnv(cfg); err != nil {
		return err
	}
	if err := applyMetricsEnv(cfg); err != nil {
		return err
	}
	if err := applyInfluxEnv(cfg); err != nil {
		return err
	}
	return nil
}

// applyBasicEnv consolidates the toggles, method, interval, and paths
func applyBasicEnv(cfg *Config) error {
	if err := setBoolEnv("CARRUS_ENABLED", func(b bool) { cfg.Enabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("CARRUS_METHOD"); v != "" {
		m := strings.ToLower(v)
		if !ValidMethod(m) {
			return fmt.Errorf("invalid CARRUS_METHOD: %q", v)
		}
		cfg.Method = m
	}
	if v := os.Getenv("CARRUS_INTERVAL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CARRUS_INTERVAL_HOURS: %w", err)
		}
		cfg.IntervalHours = n
	}
	if v := os.Getenv("CARRUS_NOTIFY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CARRUS_NOTIFY_TIMEOUT: %w", err)
		}
		cfg.NotifyTimeout = Duration(d)
	}
	if v := os.Getenv("CARRUS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CARRUS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CARRUS_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func applySlackEnv(cfg *Config) error {
	if v := os.Getenv("CARRUS_SLACK_WEBHOOK"); v != "" {
		cfg.SlackWebhookURL = v
	}
	if v := os.Getenv("CARRUS_SLACK_CHANNEL"); v != "" {
		cfg.SlackChannel = v
	}
	if v := os.Getenv("CARRUS_SLACK_USERNAME"); v != "" {
		cfg.SlackUsername = v
	}
	return nil
}

// applyEmailEnv consolidates email-related env parsing
func applyEmailEnv(cfg *Config) error {
	if v := os.Getenv("CARRUS_EMAIL_HOST"); v != "" {
		cfg.EmailHost = v
	}
	if v := os.Getenv("CARRUS_EMAIL_USER"); v != "" {
		cfg.EmailUser = v
	}
	if v := os.Getenv("CARRUS_EMAIL_PASS"); v != "" {
		cfg.EmailPass = v
	}
	if v := os.Getenv("CARRUS_EMAIL_FROM"); v != "" {
		cfg.EmailFrom = v
	}
	if v := os.Getenv("CARRUS_EMAIL_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CARRUS_EMAIL_PORT: %w", err)
		}
		cfg.EmailPort = p
	}
	if v := os.Getenv("CARRUS_EMAIL_TO"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.EmailTo = parts
	}
	return nil
}

func applyGitHubEnv(cfg *Config) error {
	if v := os.Getenv("CARRUS_GITHUB_TOKEN"); v != "" {
		cfg.GitHubToken = v
	}
	if v := os.Getenv("CARRUS_GITHUB_OWNER"); v != "" {
		cfg.GitHubOwner = v
	}
	if v := os.Getenv("CARRUS_GITHUB_REPO"); v != "" {
		cfg.GitHubRepo = v
	}
	return nil
}

// applyMetricsEnv consolidates metrics-related env parsing
func applyMetricsEnv(cfg *Config) error {
	if err := setBoolEnv("CARRUS_METRICS_ENABLED", func(b bool) { cfg.MetricsEnabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("CARRUS_METRICS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CARRUS_METRICS_PORT: %w", err)
		}
		cfg.MetricsPort = p
	}
	return nil
}

// applyInfluxEnv consolidates Influx-related env parsing
func applyInfluxEnv(cfg *Config) error {
	if v := os.Getenv("CARRUS_INFLUX_URL"); v != "" {
		cfg.InfluxURL = v
	}
	if v := os.Getenv("CARRUS_INFLUX_TOKEN"); v != "" {
		cfg.InfluxToken = v
	}
	if v := os.Getenv("CARRUS_INFLUX_ORG"); v != "" {
		cfg.InfluxOrg = v
	}
	if v := os.Getenv("CARRUS_INFLUX_BUCKET"); v != "" {
		cfg.InfluxBucket = v
	}
	if v := os.Getenv("CARRUS_INFLUX_INTERVAL"); v != "" {
		dur, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CARRUS_INFLUX_INTERVAL: %w", err)
		}
		cfg.InfluxInterval = Duration(dur)
	}
	return nil
}

// setBoolEnv is a small helper to parse boolean environment variables
func setBoolEnv(env string, setter func(bool)) error {
	if v := os.Getenv(env); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		setter(b)
	}
	return nil
}
