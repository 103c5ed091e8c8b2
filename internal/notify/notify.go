// Package notify provides the notification model and the channel providers
// that deliver update messages: local echo, macOS notification center, SMTP
// email, GitHub issues, and Slack webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matdotcx/carrus/internal/config"
	"github.com/matdotcx/carrus/internal/logging"
)

// ErrConfiguration is returned by NewProvider when the selected method is
// missing a required setting. It fires before any network attempt.
var ErrConfiguration = errors.New("invalid notification configuration")

// Notification is the immutable message payload handed to a provider.
// Constructed fresh per send, never mutated afterwards.
type Notification struct {
	Title          string
	Message        string
	Package        string
	CurrentVersion string
	NewVersion     string
	Timestamp      time.Time
}

// NewNotification builds a notification stamped with the current time.
func NewNotification(title, message, pkg, current, newVersion string) Notification {
	return Notification{
		Title:          title,
		Message:        message,
		Package:        pkg,
		CurrentVersion: current,
		NewVersion:     newVersion,
		Timestamp:      time.Now(),
	}
}

// Provider is the capability every notification channel implements. Notify
// reports whether the destination accepted the message; ordinary channel
// failures (timeouts, bad credentials, non-2xx responses) are logged and
// converted to false, never raised.
type Provider interface {
	Notify(ctx context.Context, n Notification) bool
	Name() string
}

// NewProvider selects the concrete provider for the configured method. It is
// a pure function of cfg.Method and fails fast with ErrConfiguration when a
// required field for that method is empty.
func NewProvider(cfg *config.Config) (Provider, error) {
	timeout := cfg.NotifyTimeout.Std()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	switch cfg.Method {
	case config.MethodCLI:
		return NewCLI(nil), nil
	case config.MethodSystem:
		return &System{}, nil
	case config.MethodEmail:
		if cfg.EmailHost == "" || len(cfg.EmailTo) == 0 {
			return nil, fmt.Errorf("%w: email method requires email_host and email_to", ErrConfiguration)
		}
		return &Email{
			Host:    cfg.EmailHost,
			Port:    cfg.EmailPort,
			User:    cfg.EmailUser,
			Pass:    cfg.EmailPass,
			From:    cfg.EmailFrom,
			To:      cfg.EmailTo,
			Timeout: timeout,
		}, nil
	case config.MethodGitHub:
		if cfg.GitHubToken == "" || cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
			return nil, fmt.Errorf("%w: github method requires github_token, github_owner and github_repo", ErrConfiguration)
		}
		return NewGitHub(cfg.GitHubToken, cfg.GitHubOwner, cfg.GitHubRepo, timeout), nil
	case config.MethodSlack:
		if cfg.SlackWebhookURL == "" {
			return nil, fmt.Errorf("%w: slack method requires slack_webhook_url", ErrConfiguration)
		}
		return &Slack{
			WebhookURL: cfg.SlackWebhookURL,
			Channel:    cfg.SlackChannel,
			Username:   cfg.SlackUsername,
			Timeout:    timeout,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrConfiguration, cfg.Method)
	}
}

// reportSend converts a channel error into the boolean provider contract,
// logging the diagnostic on failure.
func reportSend(name string, n Notification, err error) bool {
	if err != nil {
		logging.Get().Error().Err(err).Str("provider", name).Str("package", n.Package).Msg("notification failed")
		return false
	}
	logging.Get().Debug().Str("provider", name).Str("package", n.Package).Msg("notification sent")
	return true
}

// postJSON is a shared helper used by webhook-style providers
func postJSON(ctx context.Context, url string, data interface{}, timeout time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	return nil
}
