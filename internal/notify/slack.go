package notify

import (
	"context"
	"fmt"
	"time"
)

// Slack posts a formatted payload to an incoming-webhook URL with the
// configured channel and sender display fields. Non-2xx responses and
// transport errors fail the send.
type Slack struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
}

func (s *Slack) Name() string { return "Slack" }

func (s *Slack) Notify(ctx context.Context, n Notification) bool {
	payload := map[string]interface{}{
		"text": fmt.Sprintf("*%s*\n%s\n%s: %s -> %s", n.Title, n.Message, n.Package, n.CurrentVersion, n.NewVersion),
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	if s.Username != "" {
		payload["username"] = s.Username
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	err := postJSON(ctx, s.WebhookURL, payload, timeout)
	return reportSend(s.Name(), n, err)
}
