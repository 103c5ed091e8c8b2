package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/matdotcx/carrus/internal/config"
)

func sampleNotification() Notification {
	return NewNotification(
		"Update Available",
		"A new version of Firefox is available.",
		"Firefox",
		"1.0.0",
		"1.1.0",
	)
}

func TestCLINotify(t *testing.T) {
	var buf bytes.Buffer
	c := NewCLI(&buf)

	if ok := c.Notify(context.Background(), sampleNotification()); !ok {
		t.Fatal("CLI notify should succeed")
	}
	out := buf.String()
	for _, want := range []string{"Update Available", "Firefox", "1.0.0", "1.1.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) { return 0, errors.New("pipe closed") }

func TestCLINotifyBrokenStream(t *testing.T) {
	c := NewCLI(brokenWriter{})
	if ok := c.Notify(context.Background(), sampleNotification()); ok {
		t.Error("CLI notify should fail when the output stream is broken")
	}
}

func TestSystemNotify(t *testing.T) {
	var gotName string
	var gotArgs []string
	old := runCommandHook
	runCommandHook = func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}
	defer func() { runCommandHook = old }()

	s := &System{}
	if ok := s.Notify(context.Background(), sampleNotification()); !ok {
		t.Fatal("system notify should succeed")
	}
	if gotName != "osascript" {
		t.Errorf("expected osascript, got %q", gotName)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "-e" || !strings.Contains(gotArgs[1], "display notification") {
		t.Errorf("unexpected args: %v", gotArgs)
	}
}

func TestSystemNotifyNoSubsystem(t *testing.T) {
	old := runCommandHook
	runCommandHook = func(ctx context.Context, name string, args ...string) error {
		return errors.New("exec: \"osascript\": executable file not found in $PATH")
	}
	defer func() { runCommandHook = old }()

	s := &System{}
	if ok := s.Notify(context.Background(), sampleNotification()); ok {
		t.Error("system notify should fail when no notification subsystem exists")
	}
}

func TestEmailNotify(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	old := sendMailHook
	sendMailHook = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		return nil
	}
	defer func() { sendMailHook = old }()

	e := &Email{Host: "smtp.example.com", Port: 587, From: "carrus@example.com", To: []string{"ops@example.com"}}
	if ok := e.Notify(context.Background(), sampleNotification()); !ok {
		t.Fatal("email notify should succeed")
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "carrus@example.com" {
		t.Errorf("addr=%q from=%q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ops@example.com" {
		t.Errorf("to=%v", gotTo)
	}
	body := string(gotBody)
	if !strings.Contains(body, "Subject: [carrus] Update Available") || !strings.Contains(body, "New Version: 1.1.0") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestEmailNotifyAuthFailure(t *testing.T) {
	old := sendMailHook
	sendMailHook = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("535 authentication failed")
	}
	defer func() { sendMailHook = old }()

	e := &Email{Host: "smtp.example.com", Port: 587, To: []string{"ops@example.com"}}
	if ok := e.Notify(context.Background(), sampleNotification()); ok {
		t.Error("email notify should fail on auth errors")
	}
}

func TestEmailNotifyHungServer(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	old := sendMailHook
	sendMailHook = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		<-release
		return nil
	}
	defer func() { sendMailHook = old }()

	e := &Email{Host: "smtp.example.com", Port: 587, To: []string{"ops@example.com"}, Timeout: 50 * time.Millisecond}

	done := make(chan bool, 1)
	go func() { done <- e.Notify(context.Background(), sampleNotification()) }()
	select {
	case ok := <-done:
		if ok {
			t.Error("email notify should fail when the SMTP server hangs")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("email notify did not return within its timeout")
	}
}

func TestNewProviderBoundsEmailTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Method = config.MethodEmail
	cfg.EmailHost = "smtp.example.com"
	cfg.EmailTo = []string{"ops@example.com"}

	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	e, ok := p.(*Email)
	if !ok {
		t.Fatalf("expected *Email, got %T", p)
	}
	if e.Timeout != cfg.NotifyTimeout.Std() {
		t.Errorf("email timeout = %v, want %v", e.Timeout, cfg.NotifyTimeout.Std())
	}

	cfg.NotifyTimeout = 0
	p, err = NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if e := p.(*Email); e.Timeout != 10*time.Second {
		t.Errorf("email timeout = %v, want the 10s default", e.Timeout)
	}
}

func TestSlackNotify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		text, _ := payload["text"].(string)
		if !strings.Contains(text, "Firefox") || !strings.Contains(text, "1.1.0") {
			t.Fatalf("unexpected text: %q", text)
		}
		if payload["channel"] != "#updates" || payload["username"] != "carrus" {
			t.Fatalf("missing display fields: %v", payload)
		}
		w.WriteHeader(200)
	}))
	defer server.Close()

	s := &Slack{WebhookURL: server.URL, Channel: "#updates", Username: "carrus"}
	if ok := s.Notify(context.Background(), sampleNotification()); !ok {
		t.Fatal("slack notify should succeed")
	}
}

func TestSlackNotifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	s := &Slack{WebhookURL: server.URL}
	if ok := s.Notify(context.Background(), sampleNotification()); ok {
		t.Error("slack notify should fail on a 4xx response")
	}
}

func TestSlackNotifyTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	s := &Slack{WebhookURL: server.URL, Timeout: 20 * time.Millisecond}
	if ok := s.Notify(context.Background(), sampleNotification()); ok {
		t.Error("slack notify should fail when the remote call times out")
	}
}

func TestSlackNotifyTransportError(t *testing.T) {
	// connection refused: no server behind the URL
	s := &Slack{WebhookURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}
	if ok := s.Notify(context.Background(), sampleNotification()); ok {
		t.Error("slack notify should fail on a transport error")
	}
}

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantName string
	}{
		{"cli", func(c *config.Config) { c.Method = config.MethodCLI }, "CLI"},
		{"system", func(c *config.Config) { c.Method = config.MethodSystem }, "System"},
		{"email", func(c *config.Config) {
			c.Method = config.MethodEmail
			c.EmailHost = "smtp.example.com"
			c.EmailTo = []string{"ops@example.com"}
		}, "Email"},
		{"github", func(c *config.Config) {
			c.Method = config.MethodGitHub
			c.GitHubToken = "t"
			c.GitHubOwner = "o"
			c.GitHubRepo = "r"
		}, "GitHub"},
		{"slack", func(c *config.Config) {
			c.Method = config.MethodSlack
			c.SlackWebhookURL = "https://hooks.slack.com/services/T/B/X"
		}, "Slack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider failed: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("provider name = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNewProviderConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"slack without webhook", func(c *config.Config) { c.Method = config.MethodSlack }},
		{"email without host", func(c *config.Config) {
			c.Method = config.MethodEmail
			c.EmailTo = []string{"ops@example.com"}
		}},
		{"email without recipients", func(c *config.Config) {
			c.Method = config.MethodEmail
			c.EmailHost = "smtp.example.com"
		}},
		{"github without token", func(c *config.Config) {
			c.Method = config.MethodGitHub
			c.GitHubOwner = "o"
			c.GitHubRepo = "r"
		}},
		{"unknown method", func(c *config.Config) { c.Method = "pigeon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if _, err := NewProvider(cfg); !errors.Is(err, ErrConfiguration) {
				t.Errorf("NewProvider = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestNotificationTimestamp(t *testing.T) {
	before := time.Now()
	n := sampleNotification()
	if n.Timestamp.Before(before.Add(-time.Second)) || n.Timestamp.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp not set at construction: %v", n.Timestamp)
	}
}
