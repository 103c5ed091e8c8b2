package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// sendMailHook allows tests to override SMTP sending behavior.
var sendMailHook = smtp.SendMail

// Email sends notifications via SMTP. Connection and authentication errors
// surface as a failed send, and Timeout bounds the whole delivery so a stuck
// SMTP server cannot hang the caller.
type Email struct {
	Host, User, Pass string
	From             string
	Port             int
	To               []string
	Timeout          time.Duration
}

// Name returns the notifier backend name.
func (e *Email) Name() string { return "Email" }

func (e *Email) Notify(ctx context.Context, n Notification) bool {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	addr := fmt.Sprintf("%s:%d", e.Host, e.Port)
	var auth smtp.Auth
	if e.User != "" {
		auth = smtp.PlainAuth("", e.User, e.Pass, e.Host)
	}
	from := e.From
	if from == "" {
		from = e.User
	}
	header := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: [carrus] %s\r\n\r\n",
		from,
		strings.Join(e.To, ","),
		n.Title,
	)
	body := header + fmt.Sprintf(
		"%s\n\nPackage: %s\nCurrent Version: %s\nNew Version: %s\n\nTimestamp: %s\n",
		n.Message, n.Package, n.CurrentVersion, n.NewVersion, n.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	)

	// smtp.SendMail has no context support; run it on the side so a stuck
	// connection cannot hang the whole scan past the caller's deadline.
	done := make(chan error, 1)
	go func() {
		done <- sendMailHook(addr, auth, from, e.To, []byte(body))
	}()
	select {
	case err := <-done:
		return reportSend(e.Name(), n, err)
	case <-ctx.Done():
		return reportSend(e.Name(), n, ctx.Err())
	}
}
