package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runCommandHook allows tests to override subprocess execution
var runCommandHook = func(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// System surfaces a native desktop notification through the macOS
// notification center. Hosts without osascript fail the send rather than
// crashing the scan.
type System struct{}

func (s *System) Name() string { return "System" }

func (s *System) Notify(ctx context.Context, n Notification) bool {
	script := fmt.Sprintf("display notification %q with title %q",
		sanitizeScriptArg(n.Message), sanitizeScriptArg(n.Title))
	err := runCommandHook(ctx, "osascript", "-e", script)
	return reportSend(s.Name(), n, err)
}

// sanitizeScriptArg strips characters that would break out of the quoted
// AppleScript string literal.
func sanitizeScriptArg(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "\\", "")
	return s
}
