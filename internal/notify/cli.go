package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// CLI echoes the formatted notification to the invoking process's standard
// output. It only fails when the output stream itself is broken.
type CLI struct {
	Out io.Writer
}

// NewCLI returns a CLI provider writing to out, or stdout when out is nil.
func NewCLI(out io.Writer) *CLI {
	if out == nil {
		out = os.Stdout
	}
	return &CLI{Out: out}
}

func (c *CLI) Name() string { return "CLI" }

func (c *CLI) Notify(ctx context.Context, n Notification) bool {
	_ = ctx
	_, err := fmt.Fprintf(c.Out, "\n%s\n%s\nPackage: %s (%s -> %s)\n",
		n.Title, n.Message, n.Package, n.CurrentVersion, n.NewVersion)
	return reportSend(c.Name(), n, err)
}
