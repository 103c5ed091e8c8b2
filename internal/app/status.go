package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matdotcx/carrus/internal/service"
	"github.com/matdotcx/carrus/internal/state"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show notification settings and the last check",
	Long: `Display the effective notification configuration, the outcome of the
most recent update check, and how many updates are currently pending.`,
	Example: `  # Check status
  carrus status`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	const label = "%-14s"

	fmt.Println()

	enabled := "disabled"
	if cfg.Enabled {
		enabled = "enabled"
	}
	fmt.Printf(label+"%s · method %s · every %dh\n", "Notifications:", enabled, cfg.Method, cfg.IntervalHours)
	fmt.Printf(label+"%s\n", "Destination:", describeDestination())

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Printf(label+"%s (not created yet, run 'carrus add')\n", "Database:", cfg.DBPath)
		fmt.Println()
		return nil
	}
	fmt.Printf(label+"%s\n", "Database:", cfg.DBPath)

	rec, err := state.LoadCheckRecord()
	if err != nil || rec.LastCheck.IsZero() {
		fmt.Printf(label+"never (run 'carrus check')\n", "Last check:")
	} else {
		fmt.Printf(label+"%s · %d pending · %d sent\n", "Last check:",
			formatAge(time.Since(rec.LastCheck)), rec.Pending, rec.Sent)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	packages, err := st.ListPackages()
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}

	svc := service.NewWithProvider(cfg, st, nil)
	pending, err := svc.CheckUpdates(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf(label+"%d tracked · %d pending update(s)\n", "Packages:", len(packages), len(pending))
	for _, n := range pending {
		fmt.Printf("              %s: %s -> %s\n", n.Package, n.CurrentVersion, n.NewVersion)
	}

	fmt.Println()
	return nil
}

// describeDestination summarizes where notifications go for the selected
// method, without leaking credentials.
func describeDestination() string {
	switch cfg.Method {
	case "slack":
		if cfg.SlackChannel != "" {
			return fmt.Sprintf("slack channel %s", cfg.SlackChannel)
		}
		return "slack webhook"
	case "email":
		return fmt.Sprintf("%d recipient(s) via %s", len(cfg.EmailTo), cfg.EmailHost)
	case "github":
		return fmt.Sprintf("issues on %s/%s", cfg.GitHubOwner, cfg.GitHubRepo)
	case "system":
		return "desktop notification center"
	default:
		return "standard output"
	}
}

// formatAge renders a duration in coarse human terms.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}
