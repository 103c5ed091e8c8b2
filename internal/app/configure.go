package app

import (
	"fmt"
	"strings"

	"github.com/matdotcx/carrus/internal/config"
	"github.com/spf13/cobra"
)

var (
	confEnabled      bool
	confMethod       string
	confInterval     int
	confSlackWebhook string
	confSlackChannel string
	confEmailHost    string
	confEmailPort    int
	confEmailFrom    string
	confEmailTo      []string
	confGitHubOwner  string
	confGitHubRepo   string
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Update and persist notification settings",
	Long: `Rewrite the persisted configuration file. Only the flags you pass are
changed; everything else keeps its current value.

Secrets (slack webhook aside, which is a capability URL) are better
supplied via CARRUS_* environment variables or a .env file than written
to disk; the email password and github token have no flags here for
that reason.`,
	Example: `  # Switch to slack notifications
  carrus configure --method slack --slack-webhook https://hooks.slack.com/services/T/B/X

  # Turn notifications off without losing settings
  carrus configure --enabled=false`,
	RunE: runConfigure,
}

func init() {
	f := configureCmd.Flags()
	f.BoolVar(&confEnabled, "enabled", true, "enable or disable notifications")
	f.StringVar(&confMethod, "method", "", "notification method (cli|system|email|github|slack)")
	f.IntVar(&confInterval, "interval", 0, "hours between checks")
	f.StringVar(&confSlackWebhook, "slack-webhook", "", "slack incoming webhook URL")
	f.StringVar(&confSlackChannel, "slack-channel", "", "slack channel override")
	f.StringVar(&confEmailHost, "email-host", "", "SMTP host")
	f.IntVar(&confEmailPort, "email-port", 0, "SMTP port")
	f.StringVar(&confEmailFrom, "email-from", "", "sender address")
	f.StringSliceVar(&confEmailTo, "email-to", nil, "recipient addresses")
	f.StringVar(&confGitHubOwner, "github-owner", "", "github repository owner")
	f.StringVar(&confGitHubRepo, "github-repo", "", "github repository name")
	RootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	if flags.Changed("enabled") {
		cfg.Enabled = confEnabled
	}
	if flags.Changed("method") {
		m := strings.ToLower(confMethod)
		if !config.ValidMethod(m) {
			return fmt.Errorf("unknown notification method %q", confMethod)
		}
		cfg.Method = m
	}
	if flags.Changed("interval") {
		if confInterval < 0 {
			return fmt.Errorf("interval must not be negative")
		}
		cfg.IntervalHours = confInterval
	}
	if flags.Changed("slack-webhook") {
		cfg.SlackWebhookURL = confSlackWebhook
	}
	if flags.Changed("slack-channel") {
		cfg.SlackChannel = confSlackChannel
	}
	if flags.Changed("email-host") {
		cfg.EmailHost = confEmailHost
	}
	if flags.Changed("email-port") {
		cfg.EmailPort = confEmailPort
	}
	if flags.Changed("email-from") {
		cfg.EmailFrom = confEmailFrom
	}
	if flags.Changed("email-to") {
		cfg.EmailTo = confEmailTo
	}
	if flags.Changed("github-owner") {
		cfg.GitHubOwner = confGitHubOwner
	}
	if flags.Changed("github-repo") {
		cfg.GitHubRepo = confGitHubRepo
	}

	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}
	if err := config.SaveConfigToFile(cfg, path); err != nil {
		return err
	}

	for _, w := range cfg.Validate() {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}
