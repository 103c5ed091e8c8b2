package app

import (
	"context"
	"fmt"

	"github.com/matdotcx/carrus/internal/notify"
	"github.com/matdotcx/carrus/internal/service"
	"github.com/spf13/cobra"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test notification over the configured channel",
	Long: `Send a single test notification through the configured method to verify
credentials and connectivity end to end. Exits non-zero when the
channel does not accept it.`,
	Example: `  carrus notify-test`,
	RunE:    runNotifyTest,
}

func init() {
	RootCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := service.New(cfg, st)
	if err != nil {
		return err
	}

	n := notify.NewNotification(
		"Test Notification",
		"If you can read this, carrus notifications are working.",
		"carrus",
		"", "",
	)
	if !svc.NotifyOnce(context.Background(), n) {
		return fmt.Errorf("the %s channel did not accept the test notification", cfg.Method)
	}
	fmt.Printf("Test notification sent via %s.\n", cfg.Method)
	return nil
}
