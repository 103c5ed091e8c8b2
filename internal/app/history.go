package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show the install history of a package",
	Long: `List the install and uninstall attempts recorded for a package, newest
first, including the failure message when an attempt did not succeed.`,
	Example: `  carrus history Firefox`,
	Args:    cobra.ExactArgs(1),
	RunE:    runHistory,
}

func init() {
	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	name := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pkg, err := st.GetPackageByName(name)
	if err != nil {
		return fmt.Errorf("package %s: %w", name, err)
	}
	entries, err := st.PackageHistory(pkg.ID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("No install history recorded for %s.\n", name)
		return nil
	}

	fmt.Printf("%-14s %-11s %-9s %s\n", "VERSION", "ACTION", "STATUS", "WHEN")
	for _, e := range entries {
		fmt.Printf("%-14s %-11s %-9s %s\n", e.Version, e.Action, e.Status, e.CreatedAt.Format("2006-01-02 15:04"))
		if e.ErrorMessage != "" {
			fmt.Printf("              %s\n", e.ErrorMessage)
		}
	}
	return nil
}
