package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Stop tracking a package",
	Long: `Remove a package from the store together with all of its recorded
versions and install history.`,
	Example: `  carrus remove Firefox`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	RootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
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
	if err := st.DeletePackage(pkg.ID); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}

	fmt.Printf("Removed %s and all recorded versions\n", name)
	return nil
}
