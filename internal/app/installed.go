package app

import (
	"fmt"

	"github.com/matdotcx/carrus/internal/store"
	"github.com/spf13/cobra"
)

var installedCmd = &cobra.Command{
	Use:   "installed <name> <version>",
	Short: "Mark a version as the installed one",
	Long: `Mark a recorded version as installed. At most one version of a package
is ever marked installed; marking a new one clears the previous marker
in the same transaction. The change is also appended to the package's
install history.`,
	Example: `  # After the pipeline installs Firefox 121.0
  carrus installed Firefox 121.0`,
	Args: cobra.ExactArgs(2),
	RunE: runInstalled,
}

func init() {
	RootCmd.AddCommand(installedCmd)
}

func runInstalled(cmd *cobra.Command, args []string) error {
	name, version := args[0], args[1]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pkg, err := st.GetPackageByName(name)
	if err != nil {
		return fmt.Errorf("package %s: %w", name, err)
	}

	target, err := findVersion(st, pkg.ID, version)
	if err != nil {
		return err
	}

	if err := st.SetInstalled(target.ID, true); err != nil {
		return fmt.Errorf("failed to mark %s %s installed: %w", name, version, err)
	}
	if err := st.AddInstallHistory(pkg.ID, version, "install", "success", ""); err != nil {
		return fmt.Errorf("failed to record install history: %w", err)
	}

	fmt.Printf("%s %s marked installed\n", name, version)
	return nil
}

func findVersion(st *store.Store, pkgID int64, version string) (*store.Version, error) {
	versions, err := st.ListVersions(pkgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	for i := range versions {
		if versions[i].Version == version {
			return &versions[i], nil
		}
	}
	return nil, fmt.Errorf("version %s is not recorded; run 'carrus add' first", version)
}
