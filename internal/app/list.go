package app

import (
	"fmt"

	"github.com/matdotcx/carrus/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List tracked packages or the versions of one",
	Long: `Without arguments, list every tracked package with its latest and
installed versions. With a package name, list all recorded versions of
that package, newest first.`,
	Example: `  # All packages
  carrus list

  # All versions of Firefox
  carrus list Firefox`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		return listVersionsOf(st, args[0])
	}

	packages, err := st.ListPackages()
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}
	if len(packages) == 0 {
		fmt.Println("No packages tracked yet. Run 'carrus add' to record one.")
		return nil
	}

	fmt.Printf("%-24s %-14s %-14s\n", "PACKAGE", "LATEST", "INSTALLED")
	for _, pkg := range packages {
		latest, err := st.LatestVersion(pkg.ID)
		if err != nil {
			return err
		}
		installed, err := st.InstalledVersion(pkg.ID)
		if err != nil {
			return err
		}
		latestStr, installedStr := "-", "-"
		if latest != nil {
			latestStr = latest.Version
		}
		if installed != nil {
			installedStr = installed.Version
		}
		marker := ""
		if latest != nil && (installed == nil || installed.Version != latest.Version) {
			marker = "  (update pending)"
		}
		fmt.Printf("%-24s %-14s %-14s%s\n", pkg.Name, latestStr, installedStr, marker)
	}
	return nil
}

func listVersionsOf(st *store.Store, name string) error {
	pkg, err := st.GetPackageByName(name)
	if err != nil {
		return fmt.Errorf("package %s: %w", name, err)
	}
	versions, err := st.ListVersions(pkg.ID)
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}
	if len(versions) == 0 {
		fmt.Printf("No versions recorded for %s.\n", name)
		return nil
	}

	fmt.Printf("%-14s %-11s %-12s %s\n", "VERSION", "INSTALLED", "RELEASED", "URL")
	for _, v := range versions {
		installed := ""
		if v.Installed {
			installed = "yes"
		}
		released := "-"
		if v.ReleaseDate != nil {
			released = v.ReleaseDate.Format("2006-01-02")
		}
		fmt.Printf("%-14s %-11s %-12s %s\n", v.Version, installed, released, v.URL)
	}
	return nil
}
