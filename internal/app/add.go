package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	addVersionFlag     string
	addURLFlag         string
	addChecksumFlag    string
	addReleaseDateFlag string
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Record a new version of a package",
	Long: `Record a package version in the store. The package is created on first
use; adding the same version again updates its url, checksum, and
release date without touching the installed marker.

This is the write surface for a build or recipe pipeline: every time it
produces or discovers a version, it calls add, and 'carrus check' picks
up the difference.`,
	Example: `  # Record a freshly built version
  carrus add Firefox --version 121.0 --url https://example.com/Firefox-121.0.dmg

  # With integrity and release metadata
  carrus add Firefox --version 121.0 --url https://example.com/Firefox-121.0.dmg \
    --checksum 3f5a... --release-date 2024-01-16`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addVersionFlag, "version", "", "version string (required)")
	addCmd.Flags().StringVar(&addURLFlag, "url", "", "download URL (required)")
	addCmd.Flags().StringVar(&addChecksumFlag, "checksum", "", "artifact checksum")
	addCmd.Flags().StringVar(&addReleaseDateFlag, "release-date", "", "release date (2006-01-02 or RFC 3339)")
	addCmd.MarkFlagRequired("version")
	addCmd.MarkFlagRequired("url")
	RootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	var releaseDate *time.Time
	if addReleaseDateFlag != "" {
		t, err := parseReleaseDate(addReleaseDateFlag)
		if err != nil {
			return err
		}
		releaseDate = &t
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pkgID, err := st.AddPackage(name)
	if err != nil {
		return fmt.Errorf("failed to add package %s: %w", name, err)
	}
	if _, err := st.AddVersion(pkgID, addVersionFlag, addURLFlag, addChecksumFlag, releaseDate); err != nil {
		return fmt.Errorf("failed to add version %s of %s: %w", addVersionFlag, name, err)
	}

	fmt.Printf("Recorded %s %s\n", name, addVersionFlag)
	return nil
}

func parseReleaseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid release date %q (want 2006-01-02 or RFC 3339)", s)
}
