package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Print the version, commit, and build details of this binary.

Examples:
  svgs2fonts version
  svgs2fonts version --short
  svgs2fonts version --format json`,
	RunE: runVersion,
}

var (
	versionFormat string
	versionShort  bool
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch versionFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(version.Get())
	case "text":
		if versionShort {
			fmt.Fprintln(out, version.Current())
		} else {
			fmt.Fprintln(out, version.Detailed())
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}
