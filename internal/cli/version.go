package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/launchcg/jsync/internal/hostmodel"
)

// Version information, set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show jsync version",
	Long:  "Display the version, commit hash, build date and available host models of jsync.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jsync %s (%s) built %s\n", Version, Commit, Date)
		fmt.Fprintf(cmd.OutOrStdout(), "host models: %s\n", strings.Join(hostmodel.Registered(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
