// Package cli implements the command-line interface for jsync.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose int
)

// rootCmd is the base command for jsync
var rootCmd = &cobra.Command{
	Use:   "jsync",
	Short: "Keep Java compiler settings in sync with build descriptors",
	Long: `jsync derives a Java project's compiler options and classpath from its
build descriptor (build.hcl or build.toml) and publishes them to the host
project model, for example Eclipse .settings and .classpath files.

Run 'jsync sync' once, or 'jsync watch' to re-synchronize on every edit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&verbose, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("host", "", "Host model to publish to (eclipse, memory)")
	flags.String("toolchain-min", "", "Lowest language level the toolchain supports")
	flags.String("toolchain-max", "", "Highest language level the toolchain supports")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}
