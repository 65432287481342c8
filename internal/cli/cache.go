package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the remote parent descriptor cache",
	Long:  "List or clear the cached copies of remote parent descriptors.",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached parent descriptors",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:       "clear [protocol]",
	Short:     "Remove cached parent descriptors",
	Long:      "Remove every cached parent descriptor, or only those of one protocol (git, https, s3, az).",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"git", "https", "s3", "az"},
	RunE:      runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.PersistentFlags().StringP("path", "p", ".", "Project directory (for settings lookup)")
}

func runCacheList(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	entries, err := s.cache.Entries()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No cached descriptors in %s.\n", s.cache.Dir)
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(out, "Cached descriptors in %s:\n\n", s.cache.Dir)

	var total int64
	for _, e := range entries {
		total += e.Size
		fmt.Fprintf(out, "  %s %s\n", cyan(e.Source), gray(e.Protocol))
		fmt.Fprintf(out, "    %s %s, %s, fetched %s\n", gray("└──"), e.Name, humanize.Bytes(uint64(e.Size)), humanize.Time(e.ModTime))
	}

	fmt.Fprintf(out, "\n%d descriptor(s), %s\n", len(entries), humanize.Bytes(uint64(total)))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	protocol := ""
	if len(args) > 0 {
		protocol = args[0]
	}

	if err := s.cache.Clear(protocol); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	if protocol == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s Cleared %s\n", green("✓"), s.cache.Dir)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s Cleared %s descriptors from %s\n", green("✓"), protocol, s.cache.Dir)
	}
	return nil
}
