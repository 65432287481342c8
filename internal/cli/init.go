package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/pkg/level"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new jsync project",
	Long:  "Creates a build.hcl (or build.toml) descriptor in the current or specified directory.",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("name", "n", "", "Project name (defaults to directory name)")
	initCmd.Flags().StringP("release", "r", "17", "Java release to compile for")
	initCmd.Flags().String("format", "hcl", "Descriptor format: hcl or toml")
	initCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Get flags
	name, _ := cmd.Flags().GetString("name")
	release, _ := cmd.Flags().GetString("release")
	format, _ := cmd.Flags().GetString("format")
	projectPath, _ := cmd.Flags().GetString("path")

	// Resolve absolute path
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Default name to directory name
	if name == "" {
		name = filepath.Base(absPath)
	}

	if _, err := level.Parse(release); err != nil {
		return fmt.Errorf("invalid release: %w", err)
	}

	if existing, ok := descriptor.Find(absPath); ok {
		return fmt.Errorf("%s already exists in %s", filepath.Base(existing), absPath)
	}

	fileName, content, err := starterDescriptor(format, name, release)
	if err != nil {
		return err
	}

	// Verify the starter parses before writing it
	if _, err := descriptor.Parse(fileName, []byte(content)); err != nil {
		return err
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", absPath, err)
	}
	if err := os.WriteFile(filepath.Join(absPath, fileName), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", fileName, err)
	}

	// Print success message
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s in %s\n", green("✓"), fileName, absPath)
	fmt.Fprintf(cmd.OutOrStdout(), "  Project: %s\n", name)
	fmt.Fprintf(cmd.OutOrStdout(), "  Release: %s\n", release)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Next steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "  1. Adjust the compiler settings in "+fileName)
	fmt.Fprintln(cmd.OutOrStdout(), "  2. Run 'jsync sync' to publish them")

	return nil
}

// starterDescriptor returns the file name and content of a new descriptor.
func starterDescriptor(format, name, release string) (string, string, error) {
	switch format {
	case "hcl":
		return descriptor.HCLFileName, fmt.Sprintf(`project {
  name = %q
}

compiler {
  release = %q
}
`, name, release), nil
	case "toml":
		return descriptor.TOMLFileName, fmt.Sprintf(`[project]
name = %q

[compiler]
release = %q
`, name, release), nil
	}
	return "", "", fmt.Errorf("unknown descriptor format %q (want hcl or toml)", format)
}
