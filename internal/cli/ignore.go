package cli

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/launchcg/jsync/internal/hostmodel"
	"github.com/launchcg/jsync/internal/manifest"
	"github.com/launchcg/jsync/internal/resolver"
)

var ignoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Update .gitignore with jsync-generated files",
	Long: `Add the host files jsync generates (.classpath, JDT preferences and the
jsync manifest of every project) to .gitignore so they are not committed.
The lock file is left out on purpose: commit jsync.lock.`,
	RunE: runIgnore,
}

func init() {
	rootCmd.AddCommand(ignoreCmd)
	ignoreCmd.Flags().Bool("print", false, "Print without modifying files")
	ignoreCmd.Flags().StringP("path", "p", ".", "Project directory")
}

const (
	jsyncIgnoreStart = "# --- jsync managed (do not edit) ---"
	jsyncIgnoreEnd   = "# --- end jsync managed ---"
)

func runIgnore(cmd *cobra.Command, args []string) error {
	// Get flags
	printOnly, _ := cmd.Flags().GetBool("print")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	dirs, err := resolver.New(s.fetcher, s.logger).Modules(s.dir)
	if err != nil {
		return err
	}

	if printOnly {
		fmt.Fprint(cmd.OutOrStdout(), buildIgnoreSection(generatedFiles(s.dir, dirs)))
		return nil
	}
	return updateIgnoreForProject(s.dir, dirs)
}

// generatedFiles lists the files jsync writes for each project directory,
// relative to root and slash-separated.
func generatedFiles(root string, dirs []string) []string {
	var files []string
	for _, dir := range dirs {
		rel, err := filepath.Rel(root, dir)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, f := range []string{hostmodel.EclipseClasspathFile, hostmodel.EclipsePrefsFile, manifest.ManifestFile} {
			files = append(files, path.Join(rel, f))
		}
	}
	return files
}

// updateIgnoreForProject updates the .gitignore in root with the files
// generated for the given project directories. This is used by both the
// standalone ignore command and the sync command.
func updateIgnoreForProject(root string, dirs []string) error {
	files := generatedFiles(root, dirs)
	section := buildIgnoreSection(files)

	// Read existing .gitignore
	gitignorePath := filepath.Join(root, ".gitignore")
	existingContent := ""

	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	newContent := updateIgnoreSection(existingContent, section)

	if err := os.WriteFile(gitignorePath, []byte(newContent), 0644); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Updated .gitignore with %d generated file(s)\n", green("✓"), len(files)+1)

	return nil
}

// buildIgnoreSection builds the jsync-managed section content for .gitignore.
func buildIgnoreSection(files []string) string {
	var section strings.Builder
	section.WriteString(jsyncIgnoreStart)
	section.WriteString("\n")

	// Always include the project-local cache directory
	section.WriteString(".jsync/\n")

	for _, file := range files {
		section.WriteString(file)
		section.WriteString("\n")
	}

	section.WriteString(jsyncIgnoreEnd)
	section.WriteString("\n")
	return section.String()
}

// updateIgnoreSection replaces or appends the jsync section in gitignore content.
func updateIgnoreSection(existingContent, section string) string {
	startIdx := strings.Index(existingContent, jsyncIgnoreStart)
	endIdx := strings.Index(existingContent, jsyncIgnoreEnd)

	if startIdx != -1 && endIdx != -1 && endIdx > startIdx {
		endIdx += len(jsyncIgnoreEnd)
		// Skip any trailing newline
		if endIdx < len(existingContent) && existingContent[endIdx] == '\n' {
			endIdx++
		}
		return existingContent[:startIdx] + section + existingContent[endIdx:]
	}

	if existingContent != "" && !strings.HasSuffix(existingContent, "\n") {
		existingContent += "\n"
	}
	if existingContent != "" {
		existingContent += "\n"
	}
	return existingContent + section
}
