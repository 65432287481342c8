package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/launchcg/jsync/internal/compiler"
	"github.com/launchcg/jsync/internal/lockfile"
	"github.com/launchcg/jsync/internal/reconcile"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize compiler settings with the build descriptor",
	Long: `Synchronize the host project model with build.hcl (or build.toml).

Imports the project and every module it aggregates, resolves parent
descriptors, and publishes the compiler options and classpath of each
project. Remote parents are verified against jsync.lock; new parents are
recorded in it.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringP("path", "p", ".", "Project directory")
	syncCmd.Flags().Bool("update-lock", false, "Re-record the integrity of every remote parent")
	syncCmd.Flags().Bool("no-lock", false, "Don't verify or update the lock file")
	syncCmd.Flags().Bool("update-ignore", false, "Update .gitignore with jsync-managed files")
}

func runSync(cmd *cobra.Command, args []string) error {
	// Get flags
	updateLock, _ := cmd.Flags().GetBool("update-lock")
	noLock, _ := cmd.Flags().GetBool("no-lock")
	updateIgnore, _ := cmd.Flags().GetBool("update-ignore")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	var lf *lockfile.LockFile
	lockExisted := false
	if !noLock {
		lf, err = lockfile.Load(s.dir)
		if err != nil {
			return fmt.Errorf("failed to load lock file: %w", err)
		}
		if _, err := os.Stat(lf.Path()); err == nil {
			lockExisted = true
		}
		if updateLock {
			for _, source := range lf.Sources() {
				lf.Remove(source)
			}
		}
		s.fetcher.SetLock(lf)
	}

	ws, err := s.workspace(false, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	projects, err := ws.Import(cmd.Context(), s.dir)
	if err != nil {
		return err
	}

	failed := 0
	for _, p := range projects {
		printProject(s, p)
		if reconcile.HasErrors(p.Markers()) {
			failed++
		}
	}

	if lf != nil {
		for _, source := range lf.Prune(s.fetcher.Used()) {
			s.logger.Info("removed unused parent from lock file", "source", source)
		}
		if lockExisted || len(lf.Sources()) > 0 {
			if err := lf.Save(); err != nil {
				return fmt.Errorf("failed to save lock file: %w", err)
			}
		}
	}

	if updateIgnore {
		dirs := make([]string, 0, len(projects))
		for _, p := range projects {
			dirs = append(dirs, p.Dir())
		}
		if err := updateIgnoreForProject(s.dir, dirs); err != nil {
			fmt.Printf("%s Failed to update .gitignore: %v\n", color.YellowString("⚠"), err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d project(s) failed to synchronize", failed, len(projects))
	}
	return nil
}

// printProject prints the outcome of a project's last pass.
func printProject(s *session, p *reconcile.Project) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	markers := p.Markers()
	name := s.rel(p.Dir())

	switch {
	case reconcile.HasErrors(markers):
		fmt.Printf("%s %s\n", red("✗"), cyan(name))
	case len(markers) > 0:
		fmt.Printf("%s %s\n", yellow("⚠"), cyan(name))
	default:
		fmt.Printf("%s %s\n", green("✓"), cyan(name))
	}

	if snap := p.Snapshot(); snap != nil {
		release := ""
		if snap.Options.Value(compiler.OptionRelease) == compiler.Enabled {
			release = " release"
		}
		fmt.Printf("    %s source %s, target %s, compliance %s%s, %d classpath entries\n",
			gray("└──"),
			snap.Options.Value(compiler.OptionSource),
			snap.Options.Value(compiler.OptionTargetPlatform),
			snap.Options.Value(compiler.OptionCompliance),
			release,
			len(snap.Classpath))
	}
	for _, m := range markers {
		fmt.Printf("    %s %s\n", gray("└──"), m)
	}
}
