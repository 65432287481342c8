package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/launchcg/jsync/internal/reconcile"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-synchronize whenever a build descriptor changes",
	Long: `Import the project like 'jsync sync', then watch its descriptors and the
local parent descriptors they inherit from. Every edit triggers a new
reconciliation of the affected projects. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		mu       sync.Mutex
		imported bool
	)
	report := func(r reconcile.Report) {
		mu.Lock()
		defer mu.Unlock()
		if imported {
			printReport(s, r)
		}
	}

	ws, err := s.workspace(true, report)
	if err != nil {
		return err
	}
	defer ws.Close()

	projects, err := ws.Import(ctx, s.dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	for _, p := range projects {
		printProject(s, p)
	}

	mu.Lock()
	imported = true
	mu.Unlock()

	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Printf("\n%s\n", gray(fmt.Sprintf("Watching %d project(s) for descriptor changes...", len(projects))))

	<-ctx.Done()
	s.logger.Debug("watch stopped")
	return nil
}

// printReport prints one reconciliation pass as it completes.
func printReport(s *session, r reconcile.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	stamp := gray(time.Now().Format("15:04:05"))
	name := cyan(s.rel(r.Project))

	switch {
	case reconcile.HasErrors(r.Markers):
		fmt.Printf("%s %s %s %d problem(s)\n", stamp, red("✗"), name, len(r.Markers))
	case r.Published:
		fmt.Printf("%s %s %s published generation %d %s\n", stamp, green("✓"), name, r.Generation, gray(r.Duration.Round(time.Millisecond)))
	case len(r.Markers) > 0:
		fmt.Printf("%s %s %s unchanged, %d warning(s)\n", stamp, yellow("⚠"), name, len(r.Markers))
	default:
		fmt.Printf("%s %s %s unchanged\n", stamp, gray("·"), name)
	}
	for _, m := range r.Markers {
		fmt.Printf("         %s %s\n", gray("└──"), m)
	}
}
