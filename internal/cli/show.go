package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/hostmodel"
	"github.com/launchcg/jsync/internal/reconcile"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration derived from the build descriptor",
	Long: `Derive the compiler options and classpath of a project without publishing
them. Prints the inheritance chain, every compiler option and the ordered
classpath.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringP("path", "p", ".", "Project directory")
	showCmd.Flags().Bool("json", false, "Print as JSON")
}

// projectView is the JSON form of a derived project configuration.
type projectView struct {
	Project    string             `json:"project"`
	Generation uint64             `json:"generation,omitempty"`
	Digest     string             `json:"digest,omitempty"`
	Chain      []string           `json:"chain,omitempty"`
	Options    map[string]string  `json:"options,omitempty"`
	Classpath  []classpath.Entry  `json:"classpath,omitempty"`
	Markers    []reconcile.Marker `json:"markers,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	s.settings.Host = hostmodel.MemoryName

	ws, err := s.workspace(false, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	projects, err := ws.Import(cmd.Context(), s.dir)
	if err != nil {
		return err
	}

	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, viewOf(s, p))
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		printView(cmd.OutOrStdout(), v)
	}
	return nil
}

func viewOf(s *session, p *reconcile.Project) projectView {
	v := projectView{
		Project: s.rel(p.Dir()),
		Markers: p.Markers(),
	}
	if chain := p.Chain(); chain != nil {
		for _, l := range chain.Links {
			if l.File != "" {
				v.Chain = append(v.Chain, s.rel(l.File))
			} else {
				v.Chain = append(v.Chain, l.Source)
			}
		}
	}
	if snap := p.Snapshot(); snap != nil {
		v.Generation = snap.Generation
		v.Digest = snap.Digest
		v.Options = snap.Options.Map()
		v.Classpath = snap.Classpath
	}
	return v
}

func printView(w io.Writer, v projectView) {
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s\n", cyan(v.Project))

	if len(v.Chain) > 0 {
		fmt.Fprintf(w, "\n  %s\n", bold("Descriptors"))
		for _, c := range v.Chain {
			fmt.Fprintf(w, "    %s %s\n", gray("└──"), c)
		}
	}

	if len(v.Options) > 0 {
		fmt.Fprintf(w, "\n  %s\n", bold("Compiler options"))
		for _, k := range slices.Sorted(maps.Keys(v.Options)) {
			fmt.Fprintf(w, "    %s = %s\n", k, v.Options[k])
		}
	}

	if len(v.Classpath) > 0 {
		fmt.Fprintf(w, "\n  %s\n", bold("Classpath"))
		for _, e := range v.Classpath {
			fmt.Fprintf(w, "    %s %s\n", gray("└──"), e)
		}
	}

	if len(v.Markers) > 0 {
		fmt.Fprintf(w, "\n  %s\n", bold("Problems"))
		for _, m := range v.Markers {
			fmt.Fprintf(w, "    %s %s\n", gray("└──"), m)
		}
	}
}
