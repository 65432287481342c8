package classpath

import (
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/pkg/level"
)

// execution is a declared or synthesized execution with its roots resolved.
type execution struct {
	id    string
	goal  descriptor.Goal
	roots []string
	skip  bool
}

// Synthesizer builds classpaths from descriptors.
type Synthesizer struct {
	logger *slog.Logger
}

// NewSynthesizer creates a classpath synthesizer.
func NewSynthesizer(logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{logger: logger}
}

// Synthesize returns the ordered classpath of the project described by d.
//
// fsys is rooted at the project directory and is used to drop roots that do
// not exist. Entries are ordered by execution (synthesized defaults first,
// then declared executions in declaration order) followed by the JRE and
// dependency containers. A root appears once, as long as at least one
// non-skipped execution contributes it.
func (s *Synthesizer) Synthesize(d *descriptor.Descriptor, target level.Level, fsys fs.FS) []Entry {
	layout := d.Layout()
	executions := plan(d, layout)

	var entries []Entry
	index := make(map[string]int)

	for _, exec := range executions {
		if exec.skip {
			s.logger.Debug("execution skipped", "project", d.Name(), "execution", exec.id)
			continue
		}

		test := exec.goal.IsTest()
		kind := KindSource
		if exec.goal.IsResource() {
			kind = KindResource
		}
		output := layout.OutputDirectory
		if test {
			output = layout.TestOutputDirectory
		}

		for _, root := range exec.roots {
			rel, ok := projectRelative(d.Dir(), root)
			if !ok {
				s.logger.Debug("root outside project", "project", d.Name(), "execution", exec.id, "root", root)
				continue
			}

			if i, seen := index[rel]; seen {
				entries[i].Executions = appendUnique(entries[i].Executions, exec.id)
				continue
			}

			if !isDir(fsys, rel) {
				s.logger.Debug("root does not exist", "project", d.Name(), "execution", exec.id, "root", rel)
				continue
			}

			index[rel] = len(entries)
			entries = append(entries, Entry{
				Kind:       kind,
				Path:       rel,
				Output:     output,
				Test:       test,
				Executions: []string{exec.id},
			})
		}
	}

	entries = append(entries, JRE(target), Dependencies())
	return entries
}

// plan merges the synthesized default executions with the declared ones.
// A declared execution with a default id overrides that default in place.
func plan(d *descriptor.Descriptor, layout descriptor.Layout) []execution {
	out := make([]execution, 0, len(descriptor.DefaultExecutionIDs)+len(d.Executions))
	byID := make(map[string]int)

	for _, id := range descriptor.DefaultExecutionIDs {
		goal := descriptor.DefaultGoalFor(id)
		byID[id] = len(out)
		out = append(out, execution{id: id, goal: goal, roots: defaultRoots(goal, layout)})
	}

	for _, e := range d.Executions {
		goal := e.EffectiveGoal()
		roots := e.Roots
		if roots == nil {
			roots = defaultRoots(goal, layout)
		}

		if i, ok := byID[e.ID]; ok {
			out[i].goal = goal
			out[i].roots = roots
			out[i].skip = e.Skipped()
			continue
		}

		byID[e.ID] = len(out)
		out = append(out, execution{id: e.ID, goal: goal, roots: roots, skip: e.Skipped()})
	}

	if d.SkipTests() {
		for i := range out {
			if out[i].goal.IsTest() {
				out[i].skip = true
			}
		}
	}
	return out
}

// defaultRoots returns the layout directories a goal contributes when the
// execution does not list roots. The add-* goals have no defaults.
func defaultRoots(goal descriptor.Goal, layout descriptor.Layout) []string {
	switch goal {
	case descriptor.GoalCompile:
		return []string{layout.SourceDirectory}
	case descriptor.GoalTestCompile:
		return []string{layout.TestSourceDirectory}
	case descriptor.GoalResources:
		return layout.Resources
	case descriptor.GoalTestResources:
		return layout.TestResources
	}
	return nil
}

// projectRelative returns root as a clean slash-separated path relative to
// the project directory. Absolute roots must lie inside the project.
func projectRelative(dir, root string) (string, bool) {
	if filepath.IsAbs(root) {
		rel, err := filepath.Rel(dir, root)
		if err != nil {
			return "", false
		}
		root = rel
	}

	rel := path.Clean(filepath.ToSlash(root))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func isDir(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.IsDir()
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
