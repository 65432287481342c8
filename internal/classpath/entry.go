// Package classpath synthesizes the ordered classpath of a project from its
// build layout and executions.
package classpath

import (
	"fmt"
	"slices"

	"github.com/launchcg/jsync/pkg/level"
)

// Kind is the type of a classpath entry.
type Kind string

const (
	KindSource    Kind = "source"
	KindResource  Kind = "resource"
	KindContainer Kind = "container"
)

// Container paths appended to every classpath.
const (
	JREContainer        = "org.eclipse.jdt.launching.JRE_CONTAINER/org.eclipse.jdt.internal.debug.ui.launcher.StandardVMType"
	DependencyContainer = "jsync.DEPENDENCY_CONTAINER"
)

// Entry is one element of a project classpath.
type Entry struct {
	// Kind is source, resource or container
	Kind Kind `json:"kind"`

	// Path is project-relative and slash-separated; containers use their container path
	Path string `json:"path"`

	// Output is the project-relative output directory; empty for containers
	Output string `json:"output,omitempty"`

	// Test marks entries that only take part in test compilation
	Test bool `json:"test,omitempty"`

	// Executions lists the ids of the executions that contributed the entry
	Executions []string `json:"executions,omitempty"`
}

// JRE returns the JRE container entry for a target level.
func JRE(target level.Level) Entry {
	return Entry{
		Kind: KindContainer,
		Path: fmt.Sprintf("%s/%s", JREContainer, target.ExecutionEnvironment()),
	}
}

// Dependencies returns the dependency container entry.
func Dependencies() Entry {
	return Entry{Kind: KindContainer, Path: DependencyContainer}
}

// String returns a short description like "source src/main/java (test)".
func (e Entry) String() string {
	if e.Test {
		return fmt.Sprintf("%s %s (test)", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Path)
}

// Equal reports whether both entries describe the same classpath element.
func (e Entry) Equal(other Entry) bool {
	return e.Kind == other.Kind &&
		e.Path == other.Path &&
		e.Output == other.Output &&
		e.Test == other.Test &&
		slices.Equal(e.Executions, other.Executions)
}

// Equal reports whether two classpaths hold equal entries in the same order.
func Equal(a, b []Entry) bool {
	return slices.EqualFunc(a, b, Entry.Equal)
}

// Filter returns the entries for which keep returns true.
func Filter(entries []Entry, keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
