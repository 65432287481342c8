package descriptor

import (
	"fmt"
	"path/filepath"

	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/pkg/level"
)

// Validate checks the descriptor for errors.
// It ensures levels parse, goals are known and references are well formed.
// Levels outside the toolchain range are not an error here; the compiler
// mapper clamps them and reports a warning.
func (d *Descriptor) Validate() error {
	if d.Project.RequireJava != "" {
		if _, err := level.ParseConstraint(d.Project.RequireJava); err != nil {
			return errors.NewValidationError("project", "require_java", err.Error())
		}
	}

	seenModules := make(map[string]bool)
	for _, m := range d.Project.Modules {
		if m == "" {
			return errors.NewValidationError("project", "modules", "module path cannot be empty")
		}
		if filepath.IsAbs(m) {
			return errors.NewValidationError("project", "modules", fmt.Sprintf("module path %q must be relative", m))
		}
		clean := filepath.Clean(m)
		if seenModules[clean] {
			return errors.NewValidationError("project", "modules", fmt.Sprintf("duplicate module %q", m))
		}
		seenModules[clean] = true
	}

	if d.Parent != nil {
		if d.Parent.Path == "" && d.Parent.Source == "" {
			return errors.NewValidationError("parent", "", "must have either path or source")
		}
		if d.Parent.Path != "" && d.Parent.Source != "" {
			return errors.NewValidationError("parent", "", "cannot have both path and source")
		}
	}

	if d.Compiler != nil {
		levels := []struct {
			field string
			value string
		}{
			{"source", d.Compiler.Source},
			{"target", d.Compiler.Target},
			{"compliance", d.Compiler.Compliance},
			{"release", d.Compiler.Release},
		}
		for _, l := range levels {
			if l.value == "" {
				continue
			}
			if _, err := level.Parse(l.value); err != nil {
				return errors.NewValidationError("compiler", l.field, err.Error())
			}
		}
	}

	seenExecutions := make(map[string]bool)
	for _, e := range d.Executions {
		resource := "execution:" + e.ID
		if e.ID == "" {
			return errors.NewValidationError("execution", "id", "execution id is required")
		}
		if seenExecutions[e.ID] {
			return errors.NewValidationError(resource, "", "duplicate execution id")
		}
		seenExecutions[e.ID] = true

		goal := e.EffectiveGoal()
		if goal == "" {
			return errors.NewValidationError(resource, "goal", "goal is required for non-default executions")
		}
		if !goal.Known() {
			return errors.NewValidationError(resource, "goal", fmt.Sprintf("unknown goal %q", goal))
		}
		for _, r := range e.Roots {
			if r == "" {
				return errors.NewValidationError(resource, "roots", "root path cannot be empty")
			}
		}
	}

	return nil
}
