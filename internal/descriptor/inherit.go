package descriptor

import "slices"

// Inherit returns the effective descriptor of child after applying parent.
//
// Fields the child leaves unset are taken from the parent. Executions are
// merged by id, with the child's settings winning field by field. Modules
// and the project name are never inherited. Layout paths stay relative to
// the child's directory.
func Inherit(parent, child *Descriptor) *Descriptor {
	if parent == nil {
		return child
	}

	out := &Descriptor{
		Project:   child.Project,
		Parent:    child.Parent,
		Variables: child.Variables,
		File:      child.File,
	}

	if out.Project.SkipTests == nil {
		out.Project.SkipTests = parent.Project.SkipTests
	}
	if out.Project.RequireJava == "" {
		out.Project.RequireJava = parent.Project.RequireJava
	}

	out.Compiler = inheritCompiler(parent.Compiler, child.Compiler)
	out.Build = inheritBuild(parent.Build, child.Build)
	out.Executions = inheritExecutions(parent.Executions, child.Executions)
	return out
}

func inheritCompiler(parent, child *CompilerBlock) *CompilerBlock {
	if parent == nil {
		return child
	}
	if child == nil {
		c := *parent
		c.Args = slices.Clone(parent.Args)
		return &c
	}

	c := *child
	c.Source = firstNonEmpty(child.Source, parent.Source)
	c.Target = firstNonEmpty(child.Target, parent.Target)
	c.Compliance = firstNonEmpty(child.Compliance, parent.Compliance)
	c.Release = firstNonEmpty(child.Release, parent.Release)
	if c.EnablePreview == nil {
		c.EnablePreview = parent.EnablePreview
	}
	if c.ShowWarnings == nil {
		c.ShowWarnings = parent.ShowWarnings
	}
	if c.Args == nil {
		c.Args = slices.Clone(parent.Args)
	}
	return &c
}

func inheritBuild(parent, child *BuildBlock) *BuildBlock {
	if parent == nil {
		return child
	}
	if child == nil {
		b := *parent
		return &b
	}

	b := *child
	b.SourceDirectory = firstNonEmpty(child.SourceDirectory, parent.SourceDirectory)
	b.TestSourceDirectory = firstNonEmpty(child.TestSourceDirectory, parent.TestSourceDirectory)
	b.OutputDirectory = firstNonEmpty(child.OutputDirectory, parent.OutputDirectory)
	b.TestOutputDirectory = firstNonEmpty(child.TestOutputDirectory, parent.TestOutputDirectory)
	if b.Resources == nil {
		b.Resources = parent.Resources
	}
	if b.TestResources == nil {
		b.TestResources = parent.TestResources
	}
	return &b
}

// inheritExecutions keeps the parent's order and appends executions only the
// child declares.
func inheritExecutions(parent, child []ExecutionBlock) []ExecutionBlock {
	if len(parent) == 0 {
		return child
	}

	byID := make(map[string]int, len(child))
	for i, e := range child {
		byID[e.ID] = i
	}

	out := make([]ExecutionBlock, 0, len(parent)+len(child))
	used := make(map[string]bool)
	for _, p := range parent {
		merged := p
		if i, ok := byID[p.ID]; ok {
			c := child[i]
			used[c.ID] = true
			if c.Goal != "" {
				merged.Goal = c.Goal
			}
			if c.Roots != nil {
				merged.Roots = c.Roots
			}
			if c.Skip != nil {
				merged.Skip = c.Skip
			}
		}
		out = append(out, merged)
	}
	for _, c := range child {
		if !used[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
