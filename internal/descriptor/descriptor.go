package descriptor

import (
	"os"
	"path/filepath"
)

// Descriptor file names, in lookup order.
const (
	HCLFileName  = "build.hcl"
	TOMLFileName = "build.toml"
)

// Standard layout used when the descriptor does not override it.
const (
	DefaultSourceDirectory     = "src/main/java"
	DefaultTestSourceDirectory = "src/test/java"
	DefaultResourceDirectory   = "src/main/resources"
	DefaultTestResourceDir     = "src/test/resources"
	DefaultOutputDirectory     = "target/classes"
	DefaultTestOutputDirectory = "target/test-classes"
)

// Descriptor represents a build.hcl (or build.toml) file.
// This is the source of truth for a project's compiler settings and layout.
type Descriptor struct {
	// Project contains project metadata and project-wide switches
	Project ProjectBlock `hcl:"project,block" toml:"project"`

	// Parent optionally names a descriptor this one inherits from
	Parent *ParentBlock `hcl:"parent,block" toml:"parent"`

	// Compiler configures language levels, preview features and warnings
	Compiler *CompilerBlock `hcl:"compiler,block" toml:"compiler"`

	// Build overrides the standard source and resource layout
	Build *BuildBlock `hcl:"build,block" toml:"build"`

	// Executions configures individual units of build work
	Executions []ExecutionBlock `hcl:"execution,block" toml:"execution"`

	// Variables holds the variable blocks found in an HCL descriptor.
	// Populated by the parser, not decoded directly.
	Variables []VariableBlock `toml:"-"`

	// File is the path the descriptor was parsed from.
	File string `toml:"-"`
}

// ProjectBlock contains project metadata defined in the project {} block.
type ProjectBlock struct {
	// Name is the project name (defaults to the directory name)
	Name string `hcl:"name,optional" toml:"name"`

	// SkipTests removes every test source and test resource root when true
	SkipTests *bool `hcl:"skip_tests,optional" toml:"skip_tests"`

	// Modules lists sub-project directories, relative to this descriptor
	Modules []string `hcl:"modules,optional" toml:"modules"`

	// RequireJava is a level constraint the toolchain must satisfy (e.g., ">=11")
	RequireJava string `hcl:"require_java,optional" toml:"require_java"`
}

// ParentBlock references an inherited descriptor.
// Exactly one of Path or Source must be set.
type ParentBlock struct {
	// Path is a filesystem path relative to this descriptor's directory
	Path string `hcl:"path,optional" toml:"path"`

	// Source is a repository URL (file:, git+https://, https://, s3://, az://)
	Source string `hcl:"source,optional" toml:"source"`
}

// CompilerBlock configures the Java compiler.
//
// Syntax in build.hcl:
//
//	compiler {
//	  release        = "11"
//	  enable_preview = true
//	  args           = ["-Xlint:-unchecked"]
//	}
type CompilerBlock struct {
	// Source is the language level of the sources (e.g., "1.8", "11")
	Source string `hcl:"source,optional" toml:"source"`

	// Target is the class file level to generate
	Target string `hcl:"target,optional" toml:"target"`

	// Compliance is the rule set the compiler enforces
	Compliance string `hcl:"compliance,optional" toml:"compliance"`

	// Release pins source, target and compliance at once
	Release string `hcl:"release,optional" toml:"release"`

	// EnablePreview turns on preview language features
	EnablePreview *bool `hcl:"enable_preview,optional" toml:"enable_preview"`

	// ShowWarnings set to false silences every warning category
	ShowWarnings *bool `hcl:"show_warnings,optional" toml:"show_warnings"`

	// Args are extra javac-style compiler arguments
	Args []string `hcl:"args,optional" toml:"args"`
}

// BuildBlock overrides the standard directory layout.
type BuildBlock struct {
	SourceDirectory     string   `hcl:"source_directory,optional" toml:"source_directory"`
	TestSourceDirectory string   `hcl:"test_source_directory,optional" toml:"test_source_directory"`
	Resources           []string `hcl:"resources,optional" toml:"resources"`
	TestResources       []string `hcl:"test_resources,optional" toml:"test_resources"`
	OutputDirectory     string   `hcl:"output_directory,optional" toml:"output_directory"`
	TestOutputDirectory string   `hcl:"test_output_directory,optional" toml:"test_output_directory"`
}

// ExecutionBlock configures one unit of build work.
//
// Syntax in build.hcl:
//
//	execution "default-testCompile" {
//	  skip = true
//	}
//
//	execution "generated-sources" {
//	  goal  = "add-source"
//	  roots = ["target/generated-sources/apt"]
//	}
type ExecutionBlock struct {
	// ID is the unique execution identifier (from label)
	ID string `hcl:"id,label" toml:"id"`

	// Goal is what the execution does; inferred for default-* ids
	Goal Goal `hcl:"goal,optional" toml:"goal"`

	// Roots overrides the directories the execution contributes
	Roots []string `hcl:"roots,optional" toml:"roots"`

	// Skip disables the execution's contribution
	Skip *bool `hcl:"skip,optional" toml:"skip"`
}

// VariableBlock defines a descriptor variable usable as var.NAME.
type VariableBlock struct {
	// Name is the variable identifier (from label)
	Name string `hcl:"name,label"`

	// Description explains what this variable controls
	Description string `hcl:"description,optional"`

	// Default is the value when the environment does not provide one
	Default string `hcl:"default,optional"`

	// Required fails parsing when no value can be resolved
	Required bool `hcl:"required,optional"`

	// Env names an environment variable to read the value from
	Env string `hcl:"env,optional"`
}

// Layout is the effective directory layout of a project.
type Layout struct {
	SourceDirectory     string
	TestSourceDirectory string
	Resources           []string
	TestResources       []string
	OutputDirectory     string
	TestOutputDirectory string
}

// Dir returns the directory containing the descriptor.
func (d *Descriptor) Dir() string {
	return filepath.Dir(d.File)
}

// Name returns the project name, defaulting to the descriptor's directory name.
func (d *Descriptor) Name() string {
	if d.Project.Name != "" {
		return d.Project.Name
	}
	return filepath.Base(d.Dir())
}

// SkipTests reports whether every test root is skipped.
func (d *Descriptor) SkipTests() bool {
	return d.Project.SkipTests != nil && *d.Project.SkipTests
}

// CompilerSection returns the compiler block, or an empty block when absent.
func (d *Descriptor) CompilerSection() CompilerBlock {
	if d.Compiler == nil {
		return CompilerBlock{}
	}
	return *d.Compiler
}

// Layout returns the effective layout with standard defaults applied.
func (d *Descriptor) Layout() Layout {
	l := Layout{
		SourceDirectory:     DefaultSourceDirectory,
		TestSourceDirectory: DefaultTestSourceDirectory,
		Resources:           []string{DefaultResourceDirectory},
		TestResources:       []string{DefaultTestResourceDir},
		OutputDirectory:     DefaultOutputDirectory,
		TestOutputDirectory: DefaultTestOutputDirectory,
	}
	if d.Build == nil {
		return l
	}

	b := d.Build
	if b.SourceDirectory != "" {
		l.SourceDirectory = b.SourceDirectory
	}
	if b.TestSourceDirectory != "" {
		l.TestSourceDirectory = b.TestSourceDirectory
	}
	if b.Resources != nil {
		l.Resources = b.Resources
	}
	if b.TestResources != nil {
		l.TestResources = b.TestResources
	}
	if b.OutputDirectory != "" {
		l.OutputDirectory = b.OutputDirectory
	}
	if b.TestOutputDirectory != "" {
		l.TestOutputDirectory = b.TestOutputDirectory
	}
	return l
}

// Skipped reports whether the execution is skipped.
func (e ExecutionBlock) Skipped() bool {
	return e.Skip != nil && *e.Skip
}

// EffectiveGoal returns the declared goal, or the goal implied by a default-* id.
func (e ExecutionBlock) EffectiveGoal() Goal {
	if e.Goal != "" {
		return e.Goal
	}
	return DefaultGoalFor(e.ID)
}

// Find returns the descriptor path inside dir, preferring build.hcl over build.toml.
func Find(dir string) (string, bool) {
	for _, name := range []string{HCLFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return filepath.Join(dir, HCLFileName), false
}

// IsDescriptorFile reports whether name is a descriptor file name.
func IsDescriptorFile(name string) bool {
	base := filepath.Base(name)
	return base == HCLFileName || base == TOMLFileName
}

// Bool returns a pointer to b. Handy for building descriptors in code.
func Bool(b bool) *bool {
	return &b
}
