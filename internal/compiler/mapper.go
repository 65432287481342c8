package compiler

import (
	"log/slog"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/pkg/level"
)

// Result is the outcome of mapping a descriptor's compiler settings.
type Result struct {
	// Options is the complete option set for the project
	Options OptionSet

	// Target is the effective class file level
	Target level.Level

	// Warnings are recoverable problems, such as a level clamped to the toolchain range
	Warnings []error

	// Errors are problems the toolchain cannot satisfy, such as an unmet require_java
	Errors []error
}

// Mapper turns descriptor compiler settings into JDT options for a toolchain.
type Mapper struct {
	toolchain level.Range
	logger    *slog.Logger
}

// NewMapper creates a mapper for the given toolchain range.
func NewMapper(toolchain level.Range, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mapper{
		toolchain: toolchain,
		logger:    logger,
	}
}

// levels collects the declared levels after folding arguments.
type levels struct {
	source, target, compliance, release level.Level
}

// Map produces the option set for an effective descriptor.
//
// Precedence:
//  1. release pins source, target and compliance.
//  2. compliance governs whichever of source and target is not declared.
//  3. a lone source or target sets the others; both set compliance to the higher one.
//  4. nothing declared uses the toolchain minimum.
//
// Preview features force compliance to the toolchain maximum unless release
// is declared; a release keeps all three levels pinned.
func (m *Mapper) Map(d *descriptor.Descriptor) Result {
	var res Result
	c := d.CompilerSection()

	args, err := parseArgs(c.Args)
	if err != nil {
		res.Warnings = append(res.Warnings, err)
	}
	if len(args.ignored) > 0 {
		m.logger.Debug("ignoring compiler arguments", "project", d.Name(), "args", args.ignored)
	}

	// Explicit fields win over the same setting in args.
	var lv levels
	lv.release = m.parseLevel(&res, "release", firstSet(c.Release, args.release))
	lv.source = m.parseLevel(&res, "source", firstSet(c.Source, args.source))
	lv.target = m.parseLevel(&res, "target", firstSet(c.Target, args.target))
	lv.compliance = m.parseLevel(&res, "compliance", c.Compliance)

	opts := make(map[string]string)
	source, target, compliance := m.resolve(lv)

	opts[OptionSource] = source.String()
	opts[OptionTargetPlatform] = target.String()
	opts[OptionRelease] = Disabled
	if lv.release.IsSet() {
		opts[OptionRelease] = Enabled
	}

	preview := args.preview
	if c.EnablePreview != nil {
		preview = *c.EnablePreview
	}
	if preview {
		if !lv.release.IsSet() {
			compliance = m.toolchain.Max
		}
		opts[OptionEnablePreview] = Enabled
		opts[OptionReportPreview] = Ignore
	} else {
		opts[OptionEnablePreview] = Disabled
		opts[OptionReportPreview] = Warning
	}
	opts[OptionCompliance] = compliance.String()

	opts[OptionMethodParameters] = DoNotGenerate
	if args.parameters {
		opts[OptionMethodParameters] = Generate
	}

	lint := args.lint
	if c.ShowWarnings != nil && !*c.ShowWarnings {
		lint = append(lint, lintSetting{severity: Ignore})
	}
	for opt, severity := range applyLint(lint) {
		opts[opt] = severity
	}

	if d.Project.RequireJava != "" {
		if err := m.checkRequirement(d.Project.RequireJava); err != nil {
			res.Errors = append(res.Errors, err)
		}
	}

	res.Options = NewOptionSet(opts)
	res.Target = target
	return res
}

// resolve applies the level precedence rules.
func (m *Mapper) resolve(lv levels) (source, target, compliance level.Level) {
	switch {
	case lv.release.IsSet():
		return lv.release, lv.release, lv.release

	case lv.compliance.IsSet():
		source, target = lv.compliance, lv.compliance
		if lv.source.IsSet() {
			source = lv.source
		}
		if lv.target.IsSet() {
			target = lv.target
		}
		return source, target, lv.compliance

	case lv.source.IsSet() && lv.target.IsSet():
		return lv.source, lv.target, level.Max(lv.source, lv.target)

	case lv.source.IsSet():
		return lv.source, lv.source, lv.source

	case lv.target.IsSet():
		return lv.target, lv.target, lv.target
	}

	lowest := m.toolchain.Min
	return lowest, lowest, lowest
}

// parseLevel parses a declared level and clamps it to the toolchain range.
// Out-of-range and unparseable values are reported as warnings.
func (m *Mapper) parseLevel(res *Result, option, value string) level.Level {
	if value == "" {
		return 0
	}

	l, err := level.Parse(value)
	if err != nil {
		res.Warnings = append(res.Warnings, errors.NewLevelError(option, value, m.toolchain.String(), ""))
		return 0
	}

	if !m.toolchain.Contains(l) {
		clamped := m.toolchain.Clamp(l)
		res.Warnings = append(res.Warnings, errors.NewLevelError(option, value, m.toolchain.String(), clamped.String()))
		return clamped
	}
	return l
}

func (m *Mapper) checkRequirement(requirement string) error {
	constraint, err := level.ParseConstraint(requirement)
	if err != nil {
		return errors.NewLevelError("require_java", requirement, m.toolchain.String(), "")
	}
	if constraint.FindBest(m.toolchain.Levels()) == 0 {
		return errors.NewLevelError("require_java", requirement, m.toolchain.String(), "")
	}
	return nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
