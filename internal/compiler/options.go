// Package compiler maps descriptor compiler settings onto JDT compiler
// options for a given toolchain.
package compiler

import (
	"maps"
	"slices"
)

// JDT compiler option keys.
const (
	OptionSource              = "org.eclipse.jdt.core.compiler.source"
	OptionTargetPlatform      = "org.eclipse.jdt.core.compiler.codegen.targetPlatform"
	OptionCompliance          = "org.eclipse.jdt.core.compiler.compliance"
	OptionRelease             = "org.eclipse.jdt.core.compiler.release"
	OptionEnablePreview       = "org.eclipse.jdt.core.compiler.problem.enablePreviewFeatures"
	OptionReportPreview       = "org.eclipse.jdt.core.compiler.problem.reportPreviewFeatures"
	OptionMethodParameters    = "org.eclipse.jdt.core.compiler.codegen.methodParameters"
	OptionUncheckedOperation  = "org.eclipse.jdt.core.compiler.problem.uncheckedTypeOperation"
	OptionRawTypeReference    = "org.eclipse.jdt.core.compiler.problem.rawTypeReference"
	OptionDeprecation         = "org.eclipse.jdt.core.compiler.problem.deprecation"
	OptionMissingSerialVer    = "org.eclipse.jdt.core.compiler.problem.missingSerialVersion"
	OptionUnnecessaryCast     = "org.eclipse.jdt.core.compiler.problem.unnecessaryTypeCheck"
	OptionFallthroughCase     = "org.eclipse.jdt.core.compiler.problem.fallthroughCase"
	OptionFinallyBlock        = "org.eclipse.jdt.core.compiler.problem.finallyBlockNotCompletingNormally"
	OptionIndirectStatic      = "org.eclipse.jdt.core.compiler.problem.indirectStaticAccess"
	OptionMissingDeprecated   = "org.eclipse.jdt.core.compiler.problem.missingDeprecatedAnnotation"
	OptionEmptyStatement      = "org.eclipse.jdt.core.compiler.problem.emptyStatement"
	OptionVarargsNeedCast     = "org.eclipse.jdt.core.compiler.problem.varargsArgumentNeedCast"
	OptionMissingOverrideAnno = "org.eclipse.jdt.core.compiler.problem.missingOverrideAnnotation"
)

// JDT option values.
const (
	Enabled       = "enabled"
	Disabled      = "disabled"
	Ignore        = "ignore"
	Warning       = "warning"
	Generate      = "generate"
	DoNotGenerate = "do not generate"
)

// lintCategories maps -Xlint category names to the JDT problem options they control.
var lintCategories = map[string]string{
	"unchecked":   OptionUncheckedOperation,
	"rawtypes":    OptionRawTypeReference,
	"deprecation": OptionDeprecation,
	"serial":      OptionMissingSerialVer,
	"cast":        OptionUnnecessaryCast,
	"fallthrough": OptionFallthroughCase,
	"finally":     OptionFinallyBlock,
	"static":      OptionIndirectStatic,
	"dep-ann":     OptionMissingDeprecated,
	"empty":       OptionEmptyStatement,
	"varargs":     OptionVarargsNeedCast,
	"overrides":   OptionMissingOverrideAnno,
}

// WarningOptions returns every JDT problem option controlled by -Xlint categories, sorted.
func WarningOptions() []string {
	return slices.Sorted(maps.Values(lintCategories))
}

// OptionSet is an immutable set of compiler options keyed by JDT option name.
// The zero value is an empty set.
type OptionSet struct {
	m map[string]string
}

// NewOptionSet copies m into a new option set.
func NewOptionSet(m map[string]string) OptionSet {
	return OptionSet{m: maps.Clone(m)}
}

// Get returns the value of an option and whether it is present.
func (s OptionSet) Get(name string) (string, bool) {
	v, ok := s.m[name]
	return v, ok
}

// Value returns the value of an option, or "" when absent.
func (s OptionSet) Value(name string) string {
	return s.m[name]
}

// Len returns the number of options in the set.
func (s OptionSet) Len() int {
	return len(s.m)
}

// Keys returns the option names in sorted order.
func (s OptionSet) Keys() []string {
	return slices.Sorted(maps.Keys(s.m))
}

// Map returns a copy of the options as a plain map.
func (s OptionSet) Map() map[string]string {
	if s.m == nil {
		return map[string]string{}
	}
	return maps.Clone(s.m)
}

// Equal reports whether both sets hold the same options.
func (s OptionSet) Equal(other OptionSet) bool {
	return maps.Equal(s.m, other.m)
}
