package compiler

import (
	"fmt"
	"strings"
)

// lintSetting records one -Xlint directive in argument order.
// An empty category means every category.
type lintSetting struct {
	category string
	severity string
}

// argSettings holds what a javac-style argument list asks for.
type argSettings struct {
	source     string
	target     string
	release    string
	preview    bool
	parameters bool
	lint       []lintSetting
	ignored    []string
}

// parseArgs folds javac-style arguments into settings.
//
// Recognized forms:
//   - "--release N", "--release=N", "-release N"
//   - "-source N", "--source N", "-target N", "--target N"
//   - "--enable-preview"
//   - "-parameters"
//   - "-nowarn", "-Xlint", "-Xlint:all", "-Xlint:none"
//   - "-Xlint:cat,-cat"
//
// Unrecognized arguments are collected in ignored.
func parseArgs(args []string) (argSettings, error) {
	var s argSettings

	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])

		if name, value, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(name, "--") {
			if dst := s.levelField(name); dst != nil {
				*dst = value
				continue
			}
		}

		if dst := s.levelField(arg); dst != nil {
			if i+1 >= len(args) {
				return s, fmt.Errorf("compiler argument %s requires a value", arg)
			}
			i++
			*dst = strings.TrimSpace(args[i])
			continue
		}

		switch {
		case arg == "--enable-preview":
			s.preview = true
		case arg == "-parameters":
			s.parameters = true
		case arg == "-nowarn":
			s.lint = append(s.lint, lintSetting{severity: Ignore})
		case arg == "-Xlint" || arg == "-Xlint:all":
			s.lint = append(s.lint, lintSetting{severity: Warning})
		case arg == "-Xlint:none":
			s.lint = append(s.lint, lintSetting{severity: Ignore})
		case strings.HasPrefix(arg, "-Xlint:"):
			for _, cat := range strings.Split(strings.TrimPrefix(arg, "-Xlint:"), ",") {
				cat = strings.TrimSpace(cat)
				switch {
				case cat == "":
				case cat == "all":
					s.lint = append(s.lint, lintSetting{severity: Warning})
				case cat == "none":
					s.lint = append(s.lint, lintSetting{severity: Ignore})
				case strings.HasPrefix(cat, "-"):
					s.lint = append(s.lint, lintSetting{category: cat[1:], severity: Ignore})
				default:
					s.lint = append(s.lint, lintSetting{category: cat, severity: Warning})
				}
			}
		default:
			s.ignored = append(s.ignored, arg)
		}
	}

	return s, nil
}

func (s *argSettings) levelField(flag string) *string {
	switch flag {
	case "--release", "-release":
		return &s.release
	case "-source", "--source":
		return &s.source
	case "-target", "--target":
		return &s.target
	}
	return nil
}

// applyLint resolves lint directives into JDT problem option severities.
// Only options touched by a directive are returned.
func applyLint(lint []lintSetting) map[string]string {
	out := make(map[string]string)
	for _, l := range lint {
		if l.category == "" {
			for _, opt := range lintCategories {
				out[opt] = l.severity
			}
			continue
		}
		if opt, ok := lintCategories[l.category]; ok {
			out[opt] = l.severity
		}
	}
	return out
}
