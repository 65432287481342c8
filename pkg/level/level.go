// Package level provides Java language level utilities for parsing,
// comparing, and constraining compiler source, target, and release levels.
package level

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// levelRegex matches Java language levels in either the legacy "1.x" form
// or the feature-release form.
// Examples: "1.8", "8", "11", "21"
var levelRegex = regexp.MustCompile(`^(1\.)?(\d+)$`)

// Level is a Java language level identified by its feature release number.
// Legacy levels use the minor component of their "1.x" name, so "1.8" and "8"
// are the same Level.
//
// The zero value means "not set".
type Level int

const (
	// Java5 is the oldest level accepted in the bare feature-release form.
	Java5 Level = 5
	// Java8 is the last level whose canonical name uses the "1.x" form.
	Java8 Level = 8
	// Java11 is the Java 11 language level.
	Java11 Level = 11
	// Java17 is the Java 17 language level.
	Java17 Level = 17
	// Java21 is the Java 21 language level.
	Java21 Level = 21
	// Java25 is the Java 25 language level.
	Java25 Level = 25
)

// Parse parses a Java language level string.
//
// Supported formats:
//   - "1.1" .. "1.8" - Legacy form
//   - "5" .. "8"     - Feature form of legacy levels
//   - "9", "11", ... - Feature form
//
// Surrounding whitespace is ignored. Returns an error if the string is not a
// recognizable level.
func Parse(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("level string cannot be empty")
	}

	matches := levelRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid level format: %q", s)
	}

	n, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, fmt.Errorf("invalid level number: %s", matches[2])
	}

	if matches[1] != "" {
		// "1.x" is only meaningful up to 1.8
		if n < 1 || n > int(Java8) {
			return 0, fmt.Errorf("invalid legacy level: %q", s)
		}
		return Level(n), nil
	}

	if n < int(Java5) {
		return 0, fmt.Errorf("level %q is older than Java 5 and must use the 1.x form", s)
	}
	return Level(n), nil
}

// MustParse is like Parse but panics if the level string is invalid.
// Use it for package-level values and tests.
func MustParse(s string) Level {
	l, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("level.MustParse(%q): %v", s, err))
	}
	return l
}

// String returns the canonical name of the level: "1.x" up to Java 8 and
// the bare feature number afterwards. The zero Level renders as "".
func (l Level) String() string {
	if l <= 0 {
		return ""
	}
	if l <= Java8 {
		return "1." + strconv.Itoa(int(l))
	}
	return strconv.Itoa(int(l))
}

// IsSet reports whether the level has been assigned.
func (l Level) IsSet() bool {
	return l > 0
}

// Compare returns -1, 0 or 1 depending on whether l is lower than, equal to,
// or higher than other.
func (l Level) Compare(other Level) int {
	switch {
	case l < other:
		return -1
	case l > other:
		return 1
	default:
		return 0
	}
}

// ExecutionEnvironment returns the execution environment name used to select
// a JRE for the level, e.g. "JavaSE-1.8" or "JavaSE-17".
func (l Level) ExecutionEnvironment() string {
	if !l.IsSet() {
		return ""
	}
	return "JavaSE-" + l.String()
}

// Max returns the highest of the given levels, or 0 when none is set.
func Max(levels ...Level) Level {
	var best Level
	for _, l := range levels {
		if l > best {
			best = l
		}
	}
	return best
}
