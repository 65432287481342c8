package level

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// constraintRegex matches a single constraint operator and level.
// Note: >= and <= must come before > and < in the alternation to match correctly.
var constraintRegex = regexp.MustCompile(`^(>=|<=|[=><])?\s*(.+)$`)

// Constraint is a set of level checks that must all hold, written as a
// comma-separated list such as ">=11" or ">=11, <21".
type Constraint struct {
	Original string  // Original constraint string for display
	checks   []check // Internal checks to evaluate
}

// check represents a single level check within a constraint.
type check struct {
	op    string // Operator: "=", ">", "<", ">=", "<="
	level Level
}

// ParseConstraint parses a level constraint string.
//
// Supported formats:
//   - "11"        - Exact level
//   - "=11"       - Explicit exact level
//   - ">=11"      - At least 11
//   - ">1.8"      - Newer than 1.8
//   - "<=17"      - At most 17
//   - "<21"       - Older than 21
//   - ">=11, <21" - All checks must hold
func ParseConstraint(s string) (*Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("constraint string cannot be empty")
	}

	c := &Constraint{Original: s}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		matches := constraintRegex.FindStringSubmatch(part)
		if matches == nil {
			return nil, fmt.Errorf("invalid constraint format: %q", s)
		}

		op := matches[1]
		if op == "" {
			op = "="
		}

		l, err := Parse(matches[2])
		if err != nil {
			return nil, fmt.Errorf("invalid level in constraint %q: %w", s, err)
		}
		c.checks = append(c.checks, check{op: op, level: l})
	}

	return c, nil
}

// Match returns true if the level satisfies every check of the constraint.
func (c *Constraint) Match(l Level) bool {
	if !l.IsSet() {
		return false
	}
	for _, chk := range c.checks {
		if !chk.match(l) {
			return false
		}
	}
	return true
}

func (chk check) match(l Level) bool {
	switch chk.op {
	case "=":
		return l == chk.level
	case ">":
		return l > chk.level
	case "<":
		return l < chk.level
	case ">=":
		return l >= chk.level
	case "<=":
		return l <= chk.level
	default:
		return false
	}
}

// String returns the original constraint string.
func (c *Constraint) String() string {
	return c.Original
}

// FindBest returns the highest level in levels that satisfies the constraint,
// or 0 when none does. levels is not modified.
func (c *Constraint) FindBest(levels []Level) Level {
	sorted := slices.Clone(levels)
	SortDesc(sorted)
	for _, l := range sorted {
		if c.Match(l) {
			return l
		}
	}
	return 0
}
