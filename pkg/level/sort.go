package level

import "sort"

// SortDesc sorts levels in descending order (newest first), in place.
func SortDesc(levels []Level) {
	sort.Slice(levels, func(i, j int) bool { return levels[i] > levels[j] })
}

// Range is the closed interval of levels a toolchain can compile.
type Range struct {
	Min Level
	Max Level
}

// Contains reports whether l lies within the range.
func (r Range) Contains(l Level) bool {
	return l >= r.Min && l <= r.Max
}

// Clamp returns l limited to the range bounds.
func (r Range) Clamp(l Level) Level {
	if l < r.Min {
		return r.Min
	}
	if l > r.Max {
		return r.Max
	}
	return l
}

// Levels returns every level in the range, ascending.
func (r Range) Levels() []Level {
	if r.Max < r.Min {
		return nil
	}
	out := make([]Level, 0, int(r.Max-r.Min)+1)
	for l := r.Min; l <= r.Max; l++ {
		out = append(out, l)
	}
	return out
}

// String returns the range as "min..max" (e.g., "1.8..21").
func (r Range) String() string {
	return r.Min.String() + ".." + r.Max.String()
}
