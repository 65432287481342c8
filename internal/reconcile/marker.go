package reconcile

import (
	"fmt"

	"github.com/launchcg/jsync/internal/errors"
)

// Severity classifies a marker.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// MarkerCode identifies the problem a marker reports.
type MarkerCode string

const (
	CodeMalformedDescriptor MarkerCode = "malformed-descriptor"
	CodeUnsupportedLevel    MarkerCode = "unsupported-level"
	CodeIO                  MarkerCode = "io"
	CodeParent              MarkerCode = "parent"
)

// Marker is a problem found while reconciling a project. The markers of a
// project are replaced on every pass.
type Marker struct {
	Severity Severity   `json:"severity"`
	Code     MarkerCode `json:"code"`
	Message  string     `json:"message"`
	File     string     `json:"file,omitempty"`
	Line     int        `json:"line,omitempty"`
}

func (m Marker) String() string {
	loc := m.File
	if m.Line > 0 {
		loc = fmt.Sprintf("%s:%d", m.File, m.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s [%s] %s", m.Severity, m.Code, m.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", m.Severity, m.Code, loc, m.Message)
}

// markerFor converts a pass error into a marker.
func markerFor(err error, file string) Marker {
	if at, line, ok := errors.Location(err); ok {
		if at == "" {
			at = file
		}
		return Marker{Severity: SeverityError, Code: CodeMalformedDescriptor, Message: err.Error(), File: at, Line: line}
	}

	var repoErr *errors.RepositoryError
	if errors.As(err, &repoErr) {
		return Marker{Severity: SeverityError, Code: CodeParent, Message: err.Error(), File: file}
	}

	if errors.Is(err, errors.ErrUnsupportedLevel) {
		return Marker{Severity: SeverityWarning, Code: CodeUnsupportedLevel, Message: err.Error(), File: file}
	}

	return Marker{Severity: SeverityError, Code: CodeIO, Message: err.Error(), File: file}
}

// HasErrors reports whether any marker has error severity.
func HasErrors(markers []Marker) bool {
	for _, m := range markers {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of markers with the given severity.
func Count(markers []Marker, s Severity) int {
	n := 0
	for _, m := range markers {
		if m.Severity == s {
			n++
		}
	}
	return n
}
