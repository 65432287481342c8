package reconcile

import (
	"time"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/compiler"
	"github.com/launchcg/jsync/pkg/level"
)

// Snapshot is the configuration derived from one descriptor read. A
// snapshot is never modified after it is published.
type Snapshot struct {
	// Generation increases by one with every published snapshot
	Generation uint64

	// Digest identifies the content of the inheritance chain the snapshot was derived from
	Digest string

	// Options is the complete compiler option set
	Options compiler.OptionSet

	// Classpath is the ordered classpath
	Classpath []classpath.Entry

	// Target is the effective class file level
	Target level.Level

	// Time is when the snapshot was derived
	Time time.Time
}

// Equivalent reports whether both snapshots publish the same configuration.
func (s *Snapshot) Equivalent(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Options.Equal(other.Options) && classpath.Equal(s.Classpath, other.Classpath)
}

// State is the reconciliation state of a project.
type State int32

const (
	StateIdle State = iota
	StateChangeDetected
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChangeDetected:
		return "change-detected"
	case StateReconciling:
		return "reconciling"
	}
	return "unknown"
}

// Report describes a completed reconciliation pass.
type Report struct {
	// Project is the absolute project directory
	Project string

	// Generation is the generation of the active snapshot after the pass (0 if none)
	Generation uint64

	// Published reports whether the pass published a new snapshot
	Published bool

	// Markers are the problems found by the pass
	Markers []Marker

	// Duration is how long the pass took
	Duration time.Duration

	// Err is the error that aborted the pass, if any
	Err error
}
