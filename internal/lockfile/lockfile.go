// Package lockfile pins the remote parent descriptors of a workspace.
//
// The lock file is stored at jsync.lock in the workspace root and records the
// integrity of every remote parent descriptor the workspace inherits from.
// A parent whose content changes upstream is then reported instead of
// silently altering the compiler configuration of every child project.
package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

const (
	// LockFileVersion is the current lock file format version
	LockFileVersion = "1.0"

	// LockFileName is the lock file name
	LockFileName = "jsync.lock"
)

// LockFile pins parent descriptor content for reproducible reconciliation.
// Stored at jsync.lock (JSON format)
type LockFile struct {
	// Version is the lock file format version
	Version string `json:"version"`

	// Parents maps parent source URLs to their locked content
	Parents map[string]*LockedParent `json:"parents"`

	// path is the path to the lock file (not serialized)
	path string
}

// LockedParent represents a locked parent descriptor.
type LockedParent struct {
	// Name is the descriptor file name inside the source
	Name string `json:"name"`

	// Revision is the resolved commit for git sources
	Revision string `json:"revision,omitempty"`

	// Integrity is the content hash in format "sha256-{base64}"
	Integrity string `json:"integrity"`
}

// Load loads a lock file from the workspace root.
// Returns an empty lock file if the file doesn't exist.
func Load(root string) (*LockFile, error) {
	lockPath := filepath.Join(root, LockFileName)

	l := &LockFile{
		Version: LockFileVersion,
		Parents: make(map[string]*LockedParent),
		path:    lockPath,
	}

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, l); err != nil {
		return nil, err
	}

	l.path = lockPath
	if l.Parents == nil {
		l.Parents = make(map[string]*LockedParent)
	}

	return l, nil
}

// Path returns the lock file location.
func (l *LockFile) Path() string {
	return l.path
}

// Save writes the lock file to disk.
func (l *LockFile) Save() error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(l.path, data, 0644)
}

// Get returns the locked entry for a source (nil if not locked).
func (l *LockFile) Get(source string) *LockedParent {
	return l.Parents[source]
}

// Set updates or adds a locked parent.
func (l *LockFile) Set(source string, locked *LockedParent) {
	if l.Parents == nil {
		l.Parents = make(map[string]*LockedParent)
	}
	l.Parents[source] = locked
}

// Remove removes a parent from the lock file.
func (l *LockFile) Remove(source string) {
	delete(l.Parents, source)
}

// Sources returns all locked source URLs (sorted).
func (l *LockFile) Sources() []string {
	sources := make([]string, 0, len(l.Parents))
	for source := range l.Parents {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// Prune removes every locked source not in used and returns the removed sources.
func (l *LockFile) Prune(used []string) []string {
	keep := make(map[string]bool, len(used))
	for _, s := range used {
		keep[s] = true
	}

	var removed []string
	for _, source := range l.Sources() {
		if !keep[source] {
			delete(l.Parents, source)
			removed = append(removed, source)
		}
	}
	return removed
}
