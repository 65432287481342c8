// Package manifest tracks the host project settings written by jsync.
//
// The manifest lives at .settings/jsync.json and records which compiler
// option keys and classpath paths jsync owns, so a later pass can remove
// the ones it no longer produces without touching user-managed settings.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
)

const (
	// ManifestVersion is the current manifest format version
	ManifestVersion = "1.0"

	// ManifestFile is the manifest path relative to the project directory
	ManifestFile = ".settings/jsync.json"
)

// Manifest tracks every setting managed by jsync in one project.
type Manifest struct {
	// Version is the manifest format version
	Version string `json:"version"`

	// Options are the compiler option keys written to the preferences file
	Options []string `json:"options,omitempty"`

	// Classpath are the classpath entry paths written to .classpath
	Classpath []string `json:"classpath,omitempty"`

	// path is the file path for saving
	path string
}

// Load loads a manifest from the project directory.
// Returns an empty manifest if the file doesn't exist.
func Load(projectDir string) (*Manifest, error) {
	manifestPath := filepath.Join(projectDir, filepath.FromSlash(ManifestFile))

	m := &Manifest{
		Version: ManifestVersion,
		path:    manifestPath,
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}

	m.path = manifestPath
	return m, nil
}

// Path returns the file the manifest is saved to.
func (m *Manifest) Path() string {
	return m.path
}

// Save writes the manifest to disk.
func (m *Manifest) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	return os.WriteFile(m.path, data, 0644)
}

// TrackOptions replaces the tracked option keys.
func (m *Manifest) TrackOptions(keys []string) {
	m.Options = uniqueSorted(keys)
}

// TrackClasspath replaces the tracked classpath paths.
func (m *Manifest) TrackClasspath(paths []string) {
	m.Classpath = uniqueSorted(paths)
}

// StaleOptions returns tracked option keys missing from current.
func (m *Manifest) StaleOptions(current []string) []string {
	return missing(m.Options, current)
}

// OwnsOption reports whether key was written by jsync.
func (m *Manifest) OwnsOption(key string) bool {
	_, found := slices.BinarySearch(m.Options, key)
	return found
}

// OwnsClasspath reports whether the classpath path was written by jsync.
func (m *Manifest) OwnsClasspath(path string) bool {
	_, found := slices.BinarySearch(m.Classpath, path)
	return found
}

// missing returns the elements of tracked that are not in current.
func missing(tracked, current []string) []string {
	keep := make(map[string]bool, len(current))
	for _, c := range current {
		keep[c] = true
	}

	var out []string
	for _, t := range tracked {
		if !keep[t] {
			out = append(out, t)
		}
	}
	return out
}

// uniqueSorted returns a sorted copy of s with duplicates removed.
func uniqueSorted(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}
