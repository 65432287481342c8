package hostmodel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/compiler"
	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/internal/manifest"
)

// EclipseName is the host name of the Eclipse workspace model.
const EclipseName = "eclipse"

// Files written by the Eclipse model, relative to the project directory.
const (
	EclipsePrefsFile     = ".settings/org.eclipse.jdt.core.prefs"
	EclipseClasspathFile = ".classpath"
)

func init() {
	Register(EclipseName, func(projectDir string) (Model, error) {
		return NewEclipse(projectDir)
	})
}

// Eclipse is a host model that writes JDT preferences and a .classpath file
// into the project directory. Settings not written by jsync are preserved.
type Eclipse struct {
	dir string

	mu      sync.RWMutex
	options compiler.OptionSet
	entries []classpath.Entry
}

// NewEclipse creates the model for projectDir and loads any configuration
// jsync previously wrote there.
func NewEclipse(projectDir string) (*Eclipse, error) {
	e := &Eclipse{dir: projectDir}

	m, err := manifest.Load(projectDir)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	prefs, err := readPrefs(e.path(EclipsePrefsFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", EclipsePrefsFile, err)
	}
	opts := make(map[string]string)
	for k, v := range prefs {
		if m.OwnsOption(k) {
			opts[k] = v
		}
	}
	e.options = compiler.NewOptionSet(opts)

	raw, err := readDotClasspath(e.path(EclipseClasspathFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", EclipseClasspathFile, err)
	}
	for _, x := range raw {
		if !m.OwnsClasspath(x.Path) {
			continue
		}
		if entry, ok := fromXMLEntry(x); ok {
			e.entries = append(e.entries, entry)
		}
	}

	return e, nil
}

// Name returns the model name.
func (e *Eclipse) Name() string {
	return EclipseName
}

// Dir returns the project directory.
func (e *Eclipse) Dir() string {
	return e.dir
}

// Apply writes the configuration to the preferences and .classpath files.
// Options and entries written by an earlier Apply but absent from cfg are removed.
// Both files are rendered before either is replaced; when a later step fails
// the files already replaced are restored.
func (e *Eclipse) Apply(ctx context.Context, cfg Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := manifest.Load(e.dir)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	prefs, err := loadPendingFile(e.path(EclipsePrefsFile))
	if err != nil {
		return fmt.Errorf("reading %s: %w", EclipsePrefsFile, err)
	}
	if prefs.data, err = renderPrefs(m, prefs.old, cfg.Options); err != nil {
		return fmt.Errorf("reading %s: %w", EclipsePrefsFile, err)
	}

	dotClasspath, err := loadPendingFile(e.path(EclipseClasspathFile))
	if err != nil {
		return fmt.Errorf("reading %s: %w", EclipseClasspathFile, err)
	}
	if dotClasspath.data, err = renderClasspath(m, dotClasspath.old, cfg.Classpath); err != nil {
		return fmt.Errorf("reading %s: %w", EclipseClasspathFile, err)
	}

	files := []*pendingFile{prefs, dotClasspath}
	if err := commitFiles(files); err != nil {
		return err
	}

	m.TrackOptions(cfg.Options.Keys())
	paths := make([]string, 0, len(cfg.Classpath))
	for _, entry := range cfg.Classpath {
		paths = append(paths, entry.Path)
	}
	m.TrackClasspath(paths)
	if err := m.Save(); err != nil {
		return errors.Join(fmt.Errorf("saving manifest: %w", err), restoreFiles(files))
	}

	e.options = cfg.Options
	e.entries = slices.Clone(cfg.Classpath)
	return nil
}

// pendingFile is a rendered file and the content it replaces.
type pendingFile struct {
	path    string
	data    []byte
	old     []byte
	existed bool
}

func loadPendingFile(path string) (*pendingFile, error) {
	old, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return &pendingFile{path: path, old: old, existed: err == nil}, nil
}

func (f *pendingFile) restore() error {
	if f.existed {
		return writeFileAtomic(f.path, f.old)
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// commitFiles replaces files in order. On failure the files already
// replaced are restored.
func commitFiles(files []*pendingFile) error {
	for i, f := range files {
		if err := writeFileAtomic(f.path, f.data); err != nil {
			err = fmt.Errorf("writing %s: %w", filepath.Base(f.path), err)
			return errors.Join(err, restoreFiles(files[:i]))
		}
	}
	return nil
}

func restoreFiles(files []*pendingFile) error {
	var errs []error
	for _, f := range files {
		if err := f.restore(); err != nil {
			errs = append(errs, fmt.Errorf("restoring %s: %w", filepath.Base(f.path), err))
		}
	}
	return errors.Join(errs...)
}

// renderPrefs merges opts into the existing preferences, dropping options
// jsync wrote earlier that opts no longer sets.
func renderPrefs(m *manifest.Manifest, existing []byte, opts compiler.OptionSet) ([]byte, error) {
	prefs, err := parsePrefs(bytes.NewReader(existing))
	if err != nil {
		return nil, err
	}

	for _, stale := range m.StaleOptions(opts.Keys()) {
		delete(prefs, stale)
	}
	for k, v := range opts.Map() {
		prefs[k] = v
	}
	return formatPrefs(prefs), nil
}

// renderClasspath places managed entries first, followed by entries jsync
// does not own. The output entry comes last and follows the first main
// source entry.
func renderClasspath(m *manifest.Manifest, existingData []byte, entries []classpath.Entry) ([]byte, error) {
	var existing []xmlEntry
	if len(existingData) > 0 {
		var err error
		if existing, err = parseDotClasspath(existingData); err != nil {
			return nil, err
		}
	}

	managed := make(map[string]bool, len(entries))
	out := make([]xmlEntry, 0, len(entries)+len(existing)+1)
	output := ""
	for _, entry := range entries {
		managed[entry.Path] = true
		out = append(out, toXMLEntry(entry))
		if output == "" && entry.Kind == classpath.KindSource && !entry.Test {
			output = entry.Output
		}
	}

	for _, x := range existing {
		if x.Kind == "output" {
			if output == "" {
				output = x.Path
			}
			continue
		}
		if managed[x.Path] || m.OwnsClasspath(x.Path) {
			continue
		}
		out = append(out, x)
	}

	if output != "" {
		out = append(out, xmlEntry{Kind: "output", Path: output})
	}
	return formatDotClasspath(out)
}

// CompilerOption returns the current value of a compiler option.
func (e *Eclipse) CompilerOption(name string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.options.Value(name)
}

// ClasspathEntries returns a copy of the managed classpath.
func (e *Eclipse) ClasspathEntries() []classpath.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Clone(e.entries)
}

func (e *Eclipse) path(rel string) string {
	return filepath.Join(e.dir, filepath.FromSlash(rel))
}
