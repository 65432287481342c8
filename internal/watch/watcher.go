// Package watch reports changes to descriptor files on disk.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/launchcg/jsync/internal/descriptor"
)

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // Descriptor written
	ChangeAdded                      // Descriptor created or renamed into place
	ChangeRemoved                    // Descriptor deleted or renamed away
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeModified:
		return "modified"
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change represents a detected change to a watched descriptor.
type Change struct {
	Kind ChangeKind
	File string // Absolute path
}

// Watcher monitors project directories and individual descriptor files
// using fsnotify. Events are not debounced; consumers coalesce them.
type Watcher struct {
	Changes <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	stop    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	once    sync.Once

	mu       sync.Mutex
	dirRefs  map[string]int // fsnotify watches, reference counted
	projects map[string]int // directories whose descriptor files are watched
	files    map[string]int // individually watched files
}

// New creates a watcher. Call Start to begin delivering changes.
func New(logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ch := make(chan Change, 64)
	return &Watcher{
		Changes:  ch,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
		logger:   logger,
		dirRefs:  make(map[string]int),
		projects: make(map[string]int),
		files:    make(map[string]int),
	}, nil
}

// Start begins delivering changes on Changes.
func (w *Watcher) Start() {
	w.once.Do(func() { go w.loop() })
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
	w.once.Do(func() { close(w.done) })
	<-w.done
	close(w.changes)
}

// WatchProject reports changes to build.hcl and build.toml in dir.
func (w *Watcher) WatchProject(dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.addDir(dir); err != nil {
		return err
	}
	w.projects[dir]++
	return nil
}

// UnwatchProject undoes one WatchProject call for dir.
func (w *Watcher) UnwatchProject(dir string) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.projects[dir] == 0 {
		return
	}
	decrement(w.projects, dir)
	w.removeDir(dir)
}

// WatchFile reports changes to a single file, such as a parent descriptor
// with a non-standard name.
func (w *Watcher) WatchFile(file string) error {
	file, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.addDir(filepath.Dir(file)); err != nil {
		return err
	}
	w.files[file]++
	return nil
}

// UnwatchFile undoes one WatchFile call for file.
func (w *Watcher) UnwatchFile(file string) {
	file, err := filepath.Abs(file)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[file] == 0 {
		return
	}
	decrement(w.files, file)
	w.removeDir(filepath.Dir(file))
}

func (w *Watcher) addDir(dir string) error {
	if w.dirRefs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.dirRefs[dir]++
	return nil
}

func (w *Watcher) removeDir(dir string) {
	decrement(w.dirRefs, dir)
	if w.dirRefs[dir] == 0 {
		if err := w.watcher.Remove(dir); err != nil {
			w.logger.Debug("failed to remove watch", "dir", dir, "error", err)
		}
	}
}

func decrement(m map[string]int, key string) {
	if m[key] <= 1 {
		delete(m, key)
		return
	}
	m[key]--
}

// matches reports whether name is a watched descriptor.
func (w *Watcher) matches(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[name] > 0 {
		return true
	}
	return w.projects[filepath.Dir(name)] > 0 && descriptor.IsDescriptorFile(filepath.Base(name))
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}

			var kind ChangeKind
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				kind = ChangeRemoved
			case event.Has(fsnotify.Create):
				kind = ChangeAdded
			case event.Has(fsnotify.Write):
				kind = ChangeModified
			default:
				continue
			}

			w.logger.Debug("descriptor changed", "file", event.Name, "kind", kind)
			select {
			case w.changes <- Change{Kind: kind, File: event.Name}:
			case <-w.stop:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors (such as event queue overflow) are not fatal.
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
