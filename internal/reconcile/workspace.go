package reconcile

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/internal/hostmodel"
	"github.com/launchcg/jsync/internal/repository"
	"github.com/launchcg/jsync/internal/resolver"
	"github.com/launchcg/jsync/internal/watch"
	"github.com/launchcg/jsync/pkg/level"
)

// WorkspaceOptions configures a workspace.
type WorkspaceOptions struct {
	// Toolchain is the supported level range
	Toolchain level.Range

	// Host is the registered host model name (memory when empty)
	Host string

	// NewHost creates host models; overrides Host when set
	NewHost hostmodel.Factory

	// Rebuilder is invoked after every publish (optional)
	Rebuilder hostmodel.Rebuilder

	// Fetcher fetches remote parent descriptors (a cache under the first
	// imported directory is used when nil)
	Fetcher *repository.Fetcher

	// Debounce and RetryDelay are passed to every project
	Debounce   time.Duration
	RetryDelay time.Duration

	// Watch starts a file watcher that triggers reconciliation on disk edits
	Watch bool

	// Logger receives progress and problems
	Logger *slog.Logger

	// Report is called after every pass of every project (optional)
	Report func(Report)
}

// Workspace manages the projects imported into one session. A failure in
// one project never affects another.
type Workspace struct {
	opts     WorkspaceOptions
	logger   *slog.Logger
	newHost  hostmodel.Factory
	resolver *resolver.Resolver
	watcher  *watch.Watcher
	routed   chan struct{}

	mu       sync.Mutex
	projects map[string]*Project
	watched  map[string][]string // project dir -> parent files watched individually
	closed   bool
}

// NewWorkspace creates a workspace. With opts.Watch set, descriptor edits
// on disk are routed to the affected projects until Close.
func NewWorkspace(opts WorkspaceOptions) (*Workspace, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	newHost := opts.NewHost
	if newHost == nil {
		name := opts.Host
		if name == "" {
			name = hostmodel.MemoryName
		}
		f, err := hostmodel.Get(name)
		if err != nil {
			return nil, err
		}
		newHost = f
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		cache, err := repository.DefaultCache()
		if err != nil {
			return nil, err
		}
		fetcher = repository.NewFetcher(cache, opts.Logger)
	}

	w := &Workspace{
		opts:     opts,
		logger:   opts.Logger,
		newHost:  newHost,
		resolver: resolver.New(fetcher, opts.Logger),
		projects: make(map[string]*Project),
		watched:  make(map[string][]string),
	}

	if opts.Watch {
		fw, err := watch.New(opts.Logger)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create watcher")
		}
		w.watcher = fw
		w.routed = make(chan struct{})
		fw.Start()
		go w.route()
	}
	return w, nil
}

// Resolver returns the resolver shared by the workspace projects.
func (w *Workspace) Resolver() *resolver.Resolver {
	return w.resolver
}

// Import adds the project in dir and every module below it, in aggregator
// order, runs their first reconciliation and waits for it to settle.
// Projects that are already imported are reconciled again.
func (w *Workspace) Import(ctx context.Context, dir string) ([]*Project, error) {
	order, err := w.resolver.Modules(dir)
	if err != nil {
		return nil, err
	}

	projects := make([]*Project, 0, len(order))
	for _, pdir := range order {
		p, err := w.add(pdir)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	for _, p := range projects {
		p.OnDescriptorChanged()
	}
	for _, p := range projects {
		if err := p.WaitSettled(ctx); err != nil {
			return projects, err
		}
	}

	w.logger.Info("projects imported", "root", order[0], "count", len(projects))
	return projects, nil
}

func (w *Workspace) add(dir string) (*Project, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if p, ok := w.projects[dir]; ok {
		return p, nil
	}

	host, err := w.newHost(dir)
	if err != nil {
		return nil, errors.NewReconcileError(dir, errors.PhaseApply, err)
	}

	p, err := NewProject(dir, Options{
		Toolchain:  w.opts.Toolchain,
		Host:       host,
		Rebuilder:  w.opts.Rebuilder,
		Resolver:   w.resolver,
		Debounce:   w.opts.Debounce,
		RetryDelay: w.opts.RetryDelay,
		Logger:     w.logger,
		Report:     w.onReport,
	})
	if err != nil {
		return nil, err
	}

	if w.watcher != nil {
		if err := w.watcher.WatchProject(dir); err != nil {
			w.logger.Warn("failed to watch project", "dir", dir, "error", err)
		}
	}
	w.projects[dir] = p
	return p, nil
}

// Project returns the imported project for dir, or nil.
func (w *Workspace) Project(dir string) *Project {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.projects[dir]
}

// Projects returns the imported projects sorted by directory.
func (w *Workspace) Projects() []*Project {
	w.mu.Lock()
	defer w.mu.Unlock()

	projects := make([]*Project, 0, len(w.projects))
	for _, p := range w.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Dir() < projects[j].Dir()
	})
	return projects
}

// Remove closes the project in dir and stops watching its descriptors. It
// reports whether the project was imported.
func (w *Workspace) Remove(dir string) bool {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}

	w.mu.Lock()
	p, ok := w.projects[dir]
	if !ok || w.closed {
		w.mu.Unlock()
		return false
	}
	delete(w.projects, dir)
	if w.watcher != nil {
		w.watcher.UnwatchProject(dir)
		for _, f := range w.watched[dir] {
			w.watcher.UnwatchFile(f)
		}
	}
	delete(w.watched, dir)
	w.mu.Unlock()

	p.Close()
	w.logger.Info("project removed", "dir", dir)
	return true
}

// Notify triggers every project whose descriptor is file or whose
// inheritance chain includes it. It returns the number of projects triggered.
func (w *Workspace) Notify(file string) int {
	file, err := filepath.Abs(file)
	if err != nil {
		return 0
	}

	var targets []*Project
	w.mu.Lock()
	for dir, p := range w.projects {
		own := filepath.Dir(file) == dir && descriptor.IsDescriptorFile(filepath.Base(file))
		if own || (p.Chain() != nil && p.Chain().Includes(file)) {
			targets = append(targets, p)
		}
	}
	w.mu.Unlock()

	for _, p := range targets {
		p.OnDescriptorChanged()
	}
	return len(targets)
}

// WaitSettled waits until every project has settled.
func (w *Workspace) WaitSettled(ctx context.Context) error {
	for _, p := range w.Projects() {
		if err := p.WaitSettled(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the watcher and every project.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	projects := make([]*Project, 0, len(w.projects))
	for _, p := range w.projects {
		projects = append(projects, p)
	}
	w.mu.Unlock()

	if w.watcher != nil {
		w.watcher.Stop()
		<-w.routed
	}
	for _, p := range projects {
		p.Close()
	}
}

func (w *Workspace) route() {
	defer close(w.routed)

	for c := range w.watcher.Changes {
		n := w.Notify(c.File)
		w.logger.Debug("descriptor change routed", "file", c.File, "kind", c.Kind, "projects", n)
	}
}

func (w *Workspace) onReport(r Report) {
	w.syncWatches(r.Project)
	if w.opts.Report != nil {
		w.opts.Report(r)
	}
}

// syncWatches watches the local parent descriptors of a project that lie
// outside its own directory.
func (w *Workspace) syncWatches(dir string) {
	if w.watcher == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.projects[dir]
	if w.closed || !ok || p.Chain() == nil {
		return
	}

	var files []string
	for _, f := range p.Chain().Files() {
		if filepath.Dir(f) != dir {
			files = append(files, f)
		}
	}

	old := w.watched[dir]
	for _, f := range old {
		if !slices.Contains(files, f) {
			w.watcher.UnwatchFile(f)
		}
	}
	var kept []string
	for _, f := range files {
		if slices.Contains(old, f) {
			kept = append(kept, f)
			continue
		}
		if err := w.watcher.WatchFile(f); err != nil {
			w.logger.Warn("failed to watch parent descriptor", "file", f, "error", err)
			continue
		}
		kept = append(kept, f)
	}
	w.watched[dir] = kept
}
