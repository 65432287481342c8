// Package reconcile keeps host project models synchronized with their build
// descriptors. Each project has a single worker that coalesces change
// notifications, derives a configuration snapshot and publishes it.
package reconcile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/compiler"
	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/internal/hostmodel"
	"github.com/launchcg/jsync/internal/repository"
	"github.com/launchcg/jsync/internal/resolver"
	"github.com/launchcg/jsync/pkg/level"
)

// ErrClosed is returned when waiting on a project that was closed before
// its pending passes ran.
var ErrClosed = errors.New("project closed")

// DefaultPassTimeout bounds a single reconciliation pass.
const DefaultPassTimeout = 5 * time.Minute

// Options configures a project.
type Options struct {
	// Toolchain is the supported level range
	Toolchain level.Range

	// Host receives published configurations (required)
	Host hostmodel.Model

	// Rebuilder is invoked after every publish (optional)
	Rebuilder hostmodel.Rebuilder

	// Resolver resolves parent descriptors; when nil, remote parents are cached under the project's .jsync directory
	Resolver *resolver.Resolver

	// Debounce is the quiet window after the last change before a pass starts
	Debounce time.Duration

	// RetryDelay is the wait before retrying a failed descriptor read
	RetryDelay time.Duration

	// PassTimeout bounds a pass (DefaultPassTimeout when zero)
	PassTimeout time.Duration

	// Logger receives progress and problems
	Logger *slog.Logger

	// Report is called from the worker goroutine after every pass, before
	// the pass counts as settled (optional)
	Report func(Report)
}

// Project reconciles one project directory.
type Project struct {
	dir    string
	opts   Options
	logger *slog.Logger
	mapper *compiler.Mapper
	synth  *classpath.Synthesizer

	readFile func(string) ([]byte, error)

	// Read without locking.
	snapshot  atomic.Pointer[Snapshot]
	published atomic.Pointer[Snapshot]
	markers   atomic.Pointer[[]Marker]
	chain     atomic.Pointer[resolver.Chain]
	state     atomic.Int32

	mu          sync.Mutex
	requested   uint64
	completed   uint64
	lastTrigger time.Time
	settled     chan struct{} // closed and replaced whenever completed advances
	closed      bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewProject creates a project for dir and starts its worker. No pass runs
// until the first call to OnDescriptorChanged.
func NewProject(dir string, opts Options) (*Project, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if opts.Host == nil {
		return nil, errors.NewValidationError("project:"+dir, "host", "a host model is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.PassTimeout <= 0 {
		opts.PassTimeout = DefaultPassTimeout
	}
	if opts.Resolver == nil {
		cache := repository.NewCache(filepath.Join(dir, repository.DefaultCacheDir))
		opts.Resolver = resolver.New(repository.NewFetcher(cache, opts.Logger), opts.Logger)
	}

	logger := opts.Logger.With("project", dir)
	p := &Project{
		dir:      dir,
		opts:     opts,
		logger:   logger,
		mapper:   compiler.NewMapper(opts.Toolchain, logger),
		synth:    classpath.NewSynthesizer(logger),
		readFile: os.ReadFile,
		settled:  make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Dir returns the absolute project directory.
func (p *Project) Dir() string {
	return p.dir
}

// DescriptorFile returns the project's descriptor file. When none exists yet
// it returns the path of build.hcl.
func (p *Project) DescriptorFile() string {
	if file, ok := descriptor.Find(p.dir); ok {
		return file
	}
	return filepath.Join(p.dir, descriptor.HCLFileName)
}

// Host returns the host model the project publishes to.
func (p *Project) Host() hostmodel.Model {
	return p.opts.Host
}

// OnDescriptorChanged signals that a descriptor of the project, or of its
// inheritance chain, changed. It never blocks.
func (p *Project) OnDescriptorChanged() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.requested++
	p.lastTrigger = time.Now()
	if State(p.state.Load()) == StateIdle {
		p.state.Store(int32(StateChangeDetected))
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// WriteDescriptor replaces the project's descriptor and signals the change.
func (p *Project) WriteDescriptor(data []byte) error {
	if err := os.WriteFile(p.DescriptorFile(), data, 0644); err != nil {
		return err
	}
	p.OnDescriptorChanged()
	return nil
}

// WaitSettled blocks until every pass requested before the call, including
// coalesced follow-ups, has completed.
func (p *Project) WaitSettled(ctx context.Context) error {
	p.mu.Lock()
	target := p.requested
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if p.completed >= target {
			p.mu.Unlock()
			return nil
		}
		ch := p.settled
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		case <-p.done:
			p.mu.Lock()
			ok := p.completed >= target
			p.mu.Unlock()
			if ok {
				return nil
			}
			return ErrClosed
		}
	}
}

// Snapshot returns the active snapshot, or nil before the first successful pass.
func (p *Project) Snapshot() *Snapshot {
	return p.snapshot.Load()
}

// Markers returns the markers of the last pass.
func (p *Project) Markers() []Marker {
	m := p.markers.Load()
	if m == nil {
		return nil
	}
	return slices.Clone(*m)
}

// Chain returns the inheritance chain of the last successfully resolved descriptor.
func (p *Project) Chain() *resolver.Chain {
	return p.chain.Load()
}

// State returns the current reconciliation state.
func (p *Project) State() State {
	return State(p.state.Load())
}

// CompilerOption returns the value of a compiler option as published to the host.
// Separate calls may observe different passes; use Snapshot to read options
// and classpath from one generation.
func (p *Project) CompilerOption(name string) string {
	return p.opts.Host.CompilerOption(name)
}

// ClasspathEntries returns the classpath as published to the host. Use
// Snapshot for a classpath consistent with the options.
func (p *Project) ClasspathEntries() []classpath.Entry {
	return p.opts.Host.ClasspathEntries()
}

// Close stops the worker after the in-flight pass. Pending passes that have
// not started are dropped.
func (p *Project) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stop)
	<-p.done
}

func (p *Project) run() {
	defer close(p.done)

	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
		}

		if !p.quiet() {
			return
		}

		p.mu.Lock()
		covered := p.requested
		if covered == p.completed {
			p.mu.Unlock()
			continue
		}
		p.state.Store(int32(StateReconciling))
		p.mu.Unlock()

		rep := p.reconcile()
		if p.opts.Report != nil {
			p.opts.Report(rep)
		}

		p.mu.Lock()
		p.completed = covered
		if p.requested == covered {
			p.state.Store(int32(StateIdle))
		} else {
			p.state.Store(int32(StateChangeDetected))
		}
		close(p.settled)
		p.settled = make(chan struct{})
		p.mu.Unlock()
	}
}

// quiet waits until no change arrived for the debounce window. It returns
// false when the project is closed meanwhile.
func (p *Project) quiet() bool {
	for {
		p.mu.Lock()
		wait := p.opts.Debounce - time.Since(p.lastTrigger)
		p.mu.Unlock()
		if wait <= 0 {
			return true
		}

		t := time.NewTimer(wait)
		select {
		case <-p.stop:
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

// reconcile runs one pass and records its markers.
func (p *Project) reconcile() Report {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.PassTimeout)
	defer cancel()

	start := time.Now()
	published, markers, err := p.pass(ctx)
	p.markers.Store(&markers)

	rep := Report{
		Project:   p.dir,
		Published: published,
		Markers:   markers,
		Duration:  time.Since(start),
		Err:       err,
	}
	if s := p.snapshot.Load(); s != nil {
		rep.Generation = s.Generation
	}

	for _, m := range markers {
		switch m.Severity {
		case SeverityError:
			p.logger.Error("reconcile problem", "code", m.Code, "message", m.Message)
		case SeverityWarning:
			p.logger.Warn("reconcile problem", "code", m.Code, "message", m.Message)
		}
	}
	return rep
}

// pass derives a snapshot from the current descriptor and publishes it
// when it differs from the published one. A read, parse or resolve failure
// aborts the pass and leaves the active snapshot in place.
func (p *Project) pass(ctx context.Context) (bool, []Marker, error) {
	file := p.DescriptorFile()

	data, err := p.read(ctx, file)
	if err != nil {
		err = errors.NewReconcileError(p.dir, errors.PhaseRead, err)
		return false, []Marker{{Severity: SeverityError, Code: CodeIO, Message: err.Error(), File: file}}, err
	}

	d, err := descriptor.Parse(file, data)
	if err != nil {
		return false, []Marker{markerFor(err, file)}, errors.NewReconcileError(p.dir, errors.PhaseParse, err)
	}

	chain, err := p.opts.Resolver.Resolve(ctx, d, data)
	if err != nil {
		return false, []Marker{markerFor(err, file)}, errors.NewReconcileError(p.dir, errors.PhaseResolve, err)
	}
	p.chain.Store(chain)

	var markers []Marker
	res := p.mapper.Map(chain.Effective)
	for _, w := range res.Warnings {
		code := CodeMalformedDescriptor
		if errors.Is(w, errors.ErrUnsupportedLevel) {
			code = CodeUnsupportedLevel
		}
		markers = append(markers, Marker{Severity: SeverityWarning, Code: code, Message: w.Error(), File: file})
	}
	for _, e := range res.Errors {
		markers = append(markers, Marker{Severity: SeverityError, Code: CodeUnsupportedLevel, Message: e.Error(), File: file})
	}

	next := &Snapshot{
		Digest:    chain.Digest(),
		Options:   res.Options,
		Classpath: p.synth.Synthesize(chain.Effective, res.Target, os.DirFS(p.dir)),
		Target:    res.Target,
		Time:      time.Now(),
	}

	active := p.snapshot.Load()
	if pub := p.published.Load(); pub != nil && pub == active && next.Equivalent(pub) {
		p.logger.Debug("configuration unchanged")
		return false, markers, nil
	}

	// An active snapshot that failed to apply is retried as is.
	if active != nil && active.Equivalent(next) {
		next = active
	} else {
		if active != nil {
			next.Generation = active.Generation + 1
		} else {
			next.Generation = 1
		}
		p.snapshot.Store(next)
	}

	cfg := hostmodel.Config{Options: next.Options, Classpath: next.Classpath}
	if err := p.opts.Host.Apply(ctx, cfg); err != nil {
		err = errors.NewReconcileError(p.dir, errors.PhaseApply, err)
		markers = append(markers, Marker{Severity: SeverityError, Code: CodeIO, Message: err.Error(), File: file})
		return false, markers, err
	}
	p.published.Store(next)
	p.logger.Info("configuration published",
		"generation", next.Generation,
		"options", next.Options.Len(),
		"classpath", len(next.Classpath))

	if p.opts.Rebuilder != nil {
		if err := p.opts.Rebuilder.Rebuild(ctx, p.dir); err != nil {
			markers = append(markers, Marker{
				Severity: SeverityWarning,
				Code:     CodeIO,
				Message:  errors.Wrap(err, "rebuild failed").Error(),
				File:     file,
			})
		}
	}
	return true, markers, nil
}

// read reads the descriptor, retrying once after the retry delay.
func (p *Project) read(ctx context.Context, file string) ([]byte, error) {
	data, err := p.readFile(file)
	if err == nil {
		return data, nil
	}
	p.logger.Debug("descriptor read failed, retrying", "file", file, "error", err)

	t := time.NewTimer(p.opts.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}
	return p.readFile(file)
}
