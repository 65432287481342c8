// Package hostmodel provides the host project models that receive reconciled
// compiler options and classpaths. Each model knows how to publish a
// configuration to a specific host (e.g., an in-memory model for tests, or an
// Eclipse workspace layout on disk).
package hostmodel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/compiler"
)

// Config is the complete configuration published to a host model.
type Config struct {
	// Options are the compiler options, replaced wholesale
	Options compiler.OptionSet

	// Classpath is the ordered classpath, replaced wholesale
	Classpath []classpath.Entry
}

// Model defines the interface for host project models.
type Model interface {
	// Name returns the model name (e.g., "eclipse")
	Name() string

	// Apply publishes the configuration, replacing what was there before
	Apply(ctx context.Context, cfg Config) error

	// CompilerOption returns the current value of a compiler option, or ""
	CompilerOption(name string) string

	// ClasspathEntries returns the current classpath
	ClasspathEntries() []classpath.Entry
}

// Rebuilder is implemented by hosts that can rebuild a project after its
// configuration changed.
type Rebuilder interface {
	Rebuild(ctx context.Context, projectDir string) error
}

// RebuildFunc adapts a function to the Rebuilder interface.
type RebuildFunc func(ctx context.Context, projectDir string) error

// Rebuild calls f(ctx, projectDir).
func (f RebuildFunc) Rebuild(ctx context.Context, projectDir string) error {
	return f(ctx, projectDir)
}

// Factory creates the model for one project directory.
type Factory func(projectDir string) (Model, error)

// factories holds registered model factories
var (
	factories   = make(map[string]Factory)
	factoriesMu sync.RWMutex
)

// Register registers a model factory under a host name.
// Should be called from model init() functions.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[name] = factory
}

// Get returns the factory registered for the host name.
// Returns an error if no model is registered for the host.
func Get(name string) (Factory, error) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown host model: %q", name)
	}
	return factory, nil
}

// New creates the model registered under name for projectDir.
func New(name, projectDir string) (Model, error) {
	factory, err := Get(name)
	if err != nil {
		return nil, err
	}
	return factory(projectDir)
}

// Registered returns all registered host names in sorted order.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
