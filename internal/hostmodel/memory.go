package hostmodel

import (
	"context"
	"slices"
	"sync"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/compiler"
)

// MemoryName is the host name of the in-memory model.
const MemoryName = "memory"

func init() {
	Register(MemoryName, func(string) (Model, error) {
		return NewMemory(), nil
	})
}

// Memory is a host model that keeps the published configuration in memory.
// It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	options compiler.OptionSet
	entries []classpath.Entry
	applies int
}

// NewMemory creates an empty in-memory model.
func NewMemory() *Memory {
	return &Memory{}
}

// Name returns the model name.
func (m *Memory) Name() string {
	return MemoryName
}

// Apply replaces the stored configuration.
func (m *Memory) Apply(ctx context.Context, cfg Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.options = cfg.Options
	m.entries = slices.Clone(cfg.Classpath)
	m.applies++
	return nil
}

// CompilerOption returns the current value of a compiler option.
func (m *Memory) CompilerOption(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.options.Value(name)
}

// ClasspathEntries returns a copy of the current classpath.
func (m *Memory) ClasspathEntries() []classpath.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.entries)
}

// Applies returns how many times a configuration was applied.
func (m *Memory) Applies() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.applies
}
