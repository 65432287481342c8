package hostmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/compiler"
)

func sampleConfig() Config {
	return Config{
		Options: compiler.NewOptionSet(map[string]string{
			compiler.OptionSource:         "11",
			compiler.OptionTargetPlatform: "11",
			compiler.OptionCompliance:     "11",
			compiler.OptionRelease:        compiler.Enabled,
		}),
		Classpath: []classpath.Entry{
			{Kind: classpath.KindSource, Path: "src/main/java", Output: "target/classes", Executions: []string{"default-compile"}},
			{Kind: classpath.KindResource, Path: "src/main/resources", Output: "target/classes", Executions: []string{"default-resources"}},
			{Kind: classpath.KindSource, Path: "src/test/java", Output: "target/test-classes", Test: true, Executions: []string{"default-testCompile"}},
			{Kind: classpath.KindContainer, Path: classpath.JREContainer + "/JavaSE-11"},
			classpath.Dependencies(),
		},
	}
}

func TestRegistry(t *testing.T) {
	assert.Contains(t, Registered(), MemoryName)
	assert.Contains(t, Registered(), EclipseName)

	_, err := Get("intellij")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown host model")

	m, err := New(MemoryName, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, MemoryName, m.Name())

	e, err := New(EclipseName, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, EclipseName, e.Name())
}

func TestRegister_Custom(t *testing.T) {
	Register("test-host", func(string) (Model, error) { return NewMemory(), nil })
	t.Cleanup(func() {
		factoriesMu.Lock()
		delete(factories, "test-host")
		factoriesMu.Unlock()
	})

	m, err := New("test-host", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, "", m.CompilerOption(compiler.OptionSource))
	assert.Empty(t, m.ClasspathEntries())

	cfg := sampleConfig()
	require.NoError(t, m.Apply(context.Background(), cfg))

	assert.Equal(t, "11", m.CompilerOption(compiler.OptionSource))
	assert.Equal(t, compiler.Enabled, m.CompilerOption(compiler.OptionRelease))
	assert.True(t, classpath.Equal(cfg.Classpath, m.ClasspathEntries()))
	assert.Equal(t, 1, m.Applies())

	// returned classpath is a copy
	entries := m.ClasspathEntries()
	entries[0].Path = "changed"
	assert.Equal(t, "src/main/java", m.ClasspathEntries()[0].Path)
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	assert.ErrorIs(t, m.Apply(ctx, sampleConfig()), context.Canceled)
	assert.Zero(t, m.Applies())
}

func TestRebuildFunc(t *testing.T) {
	var got string
	var r Rebuilder = RebuildFunc(func(_ context.Context, dir string) error {
		got = dir
		return nil
	})

	require.NoError(t, r.Rebuild(context.Background(), "/work/app"))
	assert.Equal(t, "/work/app", got)
}
