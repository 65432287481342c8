package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchcg/jsync/internal/compiler"
	"github.com/launchcg/jsync/internal/hostmodel"
)

// parentLayout creates a workspace with a shared parent descriptor outside
// the project directory:
//
//	base/java.hcl
//	app/build.hcl   (parent = ../base/java.hcl)
func parentLayout(t *testing.T) (root, parent, app string) {
	t.Helper()
	root = t.TempDir()
	parent = filepath.Join(root, "base", "java.hcl")
	app = filepath.Join(root, "app")

	require.NoError(t, os.MkdirAll(filepath.Dir(parent), 0755))
	require.NoError(t, os.WriteFile(parent, []byte(`
project {}

compiler {
  release = "11"
}
`), 0644))
	writeDescriptor(t, app, `
project {
  name = "app"
}

parent {
  path = "../base/java.hcl"
}
`)
	return root, parent, app
}

func TestNewWorkspace_UnknownHost(t *testing.T) {
	_, err := NewWorkspace(WorkspaceOptions{Host: "netbeans"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown host model")
}

func TestWorkspace_ImportModules(t *testing.T) {
	root := copyProject(t, "add-source-resource")
	ws := newWorkspace(t, WorkspaceOptions{})

	projects, err := ws.Import(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, root, projects[0].Dir())
	assert.Equal(t, filepath.Join(root, "submoduleA"), projects[1].Dir())

	listed := ws.Projects()
	require.Len(t, listed, 2)
	assert.Same(t, projects[0], listed[0])
	assert.Nil(t, ws.Project(filepath.Join(root, "missing")))

	// Importing again reuses the projects.
	again, err := ws.Import(context.Background(), root)
	require.NoError(t, err)
	assert.Same(t, projects[1], again[1])
	assert.Equal(t, uint64(1), again[1].Snapshot().Generation)
}

func TestWorkspace_Isolation(t *testing.T) {
	good := t.TempDir()
	bad := t.TempDir()
	writeDescriptor(t, good, release("17"))
	writeDescriptor(t, bad, "project {")

	ws := newWorkspace(t, WorkspaceOptions{})
	g := importProject(t, ws, good)

	_, err := ws.Import(context.Background(), bad)
	require.NoError(t, err)
	b := ws.Project(bad)
	require.NotNil(t, b)

	assert.True(t, HasErrors(b.Markers()))
	assert.Nil(t, b.Snapshot())
	assert.Empty(t, g.Markers())
	assert.Equal(t, "17", g.CompilerOption(compiler.OptionSource))
}

func TestWorkspace_NotifyParent(t *testing.T) {
	root, parent, app := parentLayout(t)
	ws := newWorkspace(t, WorkspaceOptions{})
	p := importProject(t, ws, app)
	assert.Equal(t, "11", p.CompilerOption(compiler.OptionSource))
	assert.True(t, p.Chain().Includes(parent))

	require.NoError(t, os.WriteFile(parent, []byte(`
project {}

compiler {
  release = "17"
}
`), 0644))
	assert.Equal(t, 1, ws.Notify(parent))
	require.NoError(t, ws.WaitSettled(context.Background()))
	assert.Equal(t, "17", p.CompilerOption(compiler.OptionSource))

	assert.Equal(t, 1, ws.Notify(filepath.Join(app, "build.toml")))
	assert.Zero(t, ws.Notify(filepath.Join(root, "base", "other.hcl")))
	assert.Zero(t, ws.Notify(filepath.Join(app, "README.md")))
}

func TestWorkspace_WatchEdits(t *testing.T) {
	_, parent, app := parentLayout(t)
	ws := newWorkspace(t, WorkspaceOptions{Watch: true})
	p := importProject(t, ws, app)
	require.Equal(t, "11", p.CompilerOption(compiler.OptionSource))

	require.NoError(t, os.WriteFile(filepath.Join(app, "build.hcl"), []byte(`
project {
  name = "app"
}

parent {
  path = "../base/java.hcl"
}

compiler {
  release = "17"
}
`), 0644))
	require.Eventually(t, func() bool {
		return p.CompilerOption(compiler.OptionSource) == "17"
	}, 5*time.Second, 20*time.Millisecond)

	// Edits to the parent outside the project directory are seen too.
	require.NoError(t, os.WriteFile(parent, []byte(`
project {}

compiler {
  enable_preview = true
}
`), 0644))
	require.Eventually(t, func() bool {
		return p.CompilerOption(compiler.OptionEnablePreview) == compiler.Enabled
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWorkspace_Remove(t *testing.T) {
	_, parent, app := parentLayout(t)
	ws := newWorkspace(t, WorkspaceOptions{Watch: true})
	p := importProject(t, ws, app)

	assert.True(t, ws.Remove(app))
	assert.False(t, ws.Remove(app))
	assert.Nil(t, ws.Project(app))
	assert.Empty(t, ws.Projects())
	assert.Zero(t, ws.Notify(parent))

	// The removed project ignores further changes.
	p.OnDescriptorChanged()
	assert.NoError(t, p.WaitSettled(context.Background()))
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, "11", p.CompilerOption(compiler.OptionSource))
}

func TestWorkspace_CustomHost(t *testing.T) {
	hosts := make(map[string]*hostmodel.Memory)
	ws := newWorkspace(t, WorkspaceOptions{
		NewHost: func(dir string) (hostmodel.Model, error) {
			m := hostmodel.NewMemory()
			hosts[dir] = m
			return m, nil
		},
	})

	dir := t.TempDir()
	writeDescriptor(t, dir, release("21"))
	p := importProject(t, ws, dir)

	require.Contains(t, hosts, p.Dir())
	assert.Same(t, hosts[p.Dir()], p.Host())
	assert.Equal(t, 1, hosts[p.Dir()].Applies())
}

func TestWorkspace_Close(t *testing.T) {
	ws, err := NewWorkspace(WorkspaceOptions{Watch: true, Host: hostmodel.MemoryName})
	if err != nil {
		t.Skipf("no home directory for the default cache: %v", err)
	}

	dir := t.TempDir()
	writeDescriptor(t, dir, release("11"))
	_, err = ws.Import(context.Background(), dir)
	require.NoError(t, err)

	ws.Close()
	ws.Close()

	other := t.TempDir()
	writeDescriptor(t, other, release("11"))
	_, err = ws.Import(context.Background(), other)
	assert.ErrorIs(t, err, ErrClosed)
}
