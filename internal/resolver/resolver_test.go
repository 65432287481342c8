package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/internal/repository"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func loadDescriptor(t *testing.T, path string) (*descriptor.Descriptor, []byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	d, err := descriptor.Parse(path, data)
	require.NoError(t, err)
	return d, data
}

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	return New(repository.NewFetcher(repository.NewCache(t.TempDir()), nil), nil)
}

func TestResolve_NoParent(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, "build.hcl"), `project {}`)
	d, data := loadDescriptor(t, file)

	chain, err := newResolver(t).Resolve(context.Background(), d, data)
	require.NoError(t, err)

	assert.Same(t, d, chain.Effective)
	assert.Equal(t, []string{file}, chain.Files())
	assert.Empty(t, chain.Sources())
	assert.True(t, chain.Includes(file))
	assert.NotEmpty(t, chain.Digest())
}

func TestResolve_LocalChain(t *testing.T) {
	ws := t.TempDir()
	root := writeFile(t, filepath.Join(ws, "build.hcl"), `
project {
  skip_tests = true
}

compiler {
  release = "17"
}
`)
	mid := writeFile(t, filepath.Join(ws, "platform", "build.toml"), `
[project]
name = "platform"

[parent]
path = "../build.hcl"

[build]
source_directory = "src"
`)
	child := writeFile(t, filepath.Join(ws, "platform", "app", "build.hcl"), `
project {
  name = "app"
}

parent {
  path = "../build.toml"
}

compiler {
  enable_preview = true
}
`)

	d, data := loadDescriptor(t, child)
	chain, err := newResolver(t).Resolve(context.Background(), d, data)
	require.NoError(t, err)

	assert.Equal(t, []string{child, mid, root}, chain.Files())
	assert.True(t, chain.Includes(root))

	eff := chain.Effective
	assert.Equal(t, "app", eff.Name())
	assert.Equal(t, child, eff.File)
	assert.True(t, eff.SkipTests())
	assert.Equal(t, "17", eff.CompilerSection().Release)
	require.NotNil(t, eff.CompilerSection().EnablePreview)
	assert.True(t, *eff.CompilerSection().EnablePreview)
	assert.Equal(t, "src", eff.Layout().SourceDirectory)
}

func TestResolve_DigestChangesWithParent(t *testing.T) {
	ws := t.TempDir()
	parent := writeFile(t, filepath.Join(ws, "build.hcl"), `project {}`)
	child := writeFile(t, filepath.Join(ws, "app", "build.hcl"), `
project {}

parent {
  path = "../build.hcl"
}
`)

	r := newResolver(t)
	d, data := loadDescriptor(t, child)
	first, err := r.Resolve(context.Background(), d, data)
	require.NoError(t, err)

	writeFile(t, parent, `
project {}

compiler {
  release = "21"
}
`)
	second, err := r.Resolve(context.Background(), d, data)
	require.NoError(t, err)

	assert.NotEqual(t, first.Digest(), second.Digest())
	assert.Equal(t, "21", second.Effective.CompilerSection().Release)
}

func TestResolve_Cycle(t *testing.T) {
	ws := t.TempDir()
	a := writeFile(t, filepath.Join(ws, "a", "build.hcl"), `
project {}

parent {
  path = "../b/build.hcl"
}
`)
	writeFile(t, filepath.Join(ws, "b", "build.hcl"), `
project {}

parent {
  path = "../a"
}
`)

	d, data := loadDescriptor(t, a)
	_, err := newResolver(t).Resolve(context.Background(), d, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedDescriptor))

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, "parent", cycle.Kind)
}

func TestResolve_MissingParent(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, "build.hcl"), `
project {}

parent {
  path = "../nowhere/build.hcl"
}
`)

	d, data := loadDescriptor(t, file)
	_, err := newResolver(t).Resolve(context.Background(), d, data)

	var repoErr *errors.RepositoryError
	require.True(t, errors.As(err, &repoErr))
	var nf *errors.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestResolve_MalformedParent(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "build.hcl"), `project {`)
	child := writeFile(t, filepath.Join(ws, "app", "build.hcl"), `
project {}

parent {
  path = "../build.hcl"
}
`)

	d, data := loadDescriptor(t, child)
	_, err := newResolver(t).Resolve(context.Background(), d, data)

	var cfgErr *errors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, filepath.Join(ws, "build.hcl"), cfgErr.File)
}

func TestResolve_RemoteParent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/java/build.toml":
			w.Write([]byte("[project]\n\n[compiler]\nsource = \"11\"\n"))
		case "/local/build.hcl":
			w.Write([]byte("project {}\n\nparent {\n  path = \"../base.hcl\"\n}\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, "build.hcl"), `
project {}

parent {
  source = "`+server.URL+`/java/build.toml"
}
`)

	r := newResolver(t)
	d, data := loadDescriptor(t, file)
	chain, err := r.Resolve(context.Background(), d, data)
	require.NoError(t, err)

	require.Len(t, chain.Links, 2)
	assert.Equal(t, []string{file}, chain.Files())
	assert.Equal(t, []string{server.URL + "/java/build.toml"}, chain.Sources())
	assert.Equal(t, "11", chain.Effective.CompilerSection().Source)

	remoteLocal := writeFile(t, filepath.Join(dir, "other", "build.hcl"), `
project {}

parent {
  source = "`+server.URL+`/local/build.hcl"
}
`)
	d, data = loadDescriptor(t, remoteLocal)
	_, err = r.Resolve(context.Background(), d, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedDescriptor))
	assert.Contains(t, err.Error(), "cannot reference a local parent")
}

func TestModules(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "build.hcl"), `
project {
  modules = ["core", "web"]
}
`)
	writeFile(t, filepath.Join(ws, "core", "build.hcl"), `project {}`)
	writeFile(t, filepath.Join(ws, "web", "build.hcl"), `
project {
  modules = ["../shared", "ui"]
}
`)
	writeFile(t, filepath.Join(ws, "web", "ui", "build.hcl"), `project {`)
	writeFile(t, filepath.Join(ws, "shared", "build.toml"), "[project]\n")

	order, err := newResolver(t).Modules(ws)
	require.NoError(t, err)
	assert.Equal(t, []string{
		ws,
		filepath.Join(ws, "core"),
		filepath.Join(ws, "web"),
		filepath.Join(ws, "shared"),
		filepath.Join(ws, "web", "ui"),
	}, order)
}

func TestModules_Cycle(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "build.hcl"), `
project {
  modules = ["a"]
}
`)
	writeFile(t, filepath.Join(ws, "a", "build.hcl"), `
project {
  modules = [".."]
}
`)

	_, err := newResolver(t).Modules(ws)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedDescriptor))
}

func TestModules_NoDescriptor(t *testing.T) {
	_, err := newResolver(t).Modules(t.TempDir())
	var nf *errors.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
