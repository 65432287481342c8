package classpath

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/pkg/level"
)

// standardTree has every directory of the standard layout.
func standardTree() fstest.MapFS {
	return fstest.MapFS{
		"src/main/java/A.java":               {},
		"src/main/resources/app.properties":  {},
		"src/test/java/ATest.java":           {},
		"src/test/resources/test.properties": {},
	}
}

func newDescriptor() *descriptor.Descriptor {
	return &descriptor.Descriptor{File: "/work/app/build.hcl"}
}

func count(entries []Entry, keep func(Entry) bool) int {
	return len(Filter(entries, keep))
}

func testSources(e Entry) bool {
	return e.Test && strings.Contains(e.Path, "test/java")
}

func testResources(e Entry) bool {
	return e.Test && strings.Contains(e.Path, "test/resources")
}

func TestSynthesize_Standard(t *testing.T) {
	s := NewSynthesizer(nil)
	entries := s.Synthesize(newDescriptor(), level.Java11, standardTree())

	require.Len(t, entries, 6)
	assert.Equal(t, Entry{
		Kind:       KindSource,
		Path:       "src/main/java",
		Output:     "target/classes",
		Executions: []string{"default-compile"},
	}, entries[0])
	assert.Equal(t, KindResource, entries[1].Kind)
	assert.Equal(t, "src/main/resources", entries[1].Path)
	assert.False(t, entries[1].Test)

	assert.Equal(t, "src/test/java", entries[2].Path)
	assert.True(t, entries[2].Test)
	assert.Equal(t, "target/test-classes", entries[2].Output)
	assert.Equal(t, "src/test/resources", entries[3].Path)
	assert.Equal(t, KindResource, entries[3].Kind)

	assert.Equal(t, JRE(level.Java11), entries[4])
	assert.Equal(t, JREContainer+"/JavaSE-11", entries[4].Path)
	assert.Equal(t, Dependencies(), entries[5])
}

func TestSynthesize_SkipAllTests(t *testing.T) {
	d := newDescriptor()
	d.Project.SkipTests = descriptor.Bool(true)

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, standardTree())

	assert.Zero(t, count(entries, func(e Entry) bool { return e.Test }))
	assert.Len(t, entries, 4)
}

func TestSynthesize_SkipTestCompilation(t *testing.T) {
	d := newDescriptor()
	d.Executions = []descriptor.ExecutionBlock{
		{ID: descriptor.DefaultTestCompileID, Skip: descriptor.Bool(true)},
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, standardTree())

	assert.Equal(t, 0, count(entries, testSources))
	assert.Equal(t, 1, count(entries, testResources))
}

func TestSynthesize_SkipTestResources(t *testing.T) {
	d := newDescriptor()
	d.Executions = []descriptor.ExecutionBlock{
		{ID: descriptor.DefaultTestResourcesID, Skip: descriptor.Bool(true)},
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, standardTree())

	assert.Equal(t, 1, count(entries, testSources))
	assert.Equal(t, 0, count(entries, testResources))
}

func TestSynthesize_SkipOnlyOneOfMultipleExecutions(t *testing.T) {
	d := newDescriptor()
	d.Executions = []descriptor.ExecutionBlock{
		{ID: descriptor.DefaultTestCompileID, Skip: descriptor.Bool(true)},
		{ID: "integration-testCompile", Goal: descriptor.GoalTestCompile},
		{ID: descriptor.DefaultTestResourcesID, Skip: descriptor.Bool(true)},
		{ID: "integration-testResources", Goal: descriptor.GoalTestResources},
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, standardTree())

	assert.Equal(t, 1, count(entries, testSources))
	assert.Equal(t, 1, count(entries, testResources))

	src := Filter(entries, testSources)[0]
	assert.Equal(t, []string{"integration-testCompile"}, src.Executions)
}

func TestSynthesize_SkipNone(t *testing.T) {
	d := newDescriptor()
	d.Executions = []descriptor.ExecutionBlock{
		{ID: descriptor.DefaultTestCompileID, Skip: descriptor.Bool(false)},
		{ID: "second-testCompile", Goal: descriptor.GoalTestCompile},
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, standardTree())

	assert.Equal(t, 1, count(entries, testSources))
	assert.Equal(t, 1, count(entries, testResources))

	src := Filter(entries, testSources)[0]
	assert.Equal(t, []string{"default-testCompile", "second-testCompile"}, src.Executions)
}

func TestSynthesize_AddSourceResource(t *testing.T) {
	fsys := fstest.MapFS{
		"src/main/java/A.java":                {},
		"src/extra/java/B.java":               {},
		"target/generated-sources/empty.keep": {},
	}
	d := newDescriptor()
	d.Executions = []descriptor.ExecutionBlock{
		{ID: "add-source", Goal: descriptor.GoalAddSource, Roots: []string{"src/extra/java"}},
		{ID: "add-resource", Goal: descriptor.GoalAddResource, Roots: []string{"src/extra/resources"}},
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, fsys)

	require.Len(t, entries, 4)
	assert.Equal(t, "src/main/java", entries[0].Path)
	assert.Equal(t, "src/extra/java", entries[1].Path)
	assert.Equal(t, KindSource, entries[1].Kind)
	assert.Equal(t, KindContainer, entries[2].Kind)
	assert.Equal(t, KindContainer, entries[3].Kind)
}

func TestSynthesize_MissingRootsSkipped(t *testing.T) {
	entries := NewSynthesizer(nil).Synthesize(newDescriptor(), level.Java17, fstest.MapFS{})

	require.Len(t, entries, 2)
	assert.Equal(t, KindContainer, entries[0].Kind)
	assert.Equal(t, JREContainer+"/JavaSE-17", entries[0].Path)
}

func TestSynthesize_CustomLayout(t *testing.T) {
	fsys := fstest.MapFS{
		"java/A.java":      {},
		"res/a.properties": {},
		"conf/app.conf":    {},
	}
	d := newDescriptor()
	d.Build = &descriptor.BuildBlock{
		SourceDirectory: "java",
		Resources:       []string{"res", "conf", "res/"},
		OutputDirectory: "out",
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, fsys)

	require.Len(t, entries, 5)
	assert.Equal(t, "java", entries[0].Path)
	assert.Equal(t, "out", entries[0].Output)
	assert.Equal(t, "res", entries[1].Path)
	assert.Equal(t, "conf", entries[2].Path)
}

func TestSynthesize_DefaultRootsOverride(t *testing.T) {
	fsys := fstest.MapFS{
		"src/main/java/A.java":  {},
		"src/main/java2/B.java": {},
	}
	d := newDescriptor()
	d.Executions = []descriptor.ExecutionBlock{
		{ID: descriptor.DefaultCompileID, Roots: []string{"src/main/java2"}},
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, fsys)

	require.Len(t, entries, 3)
	assert.Equal(t, "src/main/java2", entries[0].Path)
}

func TestSynthesize_RootsOutsideProject(t *testing.T) {
	fsys := fstest.MapFS{"gen/A.java": {}}
	d := newDescriptor()
	d.Executions = []descriptor.ExecutionBlock{
		{ID: "outside", Goal: descriptor.GoalAddSource, Roots: []string{"../shared/java", "/elsewhere/java"}},
		{ID: "absolute", Goal: descriptor.GoalAddSource, Roots: []string{"/work/app/gen"}},
	}

	entries := NewSynthesizer(nil).Synthesize(d, level.Java8, fsys)

	require.Len(t, entries, 3)
	assert.Equal(t, "gen", entries[0].Path)
}

func TestEqual(t *testing.T) {
	a := []Entry{{Kind: KindSource, Path: "src", Executions: []string{"x"}}, Dependencies()}
	b := []Entry{{Kind: KindSource, Path: "src", Executions: []string{"x"}}, Dependencies()}
	c := []Entry{{Kind: KindSource, Path: "src", Test: true, Executions: []string{"x"}}, Dependencies()}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, a[:1]))
}

func TestEntry_String(t *testing.T) {
	assert.Equal(t, "source src/test/java (test)", Entry{Kind: KindSource, Path: "src/test/java", Test: true}.String())
	assert.Equal(t, "container "+DependencyContainer, Dependencies().String())
}
