package hostmodel

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchcg/jsync/internal/classpath"
	"github.com/launchcg/jsync/internal/compiler"
)

func TestEclipse_ApplyWritesFiles(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEclipse(dir)
	require.NoError(t, err)

	cfg := sampleConfig()
	require.NoError(t, e.Apply(context.Background(), cfg))

	prefs, err := os.ReadFile(filepath.Join(dir, ".settings", "org.eclipse.jdt.core.prefs"))
	require.NoError(t, err)
	assert.Equal(t, "eclipse.preferences.version=1\n"+
		"org.eclipse.jdt.core.compiler.codegen.targetPlatform=11\n"+
		"org.eclipse.jdt.core.compiler.compliance=11\n"+
		"org.eclipse.jdt.core.compiler.release=enabled\n"+
		"org.eclipse.jdt.core.compiler.source=11\n", string(prefs))

	dotClasspath, err := os.ReadFile(filepath.Join(dir, ".classpath"))
	require.NoError(t, err)
	content := string(dotClasspath)
	assert.Contains(t, content, `<classpathentry kind="src" output="target/classes" path="src/main/java">`)
	assert.Contains(t, content, `<classpathentry excluding="**" kind="src" output="target/classes" path="src/main/resources">`)
	assert.Contains(t, content, `<attribute name="test" value="true"></attribute>`)
	assert.Contains(t, content, `<classpathentry kind="con" path="`+classpath.DependencyContainer+`"></classpathentry>`)
	assert.Contains(t, content, `<classpathentry kind="output" path="target/classes"></classpathentry>`)

	assert.Equal(t, "11", e.CompilerOption(compiler.OptionSource))
	assert.True(t, classpath.Equal(cfg.Classpath, e.ClasspathEntries()))

	_, err = os.Stat(filepath.Join(dir, ".settings", "jsync.json"))
	assert.NoError(t, err)
}

func TestEclipse_ReloadsState(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEclipse(dir)
	require.NoError(t, err)

	cfg := sampleConfig()
	require.NoError(t, e.Apply(context.Background(), cfg))

	reloaded, err := NewEclipse(dir)
	require.NoError(t, err)
	assert.Equal(t, "11", reloaded.CompilerOption(compiler.OptionCompliance))
	assert.True(t, classpath.Equal(cfg.Classpath, reloaded.ClasspathEntries()))
}

func TestEclipse_PreservesUserSettings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".settings"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".settings", "org.eclipse.jdt.core.prefs"), []byte(
		"eclipse.preferences.version=1\n"+
			"org.eclipse.jdt.core.formatter.tabulation.char=space\n"+
			"org.eclipse.jdt.core.compiler.source=1.5\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".classpath"), []byte(`<?xml version="1.0" encoding="UTF-8"?>
<classpath>
	<classpathentry kind="lib" path="lib/vendor.jar" sourcepath="lib/vendor-src.zip"/>
	<classpathentry kind="output" path="bin"/>
</classpath>
`), 0644))

	e, err := NewEclipse(dir)
	require.NoError(t, err)
	assert.Equal(t, "", e.CompilerOption(compiler.OptionSource), "unmanaged options are not reported")
	assert.Empty(t, e.ClasspathEntries())

	require.NoError(t, e.Apply(context.Background(), sampleConfig()))

	prefs, err := readPrefs(filepath.Join(dir, ".settings", "org.eclipse.jdt.core.prefs"))
	require.NoError(t, err)
	assert.Equal(t, "space", prefs["org.eclipse.jdt.core.formatter.tabulation.char"])
	assert.Equal(t, "11", prefs[compiler.OptionSource])

	raw, err := readDotClasspath(filepath.Join(dir, ".classpath"))
	require.NoError(t, err)
	require.Len(t, raw, 7)
	assert.Equal(t, "lib", raw[5].Kind)
	assert.Equal(t, "lib/vendor.jar", raw[5].Path)
	require.Len(t, raw[5].Other, 1)
	assert.Equal(t, "sourcepath", raw[5].Other[0].Name.Local)
	assert.Equal(t, "output", raw[6].Kind)
	assert.Equal(t, "target/classes", raw[6].Path)
}

func TestEclipse_RemovesStaleSettings(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEclipse(dir)
	require.NoError(t, err)

	first := sampleConfig()
	withWarnings := first.Options.Map()
	withWarnings[compiler.OptionUncheckedOperation] = compiler.Ignore
	first.Options = compiler.NewOptionSet(withWarnings)
	require.NoError(t, e.Apply(context.Background(), first))

	second := sampleConfig()
	second.Classpath = second.Classpath[:1]
	require.NoError(t, e.Apply(context.Background(), second))

	prefs, err := readPrefs(filepath.Join(dir, ".settings", "org.eclipse.jdt.core.prefs"))
	require.NoError(t, err)
	_, ok := prefs[compiler.OptionUncheckedOperation]
	assert.False(t, ok)

	raw, err := readDotClasspath(filepath.Join(dir, ".classpath"))
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, "src/main/java", raw[0].Path)
	assert.Equal(t, "output", raw[1].Kind)
}

func TestEclipse_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEclipse(dir)
	require.NoError(t, err)
	require.NoError(t, e.Apply(context.Background(), sampleConfig()))

	matches, err := filepath.Glob(filepath.Join(dir, ".settings", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	matches, err = filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestNewEclipse_InvalidClasspath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".classpath"), []byte("<classpath><oops"), 0644))

	_, err := NewEclipse(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".classpath")
}

func TestPrefs_RoundTrip(t *testing.T) {
	in := map[string]string{
		compiler.OptionMethodParameters: compiler.DoNotGenerate,
		"org.example.path":              `C:\tools\jdk`,
		"org.example.url":               "http://example.com:8080/a=b",
		"key with space":                "v",
	}

	out, err := parsePrefs(bytes.NewReader(formatPrefs(in)))
	require.NoError(t, err)
	assert.Equal(t, "1", out[prefsVersionKey])
	delete(out, prefsVersionKey)
	assert.Equal(t, in, out)
}

func TestParsePrefs(t *testing.T) {
	got, err := parsePrefs(strings.NewReader("# comment\n! also comment\n\n  a=1\nb : 2\r\nc=multi\\\n  line\nd\ne=trailing\\"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a": "1",
		"b": "2",
		"c": "multiline",
		"d": "",
		"e": "trailing",
	}, got)
}

func TestParsePrefs_LongLine(t *testing.T) {
	long := strings.Repeat("x", 70*1024)
	got, err := parsePrefs(strings.NewReader("a.user.key=" + long + "\nz.user.key=keepme\n"))
	require.NoError(t, err)
	assert.Equal(t, long, got["a.user.key"])
	assert.Equal(t, "keepme", got["z.user.key"])
}

func TestParsePrefs_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := parsePrefs(iotest.ErrReader(boom))
	assert.ErrorIs(t, err, boom)
}

func TestEclipse_PreservesLongUserSettings(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 70*1024)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".settings"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".settings", "org.eclipse.jdt.core.prefs"), []byte(
		"eclipse.preferences.version=1\n"+
			"a.user.key="+long+"\n"+
			"z.user.key=keepme\n"), 0644))

	e, err := NewEclipse(dir)
	require.NoError(t, err)
	require.NoError(t, e.Apply(context.Background(), sampleConfig()))

	prefs, err := readPrefs(filepath.Join(dir, ".settings", "org.eclipse.jdt.core.prefs"))
	require.NoError(t, err)
	assert.Equal(t, long, prefs["a.user.key"])
	assert.Equal(t, "keepme", prefs["z.user.key"])
	assert.Equal(t, "11", prefs[compiler.OptionSource])
}

func TestEclipse_ApplyFailureKeepsFiles(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEclipse(dir)
	require.NoError(t, err)
	require.NoError(t, e.Apply(context.Background(), sampleConfig()))

	prefsPath := filepath.Join(dir, ".settings", "org.eclipse.jdt.core.prefs")
	before, err := os.ReadFile(prefsPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".classpath"), []byte("<classpath><oops"), 0644))

	next := sampleConfig()
	next.Options = compiler.NewOptionSet(map[string]string{
		compiler.OptionSource:         "17",
		compiler.OptionTargetPlatform: "17",
		compiler.OptionCompliance:     "17",
		compiler.OptionRelease:        compiler.Enabled,
	})
	err = e.Apply(context.Background(), next)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".classpath")

	after, err := os.ReadFile(prefsPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, "11", e.CompilerOption(compiler.OptionSource))
	assert.True(t, classpath.Equal(sampleConfig().Classpath, e.ClasspathEntries()))

	matches, err := filepath.Glob(filepath.Join(dir, ".settings", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCommitFiles_RestoresOnFailure(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.prefs")
	fresh := filepath.Join(dir, "b.prefs")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	a, err := loadPendingFile(existing)
	require.NoError(t, err)
	a.data = []byte("new")
	b, err := loadPendingFile(fresh)
	require.NoError(t, err)
	b.data = []byte("new")

	// A regular file as the parent directory makes the last write fail.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, nil, 0644))
	c := &pendingFile{path: filepath.Join(blocked, "c.prefs"), data: []byte("new")}

	err = commitFiles([]*pendingFile{a, b, c})
	require.Error(t, err)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	_, err = os.Stat(fresh)
	assert.True(t, os.IsNotExist(err))
}
