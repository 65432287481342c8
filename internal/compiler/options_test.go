package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionSet(t *testing.T) {
	src := map[string]string{OptionSource: "11", OptionCompliance: "11"}
	s := NewOptionSet(src)

	src[OptionSource] = "17"
	assert.Equal(t, "11", s.Value(OptionSource), "set must not alias its input")

	v, ok := s.Get(OptionCompliance)
	assert.True(t, ok)
	assert.Equal(t, "11", v)

	_, ok = s.Get(OptionRelease)
	assert.False(t, ok)
	assert.Equal(t, "", s.Value(OptionRelease))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{OptionCompliance, OptionSource}, s.Keys())

	m := s.Map()
	m[OptionSource] = "21"
	assert.Equal(t, "11", s.Value(OptionSource))
}

func TestOptionSet_Equal(t *testing.T) {
	a := NewOptionSet(map[string]string{OptionSource: "11"})
	b := NewOptionSet(map[string]string{OptionSource: "11"})
	c := NewOptionSet(map[string]string{OptionSource: "17"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, OptionSet{}.Equal(NewOptionSet(nil)))
	assert.Empty(t, OptionSet{}.Map())
}

func TestParseArgs(t *testing.T) {
	s, err := parseArgs([]string{"-release", "11", "--source=1.8", "-target", "11", "-parameters", "-encoding", "-Xlint"})
	assert.NoError(t, err)

	assert.Equal(t, "11", s.release)
	assert.Equal(t, "1.8", s.source)
	assert.Equal(t, "11", s.target)
	assert.True(t, s.parameters)
	assert.False(t, s.preview)
	assert.Equal(t, []string{"-encoding"}, s.ignored)
	assert.Equal(t, []lintSetting{{severity: Warning}}, s.lint)
}

func TestApplyLint(t *testing.T) {
	got := applyLint([]lintSetting{
		{severity: Ignore},
		{category: "deprecation", severity: Warning},
		{category: "bogus", severity: Warning},
	})

	assert.Len(t, got, len(WarningOptions()))
	assert.Equal(t, Warning, got[OptionDeprecation])
	assert.Equal(t, Ignore, got[OptionUncheckedOperation])
}
