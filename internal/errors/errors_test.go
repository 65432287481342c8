package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{
			name: "with line and column",
			err: &ConfigError{
				File:    "build.hcl",
				Line:    10,
				Column:  5,
				Message: "invalid syntax",
			},
			expected: "malformed descriptor at build.hcl:10:5: invalid syntax",
		},
		{
			name: "with line only",
			err: &ConfigError{
				File:    "build.hcl",
				Line:    10,
				Message: "invalid syntax",
			},
			expected: "malformed descriptor at build.hcl:10: invalid syntax",
		},
		{
			name: "file only",
			err: &ConfigError{
				File:    "build.hcl",
				Message: "unknown goal",
			},
			expected: "malformed descriptor at build.hcl: unknown goal",
		},
		{
			name: "with wrapped error",
			err: &ConfigError{
				File:    "build.hcl",
				Line:    10,
				Column:  5,
				Message: "parsing failed",
				Err:     errors.New("unexpected token"),
			},
			expected: "malformed descriptor at build.hcl:10:5: parsing failed: unexpected token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestConfigError_IsMalformedDescriptor(t *testing.T) {
	underlying := errors.New("unexpected token")
	err := NewConfigError("build.hcl", 1, 1, "parse", underlying)

	wrapped := fmt.Errorf("reconcile: %w", err)
	assert.True(t, Is(wrapped, ErrMalformedDescriptor))
	assert.True(t, Is(wrapped, underlying))
	assert.False(t, Is(wrapped, ErrUnsupportedLevel))

	var cfgErr *ConfigError
	require.True(t, As(wrapped, &cfgErr))
	assert.Equal(t, 1, cfgErr.Line)
}

func TestLevelError(t *testing.T) {
	err := NewLevelError("source", "25", "1.8..21", "21")
	assert.Equal(t, "unsupported source level 25 (supported: 1.8..21), using 21", err.Error())
	assert.True(t, Is(err, ErrUnsupportedLevel))

	noFallback := NewLevelError("require_java", ">=25", "1.8..21", "")
	assert.Equal(t, "unsupported require_java level >=25 (supported: 1.8..21)", noFallback.Error())
}

func TestRepositoryError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewRepositoryError("https://repo.example.com/build.hcl", "fetch", underlying)

	assert.Equal(t, "repository error: fetch failed for https://repo.example.com/build.hcl: connection refused", err.Error())
	assert.Equal(t, underlying, err.Unwrap())

	bare := NewRepositoryError("s3://bucket", "connect", nil)
	assert.Equal(t, "repository error: connect failed for s3://bucket", bare.Error())
}

func TestReconcileError(t *testing.T) {
	inner := NewConfigError("build.hcl", 3, 0, "bad block", nil)
	err := NewReconcileError("/work/app", PhaseParse, inner)

	assert.Equal(t, "reconcile /work/app: parse: malformed descriptor at build.hcl:3: bad block", err.Error())
	assert.True(t, Is(err, ErrMalformedDescriptor))

	bare := NewReconcileError("/work/app", PhaseApply, nil)
	assert.Equal(t, "reconcile /work/app: apply failed", bare.Error())
}

func TestValidationError(t *testing.T) {
	withField := NewValidationError("execution:extra", "goal", "unknown goal \"deploy\"")
	assert.Equal(t, `invalid execution:extra: field "goal": unknown goal "deploy"`, withField.Error())

	noField := NewValidationError("parent", "", "cannot have both path and source")
	assert.Equal(t, "invalid parent: cannot have both path and source", noField.Error())
}

func TestLocation(t *testing.T) {
	err := NewReconcileError("/work/app", PhaseParse, NewConfigError("build.hcl", 7, 3, "bad block", nil))

	file, line, ok := Location(err)
	require.True(t, ok)
	assert.Equal(t, "build.hcl", file)
	assert.Equal(t, 7, line)

	_, _, ok = Location(NewRepositoryError("s3://bucket/build.hcl", "fetch", nil))
	assert.False(t, ok)
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("descriptor", "/work/app/build.hcl")
	assert.Equal(t, "descriptor not found: /work/app/build.hcl", err.Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))

	base := New("boom")
	wrapped := Wrap(base, "reading descriptor")
	assert.Equal(t, "reading descriptor: boom", wrapped.Error())
	assert.True(t, Is(wrapped, base))
	assert.Equal(t, base, Unwrap(wrapped))
}

func TestJoin(t *testing.T) {
	a := New("a")
	b := NewLevelError("target", "30", "1.8..21", "21")
	joined := Join(a, b)
	assert.True(t, Is(joined, a))
	assert.True(t, Is(joined, ErrUnsupportedLevel))
}
