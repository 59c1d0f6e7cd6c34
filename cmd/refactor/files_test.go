package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for _, name := range []string{
		"src/lib.rs",
		"src/nested/mod.rs",
		"src/readme.md",
		"vendor/dep/lib.rs",
		".git/hooks/x.rs",
		"target/release/build.rs",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("fn f() {}\n"), 0o600))
	}

	files, err := discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "src/lib.rs"),
		filepath.Join(dir, "src/nested/mod.rs"),
	}, files)

	explicit := filepath.Join(dir, "vendor/dep/lib.rs")
	files, err = discover([]string{explicit})
	require.NoError(t, err)
	assert.Equal(t, []string{explicit}, files)
}

func TestDiscover_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := discover([]string{dir})
	require.ErrorIs(t, err, ErrNoInput)

	readme := filepath.Join(dir, "readme.md")
	require.NoError(t, os.WriteFile(readme, []byte("# x\n"), 0o600))

	_, err = discover([]string{readme})
	require.ErrorIs(t, err, ErrNotRust)

	_, err = discover([]string{filepath.Join(dir, "missing.rs")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsRust(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"src/lib.rs", true},
		{"main.rs", true},
		{"src/nested/mod.rs", true},
		{"readme.md", false},
		{"main.go", false},
		{"Makefile", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isRust(tt.path), tt.path)
	}
}
