package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProjectDir(t *testing.T) {
	root := t.TempDir()
	automation := filepath.Join(root, "automation")
	require.NoError(t, os.Mkdir(automation, 0o755))

	tests := []struct {
		name string
		dir  string
		base string
		want string
	}{
		{"parent of base", "..", automation, root},
		{"base itself", "", automation, automation},
		{"absolute ignores base", root, "/nonexistent", root},
		{"cleaned", "../automation/.", automation, automation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveProjectDir(tt.dir, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveProjectDir_NeverUsesWorkingDir(t *testing.T) {
	_, err := ResolveProjectDir("..", "")
	assert.ErrorIs(t, err, ErrProjectDirNotFound)
}

func TestResolveProjectDir_Missing(t *testing.T) {
	_, err := ResolveProjectDir("missing", t.TempDir())
	assert.ErrorIs(t, err, ErrProjectDirNotFound)
}

func TestResolveProjectDir_NotADirectory(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "file"), nil, 0o644))

	_, err := ResolveProjectDir("file", base)
	assert.ErrorIs(t, err, ErrProjectDirNotFound)
}

func TestCheckProjectMarkers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), nil, 0o644))

	assert.NoError(t, CheckProjectMarkers(dir, nil))
	assert.NoError(t, CheckProjectMarkers(dir, []string{"setup.py", "pyproject.toml"}))

	err := CheckProjectMarkers(dir, []string{"setup.py", "setup.cfg"})
	require.ErrorIs(t, err, ErrNotAProject)
	assert.Contains(t, err.Error(), "setup.py or setup.cfg")
}

func TestExecutableDir(t *testing.T) {
	dir, err := ExecutableDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.DirExists(t, dir)
}
