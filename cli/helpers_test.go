package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalProfile = `
[container]
image = fedora

[step "test"]
run = pytest
`

// writeProfile writes content to testbox.ini in dir and returns its path.
func writeProfile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "testbox.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
