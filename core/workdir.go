package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveProjectDir returns the absolute project directory. A relative dir is
// taken relative to base, the directory of the profile that named it, and
// never relative to the working directory of the caller.
func ResolveProjectDir(dir, base string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if !filepath.IsAbs(dir) {
		if base == "" {
			return "", fmt.Errorf("%w: relative project dir %q without a base directory", ErrProjectDirNotFound, dir)
		}
		dir = filepath.Join(base, dir)
	}
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProjectDirNotFound, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrProjectDirNotFound, dir)
	}
	return dir, nil
}

// CheckProjectMarkers fails unless dir holds at least one of markers. An
// empty markers list accepts any directory.
func CheckProjectMarkers(dir string, markers []string) error {
	if len(markers) == 0 {
		return nil
	}
	for _, m := range markers {
		if _, err := os.Lstat(filepath.Join(dir, m)); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no %s", ErrNotAProject, dir, strings.Join(markers, " or "))
}

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
