package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// PurgeResult lists what Purge removed.
type PurgeResult struct {
	Files int
	Dirs  int
}

// Removed is the total number of removed entries.
func (r PurgeResult) Removed() int {
	return r.Files + r.Dirs
}

// Purge deletes Python bytecode from the tree rooted at root: files named
// *.pyc or *.pyo and __pycache__ directories. .git is not descended into and
// symlinks are never followed.
func Purge(root string) (PurgeResult, error) {
	var res PurgeResult

	info, err := os.Lstat(root)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrPurgeFailed, err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("%w: %s is not a directory", ErrPurgeFailed, root)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished while walking
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		name := d.Name()
		switch {
		case d.IsDir() && name == ".git" && path != root:
			return filepath.SkipDir
		case d.IsDir() && name == "__pycache__":
			if err := os.RemoveAll(path); err != nil {
				return err
			}
			res.Dirs++
			return filepath.SkipDir
		case d.Type().IsRegular() && isBytecode(name):
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			res.Files++
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrPurgeFailed, err)
	}

	return res, nil
}

func isBytecode(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".pyc" || ext == ".pyo"
}
