// Package fileutil holds file helpers shared by the dataset and config
// writers.
package fileutil

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to path through a temp file in the same directory
// and renames it into place, creating parent directories as needed. The
// existing file is only removed when renaming over it fails, which is the
// case on Windows.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err == nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
