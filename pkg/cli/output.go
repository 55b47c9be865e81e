package cli

import (
	"os"
	"path/filepath"
	"runtime"
)

// writeFileAtomic writes data to a temp file and renames it into place, so a
// reader watching the path never sees a partial screenshot or dump.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	// On Windows, rename fails if target exists
	if runtime.GOOS == "windows" {
		os.Remove(path)
	}

	return os.Rename(tmpPath, path)
}
