package speech

import (
	"os"
	"path/filepath"
)

// WriteFile writes audio to path atomically so a half-written file never
// replaces a playable one: the bytes land in a temp file in the same
// directory, then rename swaps it in.
func WriteFile(path string, audio []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(audio); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0644); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Windows refuses to rename over an existing file.
		if rmErr := os.Remove(path); rmErr == nil {
			if err2 := os.Rename(tmpPath, path); err2 == nil {
				return nil
			}
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}
