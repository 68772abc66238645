package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DeleteFile removes a file, ignoring files that are already gone
func DeleteFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MoveFile moves or renames a file
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// TempPath builds a unique file path under dir for an upload named name.
// Only the base name of the upload is kept.
func TempPath(dir, prefix, name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = "audio"
	}
	base = strings.ReplaceAll(base, " ", "_")
	return filepath.Join(dir, fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), base))
}
