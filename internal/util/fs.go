package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}

// FileKey makes an id such as "pdf:abc" usable as a single path element.
func FileKey(id string) string {
	return strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(id)
}
