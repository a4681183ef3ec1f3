package fs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// IsHidden reports whether name is a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ReadTextFile reads a file as text. ok is false for files larger than
// maxBytes and for files that look binary (a NUL in the first 8KB).
func ReadTextFile(path string, maxBytes int64) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, err
	}
	if info.IsDir() || info.Size() > maxBytes {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", false, err
	}
	if bytes.IndexByte(data[:min(len(data), 8192)], 0) >= 0 {
		return "", false, nil
	}
	return string(data), true, nil
}
