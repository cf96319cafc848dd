// Package security validates user-supplied paths before files are read
// into captured inbox items.
package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxCaptureBytes bounds files read into a capture.
const DefaultMaxCaptureBytes int64 = 1 << 20

var (
	ErrEmptyPath     = errors.New("file path cannot be empty")
	ErrForbiddenPath = errors.New("file path contains a forbidden character")
	ErrNotRegular    = errors.New("path is not a regular file")
	ErrFileTooLarge  = errors.New("file is too large to capture")
)

// shell metacharacters never appear in a legitimate capture path.
var forbidden = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

// ValidateFilePath cleans path, makes it absolute and resolves symlinks.
// A path that does not exist yet is returned cleaned.
func ValidateFilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}
	for _, c := range forbidden {
		if strings.Contains(path, c) {
			return "", fmt.Errorf("%w %q: %s", ErrForbiddenPath, c, path)
		}
	}

	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return clean, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolved, nil
}

// ReadCaptureFile reads a regular file of at most maxBytes after validating
// its path. maxBytes <= 0 uses DefaultMaxCaptureBytes.
func ReadCaptureFile(path string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxCaptureBytes
	}
	clean, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 - path is validated above
	f, err := os.Open(clean)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, info.Size(), maxBytes)
	}
	return io.ReadAll(io.LimitReader(f, maxBytes))
}
