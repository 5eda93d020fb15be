// Package filex has filesystem helpers for the CLI: making sure the local
// database directory exists and reading images picked for a post.
package filex

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize caps the size of an image attached to a post.
const MaxImageSize = 10 << 20

var (
	ErrNotAnImage    = errors.New("file is not an image")
	ErrImageTooLarge = errors.New("image is too large")
)

// EnsureParentDir creates the directory that will hold path. Relative
// paths are resolved against the working directory. Returns the absolute path.
func EnsureParentDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}

// ReadImage loads an image from disk and sniffs its content type.
func ReadImage(path string) ([]byte, string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if fi.IsDir() {
		return nil, "", fmt.Errorf("%s: %w", path, ErrNotAnImage)
	}
	if fi.Size() > MaxImageSize {
		return nil, "", fmt.Errorf("%s (%d bytes): %w", path, fi.Size(), ErrImageTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%s (%s): %w", path, contentType, ErrNotAnImage)
	}
	return data, contentType, nil
}
