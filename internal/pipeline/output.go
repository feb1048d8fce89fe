package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GMettam/batch-affidavit-web/internal/affidavit"
)

// WriteResult writes res under dir and returns the path written. Existing
// files with the same name are replaced.
func WriteResult(dir string, res *affidavit.Result) (string, error) {
	return writeFile(dir, res.Filename, res.Document)
}

// OutputWriter writes the documents of one run into a directory. Two
// results with the same filename never overwrite each other: later ones
// get a _2, _3, ... suffix before the extension.
type OutputWriter struct {
	dir  string
	mu   sync.Mutex
	used map[string]bool
}

// NewOutputWriter creates a writer for dir.
func NewOutputWriter(dir string) *OutputWriter {
	return &OutputWriter{dir: dir, used: make(map[string]bool)}
}

// Write stores res and returns the path written.
func (w *OutputWriter) Write(res *affidavit.Result) (string, error) {
	name := w.reserve(res.Filename)
	path, err := writeFile(w.dir, name, res.Document)
	if err != nil {
		w.release(name)
		return "", err
	}
	return path, nil
}

func (w *OutputWriter) reserve(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Keys are folded so case-insensitive filesystems cannot collide either.
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; w.used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
	w.used[strings.ToLower(candidate)] = true
	return candidate
}

func (w *OutputWriter) release(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.used, strings.ToLower(name))
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".affidavit-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return path, nil
}
