package pprof

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Writer persists profile files under one directory per profile type,
// rotating out the oldest files past a per-type limit.
type Writer struct {
	mu       sync.Mutex
	dir      string
	maxFiles int
}

// NewWriter creates a writer rooted at dir keeping at most maxFiles
// files per profile type. maxFiles <= 0 disables rotation.
func NewWriter(dir string, maxFiles int) *Writer {
	return &Writer{dir: dir, maxFiles: maxFiles}
}

// EnsureDir creates the output tree for the given profile types.
func (w *Writer) EnsureDir(profiles []ProfileType) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, pt := range profiles {
		if err := os.MkdirAll(filepath.Join(w.dir, string(pt)), 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", pt, err)
		}
	}
	return nil
}

// Write stores one profile snapshot and returns its path.
func (w *Writer) Write(pt ProfileType, data []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Join(w.dir, string(pt))
	name := fmt.Sprintf("%s_%s.pprof", pt, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write profile file: %w", err)
	}
	if err := w.rotate(dir); err != nil {
		return path, fmt.Errorf("rotate old profiles: %w", err)
	}
	return path, nil
}

func (w *Writer) rotate(dir string) error {
	if w.maxFiles <= 0 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type aged struct {
		name string
		mod  time.Time
	}
	var files []aged
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pprof" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, aged{name: entry.Name(), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	for len(files) > w.maxFiles {
		if err := os.Remove(filepath.Join(dir, files[0].name)); err != nil {
			return fmt.Errorf("remove old file %s: %w", files[0].name, err)
		}
		files = files[1:]
	}
	return nil
}

// ListFiles returns the stored files for one profile type.
func (w *Writer) ListFiles(pt ProfileType) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Join(w.dir, string(pt))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pprof" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// OutputDir returns the root output directory.
func (w *Writer) OutputDir() string {
	return w.dir
}

// Clean removes the whole output tree.
func (w *Writer) Clean() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return os.RemoveAll(w.dir)
}
