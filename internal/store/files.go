package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Files is the scratch-directory persistence collaborator: directory
// listing, whole-file read/write, existence checks and removal, all rooted
// under one data directory.
type Files struct {
	root string
}

// NewFiles creates the store rooted at root, creating it if needed.
func NewFiles(root string) (*Files, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", root, err)
	}
	return &Files{root: root}, nil
}

// Root returns the store's base directory.
func (f *Files) Root() string {
	return f.root
}

// Path joins parts under the store root.
func (f *Files) Path(parts ...string) string {
	return filepath.Join(append([]string{f.root}, parts...)...)
}

// EnsureDir creates dir under the root if it does not exist.
func (f *Files) EnsureDir(dir string) error {
	if err := os.MkdirAll(f.Path(dir), 0700); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// List returns the entries of dir under the root.
func (f *Files) List(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(f.Path(dir))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return entries, nil
}

// Read returns the contents of the file at parts.
func (f *Files) Read(parts ...string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(parts...))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the file at the final part with data.
func (f *Files) Write(data []byte, parts ...string) error {
	path := f.Path(parts...)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Remove deletes the file at parts if it exists.
func (f *Files) Remove(parts ...string) error {
	if err := os.Remove(f.Path(parts...)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the file at parts exists.
func (f *Files) Exists(parts ...string) bool {
	_, err := os.Stat(f.Path(parts...))
	return err == nil
}
