// Package manifest decides whether a staged model needs regenerating by comparing
// content digests of the staged files against the previous run's snapshot.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Entry describes one file in a manifest. Absent entries record a file that was
// expected but not found.
type Entry struct {
	Digest string `json:"digest,omitempty"`
	Size   int64  `json:"size"`
	Absent bool   `json:"absent,omitempty"`
}

// Manifest maps file names to their content digests for one directory.
type Manifest struct {
	Dir     string           `json:"dir"`
	Entries map[string]Entry `json:"entries"`
}

// Same reports whether name has identical content in both manifests. A file absent
// on either side is never the same.
func (m *Manifest) Same(other *Manifest, name string) bool {
	a, okA := m.Entries[name]
	b, okB := other.Entries[name]
	if !okA || !okB || a.Absent || b.Absent {
		return false
	}
	return a.Size == b.Size && a.Digest == b.Digest
}

// Build digests the named files in dir. Missing files become Absent entries.
// If dir itself does not exist, Build returns nil and no error: there is nothing
// to compare against.
func Build(dir string, files []string) (*Manifest, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	m := &Manifest{Dir: dir, Entries: make(map[string]Entry, len(files))}
	for _, name := range files {
		entry, err := digestFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		m.Entries[name] = entry
	}
	return m, nil
}

func digestFile(path string) (Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{Absent: true}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Entry{Digest: "sha256:" + hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}
