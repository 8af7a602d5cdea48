// Package staging copies a model's descriptor files into the output tree and keeps
// the previous run's snapshot next to them.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nvandessel/spineml2genn/internal/pathutil"
	"github.com/nvandessel/spineml2genn/internal/spineml"
)

// Directory names inside the output root.
const (
	ModelDirName    = "model"
	SnapshotDirName = "prev"
)

// ErrSourceMissing is returned when the model source directory does not exist.
var ErrSourceMissing = errors.New("model directory does not exist")

// ErrSameFile is returned when a copy's source and destination are the same file.
var ErrSameFile = errors.New("source and destination are the same file")

// Layout is the on-disk layout of one output root.
type Layout struct {
	Root string
}

// StagingDir is <root>/model.
func (l Layout) StagingDir() string { return filepath.Join(l.Root, ModelDirName) }

// SnapshotDir is <root>/model/prev.
func (l Layout) SnapshotDir() string { return filepath.Join(l.Root, ModelDirName, SnapshotDirName) }

// StateDir holds run history and decision traces.
func (l Layout) StateDir() string { return filepath.Join(l.Root, ".spineml2genn") }

// StageResult lists what was copied into the staging directory.
type StageResult struct {
	StagingDir string   `json:"staging_dir"`
	Referenced []string `json:"referenced"`
	Auxiliary  []string `json:"auxiliary,omitempty"`
}

// Stage copies every referenced file and every auxiliary data file from srcDir into
// dstDir, overwriting earlier copies. dstDir is created if needed. Auxiliary files are
// regular files in srcDir whose names end with one of auxExts.
func Stage(srcDir, dstDir string, refs *spineml.References, auxExts []string) (*StageResult, error) {
	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, srcDir)
	}

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	result := &StageResult{StagingDir: dstDir}

	for _, name := range refs.Files() {
		src, err := pathutil.JoinWithin(srcDir, name)
		if err != nil {
			return nil, err
		}
		dst, err := pathutil.JoinWithin(dstDir, name)
		if err != nil {
			return nil, err
		}
		if err := CopyFile(src, dst); err != nil {
			return nil, err
		}
		result.Referenced = append(result.Referenced, name)
	}

	aux, err := auxiliaryFiles(srcDir, auxExts)
	if err != nil {
		return nil, err
	}
	for _, name := range aux {
		if err := CopyFile(filepath.Join(srcDir, name), filepath.Join(dstDir, name)); err != nil {
			return nil, err
		}
	}
	result.Auxiliary = aux

	return result, nil
}

// auxiliaryFiles returns the sorted names of regular files in dir ending in one of exts.
func auxiliaryFiles(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read model directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if hasAnySuffix(e.Name(), exts) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// hasAnySuffix matches extensions with or without a leading dot: "bin" and ".bin"
// both select "weights.bin" but not "cabin".
func hasAnySuffix(name string, exts []string) bool {
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// UpdateSnapshot overwrites snapshotDir's copy of each file with the staged one.
// snapshotDir is created if needed.
func UpdateSnapshot(stagingDir, snapshotDir string, files []string) error {
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	for _, name := range files {
		dst, err := pathutil.JoinWithin(snapshotDir, name)
		if err != nil {
			return err
		}
		if err := CopyFile(filepath.Join(stagingDir, name), dst); err != nil {
			return err
		}
	}
	return nil
}

// CopyFile copies src to dst, replacing dst, and keeps the source permission bits.
// Parent directories of dst are created as needed. Copying a file onto itself
// fails with ErrSameFile and leaves it untouched.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", pathutil.RedactPath(src), err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", pathutil.RedactPath(src), err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to copy %s: %w", pathutil.RedactPath(src), fs.ErrInvalid)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(info, dstInfo) {
		return fmt.Errorf("failed to copy %s: %w", pathutil.RedactPath(src), ErrSameFile)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", pathutil.RedactPath(dst), err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", pathutil.RedactPath(dst), err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", pathutil.RedactPath(src), err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", pathutil.RedactPath(dst), err)
	}

	return os.Chmod(dst, info.Mode().Perm())
}
