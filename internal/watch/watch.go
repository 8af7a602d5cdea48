// Package watch reruns a build whenever a model directory changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc performs one build. changed lists the paths that triggered it and
// is empty for the initial run.
type RunFunc func(ctx context.Context, changed []string) error

// Watcher runs a RunFunc once, then again after each quiet period that
// follows a change in Dir. Runs never overlap.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	// Exclude lists paths whose events are ignored, e.g. an output
	// directory nested in the model directory.
	Exclude []string
	Logger  *slog.Logger

	runs atomic.Uint32
}

// RunCount returns the number of completed runs.
func (w *Watcher) RunCount() uint32 {
	return w.runs.Load()
}

// Run blocks until ctx is cancelled. A failing run is logged and watching
// continues; only watcher setup errors are returned.
func (w *Watcher) Run(ctx context.Context, fn RunFunc) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	dir, err := filepath.Abs(w.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.Dir, err)
	}
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}

	w.invoke(ctx, logger, fn, nil)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending []string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("model directory changed", "path", event.Name, "op", event.Op.String())
			if !slices.Contains(pending, event.Name) {
				pending = append(pending, event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := pending
			pending = nil
			slices.Sort(changed)
			w.invoke(ctx, logger, fn, changed)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) invoke(ctx context.Context, logger *slog.Logger, fn RunFunc, changed []string) {
	if ctx.Err() != nil {
		return
	}
	count := w.runs.Add(1)
	if len(changed) > 0 {
		logger.Info("rerunning after change", "count", count, "changed", changed)
	}
	if err := fn(ctx, changed); err != nil {
		logger.Error("run failed", "count", count, "error", err)
		return
	}
	logger.Debug("run finished", "count", count)
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := absPath(event.Name)
	for _, ex := range w.Exclude {
		ex = absPath(ex)
		if name == ex || strings.HasPrefix(name, ex+string(filepath.Separator)) {
			return false
		}
	}
	return true
}

// absPath resolves p against the working directory, falling back to the
// cleaned path when that fails.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
