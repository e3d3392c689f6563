// Package watcher reports changes to edge source files so the graph can be
// rebuilt while the user edits manifests or rebuilds .d files.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/refgraph/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeManifest ChangeType = iota
	ChangeTypeDFile
)

func (t ChangeType) String() string {
	if t == ChangeTypeDFile {
		return "dfile"
	}
	return "manifest"
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

const batchWindow = 100 * time.Millisecond

// FileWatcher watches edge sources: manifest files and directories of .d files
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool // watched manifest files, absolute
	dirs     []string        // watched .d trees, absolute
	events   chan ChangeEvent
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher for the given source paths
func NewFileWatcher(sources []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		files:   make(map[string]bool),
		events:  make(chan ChangeEvent, 100),
	}

	for _, src := range sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("resolving %s: %w", src, err)
		}
		info, err := os.Stat(abs)
		if err == nil && info.IsDir() {
			fw.dirs = append(fw.dirs, abs)
		} else {
			fw.files[abs] = true
		}
	}

	return fw, nil
}

// Start begins watching and processes events until ctx is cancelled,
// after which the Events channel is closed.
func (fw *FileWatcher) Start(ctx context.Context) error {
	// Editors replace files on save, so watch the parent directory of a manifest
	parents := make(map[string]bool)
	for file := range fw.files {
		parents[filepath.Dir(file)] = true
	}
	for dir := range parents {
		if err := fw.watcher.Add(dir); err != nil {
			logging.Warn("failed to watch directory", "path", dir, "error", err)
		}
	}

	for _, dir := range fw.dirs {
		if err := fw.watchTree(dir); err != nil {
			logging.Warn("failed to watch tree", "path", dir, "error", err)
		}
	}

	logging.Info("started watching sources", "files", len(fw.files), "trees", len(fw.dirs))

	go fw.processEvents(ctx)
	return nil
}

// watchTree watches dir and every directory below it
func (fw *FileWatcher) watchTree(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	count := 0
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't access
		}
		if d.IsDir() {
			if err := fw.watcher.Add(path); err != nil {
				logging.Warn("failed to watch directory", "path", path, "error", err)
				return nil
			}
			count++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	logging.Debug("monitoring tree", "path", resolved, "directories", count)
	return nil
}

// classify maps a file system event to the kind of source it touches
func (fw *FileWatcher) classify(event fsnotify.Event) (ChangeType, bool) {
	if fw.files[event.Name] {
		return ChangeTypeManifest, true
	}
	if strings.HasSuffix(event.Name, ".d") {
		return ChangeTypeDFile, true
	}
	return 0, false
}

// processEvents processes file system events and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	batches := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeManifest, ChangeTypeDFile} {
			if len(batches[t]) == 0 {
				continue
			}
			select {
			case fw.events <- ChangeEvent{Type: t, Paths: batches[t], Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
		batches = make(map[ChangeType][]string)
	}

	defer func() {
		_ = fw.Stop()
		close(fw.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories inside a .d tree need watching too
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fw.watchTree(event.Name)
					continue
				}
			}

			if t, relevant := fw.classify(event); relevant {
				batches[t] = append(batches[t], event.Name)
				flushTimer.Reset(batchWindow)
			}

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop stops the file watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}
