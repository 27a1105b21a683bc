// monitor.go
package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor watches a directory and reports writes to a fixed set of files.
type FileMonitor struct {
	watchDir string
	watcher  *fsnotify.Watcher
	targets  map[string]bool
	debounce time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

// NewFileMonitor watches dir for changes to the named files (base names).
func NewFileMonitor(dir string, names ...string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	targets := make(map[string]bool, len(names))
	for _, n := range names {
		targets[filepath.Base(n)] = true
	}

	return &FileMonitor{
		watchDir: dir,
		watcher:  watcher,
		targets:  targets,
		debounce: 500 * time.Millisecond,
	}, nil
}

// Watch calls handler once per burst of events on a target file, until ctx
// is done or the watcher fails. Editors and copy tools write a file in
// several steps, so events closer than the debounce window are merged.
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	defer m.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			m.stopPending()
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !m.targets[filepath.Base(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			m.schedule(event.Name, handler)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			m.stopPending()
			return err
		}
	}
}

func (m *FileMonitor) schedule(name string, handler func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil {
		m.pending.Stop()
	}
	m.pending = time.AfterFunc(m.debounce, func() { handler(name) })
}

func (m *FileMonitor) stopPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.pending.Stop()
	}
}
