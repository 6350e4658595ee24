// Package fswatch records files created in a directory while a generator runs
package fswatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

// DefaultSettling is how long Stop waits for late events
const DefaultSettling = 100 * time.Millisecond

// Recorder collects the names of regular files created directly inside dir.
// When dir does not exist yet its parent is watched and dir is picked up as
// soon as it appears.
type Recorder struct {
	watcher  *fsnotify.Watcher
	logger   logger.Logger
	dir      string
	settling time.Duration
	created  map[string]struct{}
	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
}

// NewRecorder starts recording creations in dir
func NewRecorder(dir string, log logger.Logger) (*Recorder, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	r := &Recorder{
		watcher:  watcher,
		logger:   log,
		dir:      filepath.Clean(dir),
		settling: DefaultSettling,
		created:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}

	target := r.dir
	if !utils.DirectoryExists(r.dir) {
		target = filepath.Dir(r.dir)
	}
	if err := watcher.Add(target); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", target, err)
	}

	go r.processEvents()

	log.Debug("Recording new files", logger.WithField("dir", r.dir))
	return r, nil
}

// SetSettlingDelay sets how long Stop waits before closing the watcher
func (r *Recorder) SetSettlingDelay(delay time.Duration) {
	r.mu.Lock()
	r.settling = delay
	r.mu.Unlock()
}

// Stop waits for the settling delay, closes the watcher and returns the
// recorded file names in lexical order. Later calls return the same set.
func (r *Recorder) Stop() []string {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		settling := r.settling
		r.mu.Unlock()

		time.Sleep(settling)
		if err := r.watcher.Close(); err != nil {
			r.logger.Warn("Failed to close watcher", logger.WithField("error", err))
		}
		<-r.done
	})
	return r.Created()
}

// Created returns the names recorded so far
func (r *Recorder) Created() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.created))
	for name := range r.created {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Recorder) processEvents() {
	defer close(r.done)
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handleEvent(event)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("Watcher error", logger.WithField("error", err))
		}
	}
}

func (r *Recorder) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(event.Name)

	if path == r.dir {
		if err := r.watcher.Add(path); err != nil {
			r.logger.Warn("Failed to watch new directory",
				logger.WithField("dir", path),
				logger.WithField("error", err))
		}
		// Files may land before the watch is in place.
		r.scanExisting()
		return
	}

	if filepath.Dir(path) != r.dir {
		return
	}
	r.record(path)
}

func (r *Recorder) scanExisting() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		r.record(filepath.Join(r.dir, e.Name()))
	}
}

func (r *Recorder) record(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	r.mu.Lock()
	r.created[filepath.Base(path)] = struct{}{}
	r.mu.Unlock()
}
