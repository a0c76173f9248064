// Package watcher reports debounced changes to individual files.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// FileWatcher calls back once per burst of writes to a watched file.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration

	mu        sync.Mutex
	callbacks map[string]func(string)
	timers    map[string]*time.Timer
}

func New(debounce time.Duration, logger *log.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:   w,
		logger:    logger,
		debounce:  debounce,
		callbacks: make(map[string]func(string)),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Add registers file. The parent directory is watched so that editors which
// save by rename-and-replace keep triggering.
func (fw *FileWatcher) Add(file string, onChange func(path string)) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("resolve path %s: %w", file, err)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if err := fw.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", abs, err)
	}
	fw.callbacks[abs] = onChange
	return nil
}

// Run dispatches events until ctx is done, then closes the watcher.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer fw.close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fw.handleChange(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("file watcher error", "err", err)
		}
	}
}

func (fw *FileWatcher) handleChange(name string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	path := filepath.Clean(name)
	callback, ok := fw.callbacks[path]
	if !ok {
		return
	}

	if timer, ok := fw.timers[path]; ok {
		timer.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		callback(path)
	})
}

func (fw *FileWatcher) close() {
	fw.mu.Lock()
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.timers = make(map[string]*time.Timer)
	fw.mu.Unlock()

	if err := fw.watcher.Close(); err != nil {
		fw.logger.Warn("close file watcher", "err", err)
	}
}
