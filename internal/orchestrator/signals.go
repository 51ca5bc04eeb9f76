package orchestrator

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalManager watches a signals directory so an operator can stop a run
// from outside the process by dropping a "stop" file.
type SignalManager struct {
	dir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalManager creates a signal manager rooted at the given directory.
func NewSignalManager(runDir string) (*SignalManager, error) {
	signalsDir := filepath.Join(runDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sm := &SignalManager{
		dir:  signalsDir,
		done: make(chan struct{}),
	}

	// Start file watcher for immediate signals
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - ShouldStop falls back to polling
		return sm, nil
	}
	sm.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sm.watcher = nil
		return sm, nil
	}

	go sm.watchSignals()

	return sm, nil
}

// watchSignals monitors the signals directory for a stop file.
func (sm *SignalManager) watchSignals() {
	for {
		select {
		case <-sm.done:
			return
		case event, ok := <-sm.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			if base == "stop" && (event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sm.mu.Lock()
				sm.stopSignal = true
				sm.mu.Unlock()
			}
		case <-sm.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldStop returns true if a stop signal has been received.
func (sm *SignalManager) ShouldStop() bool {
	// Also check file directly in case the watcher missed it
	stopPath := filepath.Join(sm.dir, "stop")
	if _, err := os.Stat(stopPath); err == nil {
		sm.mu.Lock()
		sm.stopSignal = true
		sm.mu.Unlock()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stopSignal
}

// SendStop creates a stop signal file.
func (sm *SignalManager) SendStop() error {
	path := filepath.Join(sm.dir, "stop")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes the stop file and resets signal state.
func (sm *SignalManager) ClearSignals() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stopSignal = false
	os.Remove(filepath.Join(sm.dir, "stop"))
}

// Close shuts down the signal manager.
func (sm *SignalManager) Close() {
	close(sm.done)
	if sm.watcher != nil {
		sm.watcher.Close()
	}
}
