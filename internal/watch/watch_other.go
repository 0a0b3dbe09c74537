//go:build !linux && !darwin

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

type pollWatcher struct {
	path     string
	onChange func(string)
	mu       sync.Mutex
	timer    *time.Timer
	stopChan chan struct{}
}

// New polls path's mtime every 500ms — the portable fallback used on
// Windows and any platform without a native kqueue/inotify backend.
func New(path string, onChange func(string)) (Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &pollWatcher{path: absPath, onChange: onChange, stopChan: make(chan struct{})}, nil
}

func (w *pollWatcher) Run() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastMod time.Time
	for {
		select {
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if !lastMod.IsZero() && info.ModTime().After(lastMod) {
				w.debouncedCallback()
			}
			lastMod = info.ModTime()
		case <-w.stopChan:
			return
		}
	}
}

func (w *pollWatcher) debouncedCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(500*time.Millisecond, func() {
		w.onChange(w.path)
	})
}

func (w *pollWatcher) Close() error {
	close(w.stopChan)
	return nil
}
