//go:build linux

package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

type inotifyWatcher struct {
	fd       int
	path     string
	onChange func(string)

	mu    sync.Mutex
	timer *time.Timer
}

// New watches path for modifications via inotify and calls onChange
// (debounced 500ms) each time it's rewritten.
func New(path string, onChange func(string)) (Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("watch: inotify_init: %w", err)
	}
	if _, err := unix.InotifyAddWatch(fd, absPath, unix.IN_MODIFY|unix.IN_CLOSE_WRITE); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("watch: watching %s: %w", absPath, err)
	}
	return &inotifyWatcher{fd: fd, path: absPath, onChange: onChange}, nil
}

func (w *inotifyWatcher) Run() {
	buf := make([]byte, unix.SizeofInotifyEvent*10)
	for {
		n, err := unix.Read(w.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if VerboseMode {
				fmt.Fprintf(os.Stderr, "watch: reading inotify events: %v\n", err)
			}
			return
		}

		offset := 0
		for offset < n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)
			if event.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0 {
				w.debouncedCallback()
			}
		}
	}
}

func (w *inotifyWatcher) debouncedCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(500*time.Millisecond, func() {
		w.onChange(w.path)
	})
}

func (w *inotifyWatcher) Close() error {
	return unix.Close(w.fd)
}
