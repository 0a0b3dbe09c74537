//go:build darwin

package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

type kqueueWatcher struct {
	kq       int
	fd       int
	path     string
	onChange func(string)

	mu    sync.Mutex
	timer *time.Timer
}

// New watches path for modifications via kqueue/EVFILT_VNODE.
func New(path string, onChange func(string)) (Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("watch: kqueue: %w", err)
	}
	fd, err := unix.Open(absPath, unix.O_RDONLY, 0)
	if err != nil {
		unix.Close(kq)
		return nil, fmt.Errorf("watch: opening %s: %w", absPath, err)
	}
	event := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_VNODE,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
		Fflags: unix.NOTE_WRITE | unix.NOTE_ATTRIB,
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{event}, nil, nil); err != nil {
		unix.Close(fd)
		unix.Close(kq)
		return nil, fmt.Errorf("watch: registering kevent for %s: %w", absPath, err)
	}
	return &kqueueWatcher{kq: kq, fd: fd, path: absPath, onChange: onChange}, nil
}

func (w *kqueueWatcher) Run() {
	events := make([]unix.Kevent_t, 10)
	for {
		n, err := unix.Kevent(w.kq, nil, events, nil)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if VerboseMode {
				fmt.Fprintf(os.Stderr, "watch: kevent: %v\n", err)
			}
			return
		}
		for i := 0; i < n; i++ {
			w.debouncedCallback()
		}
	}
}

func (w *kqueueWatcher) debouncedCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(500*time.Millisecond, func() {
		w.onChange(w.path)
	})
}

func (w *kqueueWatcher) Close() error {
	unix.Close(w.fd)
	return unix.Close(w.kq)
}
