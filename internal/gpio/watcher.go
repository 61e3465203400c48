package gpio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

const pollInterval = 250 * time.Millisecond

// ErrWatcherClosed is returned from Wait after the watcher is closed.
var ErrWatcherClosed = errors.New("gpio watcher closed")

// Watcher delivers edge events for one input line.
type Watcher struct {
	line   *Line
	closed chan struct{}
}

// NewWatcher wraps an input line for edge waits. The line must have been
// opened with OpenInput so the kernel arms edge detection on its value fd.
func NewWatcher(line *Line) (*Watcher, error) {
	if line == nil || line.valueFile == nil {
		return nil, errors.New("gpio watcher: input line required")
	}
	// Drain the initial readiness poll reports for a freshly opened value fd.
	if _, err := line.Read(); err != nil {
		return nil, err
	}
	return &Watcher{line: line, closed: make(chan struct{})}, nil
}

// Wait blocks until an edge fires, the context is canceled, or the watcher is
// closed. The poll loop wakes periodically so cancellation is honored even
// with no edges arriving.
func (w *Watcher) Wait(ctx context.Context) error {
	fd := int(w.line.valueFile.Fd())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.closed:
			return ErrWatcherClosed
		default:
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLPRI | unix.POLLERR}}
		n, err := unix.Poll(fds, int(pollInterval.Milliseconds()))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll gpio %d: %w", w.line.pin, err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLPRI|unix.POLLERR) != 0 {
			// Consume the event so the next poll blocks again.
			if _, err := w.line.Read(); err != nil {
				return err
			}
			return nil
		}
	}
}

// Close wakes any pending Wait calls with ErrWatcherClosed.
func (w *Watcher) Close() {
	select {
	case <-w.closed:
	default:
		close(w.closed)
	}
}
