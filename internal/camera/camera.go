package camera

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"mnemosyne/internal/logging"
)

// ErrCaptureFailed indicates the frame could not be acquired. The device
// handle has been discarded and the next call reinitializes it.
var ErrCaptureFailed = errors.New("capture failed")

const defaultWarmup = 1 * time.Second

// Frame is one captured still image.
type Frame struct {
	// Base64 is the standard encoded JPEG payload uploaded to the server.
	Base64 string
	// JPEG holds the raw encoded bytes.
	JPEG []byte
}

// Camera produces still frames.
type Camera interface {
	// Acquire captures one frame, warming up the sensor first.
	Acquire(ctx context.Context) (Frame, error)
	// Reset discards the device handle so the next Acquire reopens it.
	Reset()
	// Close releases the device handle.
	Close() error
}

// Webcam captures frames from a V4L2 device through OpenCV.
type Webcam struct {
	index    int
	tempPath string
	warmup   time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	handle *gocv.VideoCapture
}

// Option customizes a Webcam.
type Option func(*Webcam)

// WithWarmup overrides the auto-exposure warmup duration.
func WithWarmup(d time.Duration) Option {
	return func(w *Webcam) {
		if d > 0 {
			w.warmup = d
		}
	}
}

// WithTempPath sets where a local copy of each capture is written.
func WithTempPath(path string) Option {
	return func(w *Webcam) {
		w.tempPath = path
	}
}

// NewWebcam constructs a webcam over the given device index. The device is
// not opened until the first Acquire.
func NewWebcam(index int, logger *slog.Logger, opts ...Option) *Webcam {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Webcam{
		index:  index,
		warmup: defaultWarmup,
		logger: logging.NewComponentLogger(logger, "camera"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Acquire warms the sensor for at least the configured duration, captures a
// single frame, writes a best-effort local copy, and returns the JPEG both
// raw and base64 encoded.
func (w *Webcam) Acquire(ctx context.Context) (Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	handle, err := w.ensureHandleLocked()
	if err != nil {
		return Frame{}, err
	}

	mat := gocv.NewMat()
	defer mat.Close()

	deadline := time.Now().Add(w.warmup)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return Frame{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		}
		// Discarded warmup frames let auto exposure settle.
		handle.Read(&mat)
	}

	if ok := handle.Read(&mat); !ok || mat.Empty() {
		w.resetLocked()
		return Frame{}, fmt.Errorf("%w: device %d returned no frame", ErrCaptureFailed, w.index)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		w.resetLocked()
		return Frame{}, fmt.Errorf("%w: encode jpeg: %v", ErrCaptureFailed, err)
	}
	defer buf.Close()

	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())

	if w.tempPath != "" {
		if err := os.WriteFile(w.tempPath, jpeg, 0o644); err != nil {
			w.logger.Warn("write local copy failed",
				logging.String("path", w.tempPath), logging.Error(err))
		}
	}

	return Frame{
		Base64: base64.StdEncoding.EncodeToString(jpeg),
		JPEG:   jpeg,
	}, nil
}

// Reset discards the device handle.
func (w *Webcam) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

// Close releases the device handle.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handle == nil {
		return nil
	}
	err := w.handle.Close()
	w.handle = nil
	return err
}

func (w *Webcam) ensureHandleLocked() (*gocv.VideoCapture, error) {
	if w.handle != nil {
		return w.handle, nil
	}
	handle, err := gocv.OpenVideoCapture(w.index)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", ErrCaptureFailed, w.index, err)
	}
	if !handle.IsOpened() {
		_ = handle.Close()
		return nil, fmt.Errorf("%w: device %d not opened", ErrCaptureFailed, w.index)
	}
	w.logger.Info("camera initialized", logging.Int("index", w.index))
	w.handle = handle
	return handle, nil
}

func (w *Webcam) resetLocked() {
	if w.handle != nil {
		_ = w.handle.Close()
		w.handle = nil
	}
}
