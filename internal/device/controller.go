package device

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mnemosyne/internal/camera"
	"mnemosyne/internal/logging"
	"mnemosyne/internal/notifications"
	"mnemosyne/internal/uploader"
	"mnemosyne/internal/vision"
)

// UploadClient is the slice of the upload client the controller needs.
type UploadClient interface {
	Upload(ctx context.Context, imageBase64, description, deviceID string) (uploader.Ack, error)
}

// ControllerOptions wires the controller's collaborators.
type ControllerOptions struct {
	Camera   camera.Camera
	Provider vision.Provider
	Uploads  UploadClient
	Notifier notifications.Service
	LEDs     *StatusLEDs
	Logger   *slog.Logger

	// ResolveID returns the device identity; called once, on first capture.
	ResolveID func() string
	// ShutdownPresses is how many uninterrupted shutdown presses power off.
	ShutdownPresses int
	// Shutdown issues the OS power-off. Defaults to shutdown -h now.
	Shutdown func() error
}

// Controller owns the device's per-process state: the camera handle, the
// resolved identity, and the shutdown press counter.
type Controller struct {
	camera   camera.Camera
	provider vision.Provider
	uploads  UploadClient
	notifier notifications.Service
	leds     *StatusLEDs
	logger   *slog.Logger

	resolveID  func() string
	shutdownFn func() error
	maxPresses int

	mu        sync.Mutex
	idOnce    sync.Once
	deviceID  string
	remaining int
	shutdown  bool
}

// NewController validates options and builds a controller with the shutdown
// counter armed at its maximum.
func NewController(opts ControllerOptions) (*Controller, error) {
	if opts.Camera == nil {
		return nil, fmt.Errorf("controller: camera required")
	}
	if opts.Uploads == nil {
		return nil, fmt.Errorf("controller: upload client required")
	}
	if opts.Provider == nil {
		opts.Provider = vision.NewNone()
	}
	if opts.LEDs == nil {
		opts.LEDs = NewStatusLEDs(nil, nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.ShutdownPresses <= 0 {
		opts.ShutdownPresses = 3
	}
	if opts.ResolveID == nil {
		opts.ResolveID = func() string { return "Unknown" }
	}
	if opts.Shutdown == nil {
		opts.Shutdown = func() error {
			return exec.Command("sudo", "shutdown", "-h", "now").Run()
		}
	}

	return &Controller{
		camera:     opts.Camera,
		provider:   opts.Provider,
		uploads:    opts.Uploads,
		notifier:   opts.Notifier,
		leds:       opts.LEDs,
		logger:     logging.NewComponentLogger(opts.Logger, "device"),
		resolveID:  opts.ResolveID,
		shutdownFn: opts.Shutdown,
		maxPresses: opts.ShutdownPresses,
		remaining:  opts.ShutdownPresses,
	}, nil
}

// SetLEDs attaches the status panel once the GPIO lines are open. Call
// before the event loop starts.
func (c *Controller) SetLEDs(leds *StatusLEDs) {
	if leds != nil {
		c.leds = leds
	}
}

// ResetCamera discards the camera handle so the next capture reopens it.
func (c *Controller) ResetCamera() {
	c.camera.Reset()
}

// DeviceID resolves the device identity once and caches it.
func (c *Controller) DeviceID() string {
	c.idOnce.Do(func() {
		c.deviceID = strings.TrimSpace(c.resolveID())
		if c.deviceID == "" {
			c.deviceID = "Unknown"
		}
	})
	return c.deviceID
}

// Remaining reports how many shutdown presses are left before power-off.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// HandleCapture runs the capture pipeline with the default provider.
func (c *Controller) HandleCapture(ctx context.Context) {
	c.HandleCaptureWith(ctx, nil)
}

// HandleCaptureWith runs the capture pipeline for one button press, using the
// supplied provider instead of the default when non-nil. Any failure is
// logged and absorbed; the camera handle is reset so the next press starts
// from a fresh device. A capture press also rearms the shutdown counter.
func (c *Controller) HandleCaptureWith(ctx context.Context, provider vision.Provider) {
	if provider == nil {
		provider = c.provider
	}

	c.leds.Busy()
	defer c.leds.Idle()

	c.mu.Lock()
	c.remaining = c.maxPresses
	c.mu.Unlock()

	deviceID := c.DeviceID()
	captureID := uuid.NewString()
	log := c.logger.With(logging.String("capture_id", captureID))

	frame, err := c.camera.Acquire(ctx)
	if err != nil {
		log.Error("capture failed", logging.Error(err))
		c.camera.Reset()
		c.notifyFailure(ctx, deviceID, err)
		return
	}

	description, err := provider.Describe(ctx, frame.Base64)
	if err != nil {
		log.Error("description failed",
			logging.String(logging.FieldProvider, provider.Name()),
			logging.Error(err),
		)
		c.camera.Reset()
		c.notifyFailure(ctx, deviceID, err)
		return
	}

	ack, err := c.uploads.Upload(ctx, frame.Base64, description, deviceID)
	if err != nil {
		log.Error("upload failed", logging.Error(err))
		c.camera.Reset()
		c.notifyFailure(ctx, deviceID, err)
		return
	}

	log.Info("capture uploaded",
		logging.String(logging.FieldDeviceID, deviceID),
		logging.Int("status", ack.StatusCode),
		logging.String("message", ack.Message),
	)
	if c.notifier != nil {
		_ = c.notifier.NotifyCaptureUploaded(ctx, deviceID, description)
	}
}

// HandleShutdownPress decrements the shutdown counter and reports whether the
// press triggered power-off. The counter is rearmed only by a capture press.
func (c *Controller) HandleShutdownPress(ctx context.Context) bool {
	c.leds.ShutdownPending()

	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return true
	}
	c.remaining--
	remaining := c.remaining
	fire := remaining <= 0
	if fire {
		c.shutdown = true
	}
	c.mu.Unlock()

	if !fire {
		c.logger.Info("shutdown press registered", logging.Int("remaining", remaining))
		return false
	}

	c.logger.Info("shutdown sequence triggered")
	if c.notifier != nil {
		_ = c.notifier.NotifyShutdown(ctx, c.DeviceID())
	}
	c.leds.Off()
	if err := c.shutdownFn(); err != nil {
		c.logger.Error("shutdown command failed", logging.Error(err))
	}
	return true
}

// Close releases the camera handle.
func (c *Controller) Close() error {
	return c.camera.Close()
}

func (c *Controller) notifyFailure(ctx context.Context, deviceID string, err error) {
	if c.notifier == nil {
		return
	}
	_ = c.notifier.NotifyCaptureFailed(ctx, deviceID, err)
}
