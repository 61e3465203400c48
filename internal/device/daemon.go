package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"mnemosyne/internal/config"
	"mnemosyne/internal/gpio"
	"mnemosyne/internal/logging"
	"mnemosyne/internal/vision"
)

// Daemon wires the controller to GPIO edge events and holds the single
// instance lock while running.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	controller *Controller
	gemini     vision.Provider
	monitor    Monitor

	lockPath string
	lock     *flock.Flock
	chip     *gpio.Chip
}

// Monitor is started alongside the event loop, typically the camera hotplug
// watcher.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
}

// NewDaemon builds the device daemon. The gemini provider is optional and
// backs the second capture button; monitor may be nil.
func NewDaemon(cfg *config.Config, controller *Controller, gemini vision.Provider, monitor Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon: config required")
	}
	if controller == nil {
		return nil, errors.New("daemon: controller required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockDir := cfg.Device.LockDir
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("daemon: create lock dir: %w", err)
	}
	lockPath := filepath.Join(lockDir, "mnemosyne-device.lock")

	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		controller: controller,
		gemini:     gemini,
		monitor:    monitor,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		chip:       gpio.NewChip(),
	}, nil
}

// Run acquires the instance lock, opens the GPIO lines, and services button
// events until the context is canceled or the shutdown sequence fires.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mnemosyne device instance is already running")
	}
	defer func() { _ = d.lock.Unlock() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	led1, err := d.chip.OpenOutput(d.cfg.GPIO.LED1)
	if err != nil {
		return fmt.Errorf("open led 1: %w", err)
	}
	defer led1.Close()
	led2, err := d.chip.OpenOutput(d.cfg.GPIO.LED2)
	if err != nil {
		return fmt.Errorf("open led 2: %w", err)
	}
	defer led2.Close()

	leds := NewStatusLEDs(led1, led2)
	d.controller.SetLEDs(leds)
	leds.Idle()
	defer leds.Off()

	if d.monitor != nil {
		if err := d.monitor.Start(runCtx); err != nil {
			d.logger.Warn("hotplug monitor unavailable", logging.Error(err))
		} else {
			defer d.monitor.Stop()
		}
	}

	type binding struct {
		pin     int
		edge    gpio.Edge
		handler func(context.Context)
	}

	bindings := []binding{
		{
			pin:  d.cfg.GPIO.CaptureButton,
			edge: gpio.EdgeRising,
			handler: func(ctx context.Context) {
				d.controller.HandleCapture(ctx)
			},
		},
		{
			pin:  d.cfg.GPIO.ShutdownButton,
			edge: gpio.EdgeRising,
			handler: func(ctx context.Context) {
				if d.controller.HandleShutdownPress(ctx) {
					cancel()
				}
			},
		},
	}
	if d.gemini != nil && d.cfg.GPIO.GeminiButton > 0 {
		bindings = append(bindings, binding{
			pin:  d.cfg.GPIO.GeminiButton,
			edge: gpio.EdgeRising,
			handler: func(ctx context.Context) {
				d.controller.HandleCaptureWith(ctx, d.gemini)
			},
		})
	}

	errs := make(chan error, len(bindings))
	for _, b := range bindings {
		line, err := d.chip.OpenInput(b.pin, b.edge)
		if err != nil {
			return fmt.Errorf("open button pin %d: %w", b.pin, err)
		}
		defer line.Close()

		watcher, err := gpio.NewWatcher(line)
		if err != nil {
			return fmt.Errorf("watch button pin %d: %w", b.pin, err)
		}
		defer watcher.Close()

		handler := b.handler
		pin := b.pin
		go func() {
			for {
				if err := watcher.Wait(runCtx); err != nil {
					if !errors.Is(err, context.Canceled) && !errors.Is(err, gpio.ErrWatcherClosed) {
						errs <- fmt.Errorf("wait on pin %d: %w", pin, err)
					}
					return
				}
				handler(runCtx)
			}
		}()
	}

	d.logger.Info("device daemon running", logging.String("lock", d.lockPath))

	select {
	case <-runCtx.Done():
		return nil
	case err := <-errs:
		return err
	}
}
