package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mnemosyne/internal/camera"
	"mnemosyne/internal/device"
	"mnemosyne/internal/device/hotplug"
	"mnemosyne/internal/logging"
	"mnemosyne/internal/notifications"
	"mnemosyne/internal/uploader"
	"mnemosyne/internal/vision"
)

func newDeviceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "camera",
		Aliases: []string{"device"},
		Short:   "Run the camera device daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevice(cmd.Context(), ctx)
		},
	}
}

func runDevice(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg, "device")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cam := camera.NewWebcam(cfg.Device.CameraIndex, logger,
		camera.WithWarmup(time.Duration(cfg.Device.WarmupSeconds)*time.Second),
		camera.WithTempPath(cfg.Device.CameraTempPath),
	)

	// On-device descriptions use the verbose prompt so the stored record
	// reads like a scene observation.
	var provider vision.Provider = vision.NewNone()
	if cfg.OpenAI.APIKey != "" {
		provider, err = vision.NewOpenAI(vision.OpenAIConfig{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.OpenAI.Model,
			Prompt:         vision.VerbosePrompt,
			MaxTokens:      cfg.OpenAI.MaxTokens,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		})
		if err != nil {
			return fmt.Errorf("init vision provider: %w", err)
		}
	} else {
		logger.Info("no openai api key; captures upload without a description")
	}

	var gemini vision.Provider
	if cfg.Gemini.APIKey != "" {
		gemini, err = vision.NewGemini(vision.GeminiConfig{
			APIKey:         cfg.Gemini.APIKey,
			BaseURL:        cfg.Gemini.BaseURL,
			Model:          cfg.Gemini.Model,
			TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
		})
		if err != nil {
			return fmt.Errorf("init gemini provider: %w", err)
		}
	}

	uploads, err := uploader.NewClient(cfg.Device.ContentServerURL)
	if err != nil {
		return fmt.Errorf("init upload client: %w", err)
	}

	notifier := notifications.NewService(cfg)

	controller, err := device.NewController(device.ControllerOptions{
		Camera:   cam,
		Provider: provider,
		Uploads:  uploads,
		Notifier: notifier,
		Logger:   logger,
		ResolveID: func() string {
			return device.ResolveDeviceID(cfg.Device.Interface, cfg.Device.DefaultDeviceID)
		},
		ShutdownPresses: cfg.Device.ShutdownPresses,
	})
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}
	defer controller.Close()

	monitor := hotplug.NewMonitor(logger, func(action, devicePath string) {
		logger.Info("camera hotplug event",
			logging.String("action", action),
			logging.String("device", devicePath),
		)
		controller.ResetCamera()
	})

	daemon, err := device.NewDaemon(cfg, controller, gemini, monitor, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := daemon.Run(signalCtx); err != nil {
		_ = notifier.NotifyError(context.Background(), err, "device daemon")
		return err
	}
	return nil
}
