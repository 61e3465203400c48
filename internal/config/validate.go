package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateGPIO(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	if strings.TrimSpace(c.Server.DatabasePath) == "" {
		return errors.New("server.database_path must be set")
	}
	return nil
}

func (c *Config) validateDevice() error {
	if strings.TrimSpace(c.Device.ContentServerURL) == "" {
		return errors.New("device.content_server_url must be set")
	}
	if c.Device.CameraIndex < 0 {
		return errors.New("device.camera_index must not be negative")
	}
	if c.Device.ShutdownPresses < 1 {
		return errors.New("device.shutdown_presses must be at least 1")
	}
	return nil
}

func (c *Config) validateGPIO() error {
	pins := map[string]int{
		"gpio.capture_button":  c.GPIO.CaptureButton,
		"gpio.gemini_button":   c.GPIO.GeminiButton,
		"gpio.shutdown_button": c.GPIO.ShutdownButton,
		"gpio.led_1":           c.GPIO.LED1,
		"gpio.led_2":           c.GPIO.LED2,
	}
	seen := make(map[int]string, len(pins))
	for name, pin := range pins {
		if pin < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
		if prev, ok := seen[pin]; ok {
			return fmt.Errorf("%s and %s share pin %d", prev, name, pin)
		}
		seen[pin] = name
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
