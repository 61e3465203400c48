package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDevice()
	c.normalizeProviders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Server.DatabasePath, err = expandPath(c.Server.DatabasePath); err != nil {
		return fmt.Errorf("server.database_path: %w", err)
	}
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	if c.Device.LockDir, err = expandPath(c.Device.LockDir); err != nil {
		return fmt.Errorf("device.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevice() {
	c.Device.ContentServerURL = strings.TrimSpace(c.Device.ContentServerURL)
	c.Device.DefaultDeviceID = strings.TrimSpace(c.Device.DefaultDeviceID)
	if c.Device.DefaultDeviceID == "" {
		c.Device.DefaultDeviceID = defaultDeviceID
	}
	c.Device.Interface = strings.TrimSpace(c.Device.Interface)
	if c.Device.WarmupSeconds <= 0 {
		c.Device.WarmupSeconds = defaultWarmupSeconds
	}
	if c.Device.ShutdownPresses <= 0 {
		c.Device.ShutdownPresses = defaultShutdownPresses
	}
}

func (c *Config) normalizeProviders() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = defaultOpenAIMaxTokens
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultProviderTimeout
	}

	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	c.Gemini.BaseURL = strings.TrimSpace(c.Gemini.BaseURL)
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultProviderTimeout
	}

	c.Query.Model = strings.TrimSpace(c.Query.Model)
	if c.Query.Model == "" {
		c.Query.Model = c.OpenAI.Model
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
