package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains bind address and storage configuration for the content server.
type Server struct {
	Bind         string `toml:"bind"`
	DatabasePath string `toml:"database_path"`
	Debug        bool   `toml:"debug"`
}

// Device contains configuration for the camera device daemon.
type Device struct {
	ContentServerURL string `toml:"content_server_url"`
	DefaultDeviceID  string `toml:"default_device_id"`
	Interface        string `toml:"interface"`
	CameraIndex      int    `toml:"camera_index"`
	CameraTempPath   string `toml:"camera_temp_path"`
	WarmupSeconds    int    `toml:"warmup_seconds"`
	ShutdownPresses  int    `toml:"shutdown_presses"`
	LockDir          string `toml:"lock_dir"`
}

// GPIO contains sysfs pin assignments for buttons and status LEDs.
type GPIO struct {
	CaptureButton  int `toml:"capture_button"`
	GeminiButton   int `toml:"gemini_button"`
	ShutdownButton int `toml:"shutdown_button"`
	LED1           int `toml:"led_1"`
	LED2           int `toml:"led_2"`
}

// OpenAI contains credentials and model selection for the OpenAI vision provider.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Gemini contains credentials and model selection for the Gemini vision provider.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Query contains settings for the natural-language query engine.
type Query struct {
	Model string `toml:"model"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Captures       bool   `toml:"captures"`
	Errors         bool   `toml:"errors"`
	Shutdown       bool   `toml:"shutdown"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for mnemosyne.
//
// Configuration sections by subsystem:
//   - Server: HTTP bind address and SQLite database location
//   - Device: camera daemon upload target and capture settings
//   - GPIO: button and LED pin assignments (sysfs numbering)
//   - OpenAI / Gemini: vision provider credentials and models
//   - Query: chat model used to answer questions over stored scenes
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and output directory
type Config struct {
	Server        Server        `toml:"server"`
	Device        Device        `toml:"device"`
	GPIO          GPIO          `toml:"gpio"`
	OpenAI        OpenAI        `toml:"openai"`
	Gemini        Gemini        `toml:"gemini"`
	Query         Query         `toml:"query"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mnemosyne/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mnemosyne.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemons need at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Server.DatabasePath),
		c.Logging.Dir,
		c.Device.LockDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
