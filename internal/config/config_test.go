package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mnemosyne/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDB := filepath.Join(tempHome, ".local", "share", "mnemosyne", "content.db")
	if cfg.Server.DatabasePath != wantDB {
		t.Fatalf("unexpected database path: got %q want %q", cfg.Server.DatabasePath, wantDB)
	}
	if cfg.Server.Bind != "0.0.0.0:5000" {
		t.Fatalf("unexpected server bind: %q", cfg.Server.Bind)
	}
	if cfg.Device.ShutdownPresses != 3 {
		t.Fatalf("unexpected shutdown presses: %d", cfg.Device.ShutdownPresses)
	}
	if cfg.Device.DefaultDeviceID != "Unknown" {
		t.Fatalf("unexpected default device id: %q", cfg.Device.DefaultDeviceID)
	}
	if cfg.Gemini.Model != "gemini-pro-vision" {
		t.Fatalf("unexpected gemini model: %q", cfg.Gemini.Model)
	}
	if cfg.Query.Model != cfg.OpenAI.Model {
		t.Fatalf("expected query model to default to openai model, got %q", cfg.Query.Model)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(cfg.Server.DatabasePath)); err != nil {
		t.Fatalf("database directory not created: %v", err)
	}
}

func TestLoadParsesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[server]
bind = "127.0.0.1:9100"

[device]
content_server_url = "http://memoryhost:9100/add_content"
shutdown_presses = 5

[openai]
api_key = "sk-test"
model = "gpt-4o-mini"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config file to be found, exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Server.Bind != "127.0.0.1:9100" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Device.ContentServerURL != "http://memoryhost:9100/add_content" {
		t.Fatalf("unexpected content server url: %q", cfg.Device.ContentServerURL)
	}
	if cfg.Device.ShutdownPresses != 5 {
		t.Fatalf("unexpected shutdown presses: %d", cfg.Device.ShutdownPresses)
	}
	if cfg.Query.Model != "gpt-4o-mini" {
		t.Fatalf("expected query model to follow openai model, got %q", cfg.Query.Model)
	}
}

func TestValidateRejectsDuplicateGPIOPins(t *testing.T) {
	cfg := config.Default()
	cfg.GPIO.CaptureButton = 7
	cfg.GPIO.ShutdownButton = 7
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected duplicate pin validation error")
	}
	if !strings.Contains(err.Error(), "share pin") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected logging format validation error")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[server]") {
		t.Fatal("sample config missing [server] section")
	}
}
