package config

const (
	defaultServerBind          = "0.0.0.0:5000"
	defaultDatabasePath        = "~/.local/share/mnemosyne/content.db"
	defaultLogDir              = "~/.local/share/mnemosyne/logs"
	defaultLockDir             = "~/.local/share/mnemosyne"
	defaultContentServerURL    = "http://localhost:5000/add_content"
	defaultDeviceID            = "Unknown"
	defaultDeviceInterface     = "wlan0"
	defaultCameraTempPath      = "/tmp/mnemosyne-capture.jpg"
	defaultWarmupSeconds       = 1
	defaultShutdownPresses     = 3
	defaultOpenAIModel         = "gpt-4o"
	defaultOpenAIMaxTokens     = 300
	defaultGeminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel         = "gemini-pro-vision"
	defaultProviderTimeout     = 60
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultCaptureButtonPin    = 3
	defaultGeminiButtonPin     = 26
	defaultShutdownButtonPin   = 5
	defaultLED1Pin             = 12
	defaultLED2Pin             = 18
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:         defaultServerBind,
			DatabasePath: defaultDatabasePath,
		},
		Device: Device{
			ContentServerURL: defaultContentServerURL,
			DefaultDeviceID:  defaultDeviceID,
			Interface:        defaultDeviceInterface,
			CameraIndex:      0,
			CameraTempPath:   defaultCameraTempPath,
			WarmupSeconds:    defaultWarmupSeconds,
			ShutdownPresses:  defaultShutdownPresses,
			LockDir:          defaultLockDir,
		},
		GPIO: GPIO{
			CaptureButton:  defaultCaptureButtonPin,
			GeminiButton:   defaultGeminiButtonPin,
			ShutdownButton: defaultShutdownButtonPin,
			LED1:           defaultLED1Pin,
			LED2:           defaultLED2Pin,
		},
		OpenAI: OpenAI{
			Model:          defaultOpenAIModel,
			MaxTokens:      defaultOpenAIMaxTokens,
			TimeoutSeconds: defaultProviderTimeout,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultProviderTimeout,
		},
		Query: Query{
			Model: defaultOpenAIModel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Captures:       true,
			Errors:         true,
			Shutdown:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
