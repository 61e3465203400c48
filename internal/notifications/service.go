package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mnemosyne/internal/config"
)

const userAgent = "Mnemosyne/0.1.0"

// Service defines the notification surface exposed to the device and server.
type Service interface {
	NotifyCaptureUploaded(ctx context.Context, deviceID, description string) error
	NotifyCaptureFailed(ctx context.Context, deviceID string, err error) error
	NotifyShutdown(ctx context.Context, deviceID string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		captures: cfg.Notifications.Captures,
		errors:   cfg.Notifications.Errors,
		shutdown: cfg.Notifications.Shutdown,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	captures bool
	errors   bool
	shutdown bool
}

func (n *ntfyService) NotifyCaptureUploaded(ctx context.Context, deviceID, description string) error {
	if !n.captures {
		return nil
	}
	deviceID = strings.TrimSpace(deviceID)
	message := fmt.Sprintf("Capture uploaded from %s", deviceID)
	if description = strings.TrimSpace(description); description != "" {
		message = fmt.Sprintf("%s\n%s", message, description)
	}
	data := payload{
		title:   "Mnemosyne - Capture",
		message: message,
		tags:    []string{"mnemosyne", "capture", "uploaded"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCaptureFailed(ctx context.Context, deviceID string, err error) error {
	if !n.errors {
		return nil
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Mnemosyne - Capture Failed",
		message:  fmt.Sprintf("Capture failed on %s: %s", strings.TrimSpace(deviceID), reason),
		tags:     []string{"mnemosyne", "capture", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyShutdown(ctx context.Context, deviceID string) error {
	if !n.shutdown {
		return nil
	}
	data := payload{
		title:    "Mnemosyne - Shutdown",
		message:  fmt.Sprintf("Device %s is shutting down", strings.TrimSpace(deviceID)),
		tags:     []string{"mnemosyne", "shutdown"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Mnemosyne - Error",
		message:  builder.String(),
		tags:     []string{"mnemosyne", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Mnemosyne - Test",
		message:  "Notification system test",
		tags:     []string{"mnemosyne", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyCaptureUploaded(context.Context, string, string) error { return nil }
func (noopService) NotifyCaptureFailed(context.Context, string, error) error    { return nil }
func (noopService) NotifyShutdown(context.Context, string) error                { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
