package logging

import (
	"context"
	"log/slog"
)

// Attr aliases slog.Attr so callers can build structured fields without
// importing log/slog directly.
type Attr = slog.Attr

// Common field keys used across packages.
const (
	FieldComponent = "component"
	FieldDeviceID  = "device_id"
	FieldRequestID = "request_id"
	FieldContentID = "content_id"
	FieldProvider  = "provider"
	FieldEndpoint  = "endpoint"
	FieldError     = "error"
)

// String builds a string attribute.
func String(key, value string) Attr { return slog.String(key, value) }

// Int builds an int attribute.
func Int(key string, value int) Attr { return slog.Int(key, value) }

// Int64 builds an int64 attribute.
func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

// Bool builds a bool attribute.
func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

// Error builds an error attribute, tolerating nil errors.
func Error(err error) Attr {
	if err == nil {
		return slog.String(FieldError, "<nil>")
	}
	return slog.Any(FieldError, err)
}

// Any builds an attribute from an arbitrary value.
func Any(key string, value any) Attr { return slog.Any(key, value) }

// Group builds a grouped attribute.
func Group(key string, attrs ...Attr) Attr {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return slog.Group(key, args...)
}

// Args converts attributes to the variadic any form slog methods accept.
func Args(attrs ...Attr) []any {
	out := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	return out
}

// NewComponentLogger returns a child logger tagged with a component name.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards every record. Useful in tests and as a safe default.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h NoopHandler) WithGroup(string) slog.Handler           { return h }

// NewNop returns a logger that discards all output.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}
