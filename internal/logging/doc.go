// Package logging assembles structured slog loggers and formatting helpers
// used across mnemosyne binaries.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attr helpers so device and server code tag log lines
// with the same keys. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
