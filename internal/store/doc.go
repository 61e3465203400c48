// Package store persists captured content in SQLite. Each row carries the
// base64 encoded JPEG, its description, the capture timestamp, and the
// identifier of the device that produced it.
package store
