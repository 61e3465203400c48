// Package camera acquires still frames from a local video device. The webcam
// handle is opened lazily on first use and discarded after any failure so the
// next capture reinitializes from scratch.
package camera
