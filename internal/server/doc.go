// Package server exposes the content store over HTTP. It accepts uploads from
// capture devices, enriches descriptions through a vision provider when the
// device sent none, and serves the management and query pages.
package server
