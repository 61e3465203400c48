// Package main hosts the Mnemosyne CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the content server, runs the camera
// device daemon, and talks to a running server over HTTP to list, delete,
// and query stored content. It centralizes configuration resolution and
// server address discovery so subcommands can focus on user experience
// instead of wiring.
package main
