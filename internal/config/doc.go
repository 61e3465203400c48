// Package config loads, validates, and normalizes the TOML configuration
// shared by the mnemosyne server, camera device, and CLI.
//
// It owns default values, path expansion, and the embedded sample config used
// by `mnemosyne config init`. Sections map one-to-one onto subsystems: server
// bind and database location, device capture settings, GPIO pin assignments,
// vision provider credentials, query model selection, notifications, and
// logging output.
//
// Prefer Load over hand-parsing so every binary agrees on defaults and
// validation rules.
package config
