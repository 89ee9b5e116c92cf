// Package config loads, normalizes, and validates cmdsock configuration data.
//
// It supplies defaults that match the daemon's compiled-in constants (socket
// path, listen backlog, socket mode), expands user paths including tilde
// shortcuts, and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need so the socket path, state directory, and logging
// settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
