// Package logging wraps log/slog with the attribute helpers and handlers
// shared across uplink components.
package logging
