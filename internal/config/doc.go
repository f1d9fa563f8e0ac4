// Package config loads, validates, and defaults the TOML configuration for
// uplink.
package config
