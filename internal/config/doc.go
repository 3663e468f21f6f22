// Package config loads, normalizes, and validates the TOML configuration
// for the bidsbuild pipeline. All path fields are expanded to absolute
// paths at load time so downstream packages never deal with ~ or relative
// segments.
package config
