// Package config loads, validates, and normalizes the slugline TOML
// configuration. Defaults cover a working local setup; Load layers the
// config file on top, expands paths, and validates the result so the rest
// of the codebase never sees a partially-populated Config.
package config
