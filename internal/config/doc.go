// Package config loads, normalizes, and validates cutout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours a working-directory .env file plus
// environment fallbacks such as CUTOUT_TRANSFORM_ENDPOINT. The Config type
// centralizes every knob the daemon and CLI need so state, log, and output
// directories and the transform engine are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
