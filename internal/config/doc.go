// Package config loads, normalizes, and validates gramline configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// INSTAGRAM_USERNAME and OPENAI_API_KEY so secrets can stay out of config
// files. The Config type centralizes every knob the CLI and dashboard need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
