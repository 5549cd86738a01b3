// Package config loads, normalizes, and validates enchant configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the ENCHANT_REPO environment
// override. Always obtain settings through this package so downstream code
// receives absolute paths, canonical log formats, and clear validation errors.
package config
