// Package config loads, normalizes, and validates omnisync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OMNISYNC_DETECTOR_URL and OMNISYNC_PREDICTOR_URL. The Config type
// centralizes every knob the pipeline and CLI need so audio parameters,
// capability endpoints, and output settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
