// Package config loads, normalizes, and validates peaceproc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads an optional .env file and TOML files, and honours the
// provider environment fallbacks (TEXT_API_KEY, DASHSCOPE_API_KEY,
// TTS_API_KEY, TTS_GROUP_ID, OUTPUT_DIR, ...). The Config type centralizes
// every knob the service daemon and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
