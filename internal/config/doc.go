// Package config loads, normalizes, and validates ytframes configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YTFRAMES_TRIGGER_WORD and YTFRAMES_NTFY_TOPIC. Sampling thresholds, the
// trigger word, and the archive format all flow from here into the pipeline.
package config
