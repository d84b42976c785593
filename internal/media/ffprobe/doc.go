// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; VideoInfo reduces it to the
// frame rate, frame count, dimensions, and duration the sampler needs.
package ffprobe
