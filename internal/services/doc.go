// Package services defines shared utilities consumed by the extraction
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, and correlation
//     identifiers for logging.
//   - Sentinel error markers plus the Wrap helper that translate failures
//     into consistent session statuses and user-facing hints.
//
// Domain error types (download, decode, selection, archive) match these
// markers through errors.Is so callers never need to import every package to
// classify a failure.
package services
