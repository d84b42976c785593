// Package workflow drives extraction sessions through their lifecycle.
//
// Pipeline.Run downloads the source video, samples and filters frames, stores
// accepted frames and thumbnails under the session work directory, and leaves
// the session awaiting selection. Selection mutations are serialized per
// session; Export builds the archive, optionally uploads it, and finishes the
// session.
//
// Every stage logs through a per-session JSON log file in addition to the
// process logger, and reports to the metrics and notification collaborators
// when they are configured.
package workflow
