// Package notifications delivers workflow events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// workflow code can publish unconditionally. Unknown events are dropped.
package notifications
