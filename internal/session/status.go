package session

import (
	"fmt"
	"strings"

	"ytframes/internal/textutil"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle              Status = "idle"
	StatusDownloading       Status = "downloading"
	StatusSampling          Status = "sampling"
	StatusAwaitingSelection Status = "awaiting_selection"
	StatusBuilding          Status = "building"
	StatusDone              Status = "done"
	StatusFailed            Status = "failed"
)

var allStatuses = []Status{
	StatusIdle,
	StatusDownloading,
	StatusSampling,
	StatusAwaitingSelection,
	StatusBuilding,
	StatusDone,
	StatusFailed,
}

var transitions = map[Status][]Status{
	StatusIdle:              {StatusDownloading},
	StatusDownloading:       {StatusSampling, StatusFailed},
	StatusSampling:          {StatusAwaitingSelection, StatusFailed},
	StatusAwaitingSelection: {StatusBuilding},
	StatusBuilding:          {StatusDone, StatusFailed},
}

var workingStatuses = map[Status]struct{}{
	StatusDownloading: {},
	StatusSampling:    {},
	StatusBuilding:    {},
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus converts a user supplied status name.
func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_"))
	for _, status := range allStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown session status %q", value)
}

// Label returns a human readable status name.
func (s Status) Label() string {
	return textutil.Title(string(s))
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Working reports whether a pipeline stage is running for s.
func (s Status) Working() bool {
	_, ok := workingStatuses[s]
	return ok
}
