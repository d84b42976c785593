package session

import (
	"strings"
	"time"
)

// Session is one URL-to-archive extraction.
type Session struct {
	ID              string
	URL             string
	Title           string
	VideoPath       string
	WorkDir         string
	Status          Status
	TriggerWord     string
	DatasetName     string
	IntervalSeconds float64
	FrameStep       int
	MinBrightness   float64
	MaxBrightness   float64
	SampledCount    int
	RejectedCount   int
	Warning         string
	ErrorMessage    string
	ArchivePath     string
	ArchiveURL      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetFailed records the failure message. Callers persist it with
// Store.Transition(ctx, s, StatusFailed).
func (s *Session) SetFailed(message string) {
	s.ErrorMessage = strings.TrimSpace(message)
}

// AcceptedCount is the number of sampled frames that passed the filter.
func (s *Session) AcceptedCount() int {
	if n := s.SampledCount - s.RejectedCount; n > 0 {
		return n
	}
	return 0
}

// Frame is a persisted accepted candidate.
type Frame struct {
	SessionID  string
	Index      int
	Timestamp  float64
	Brightness float64
	FramePath  string
	ThumbPath  string
	Selected   bool
}

// HealthSummary counts sessions per lifecycle group.
type HealthSummary struct {
	Total             int
	Working           int
	AwaitingSelection int
	Done              int
	Failed            int
}
