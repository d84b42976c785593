package api

import (
	"fmt"
	"net/url"
	"time"

	"ytframes/internal/session"
	"ytframes/internal/workflow"
)

// FromSession converts a session record to its API representation.
func FromSession(sess *session.Session) Session {
	if sess == nil {
		return Session{}
	}
	return Session{
		ID:              sess.ID,
		URL:             sess.URL,
		Title:           sess.Title,
		Status:          string(sess.Status),
		StatusLabel:     sess.Status.Label(),
		TriggerWord:     sess.TriggerWord,
		DatasetName:     sess.DatasetName,
		IntervalSeconds: sess.IntervalSeconds,
		FrameStep:       sess.FrameStep,
		MinBrightness:   sess.MinBrightness,
		MaxBrightness:   sess.MaxBrightness,
		SampledCount:    sess.SampledCount,
		AcceptedCount:   sess.AcceptedCount(),
		RejectedCount:   sess.RejectedCount,
		Warning:         sess.Warning,
		ErrorMessage:    sess.ErrorMessage,
		ArchivePath:     sess.ArchivePath,
		ArchiveURL:      sess.ArchiveURL,
		CreatedAt:       formatTime(sess.CreatedAt),
		UpdatedAt:       formatTime(sess.UpdatedAt),
	}
}

// FromSessions converts a slice of session records. The result is never nil.
func FromSessions(sessions []*session.Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, FromSession(sess))
	}
	return out
}

// FromFrames converts stored candidate rows into grid entries.
func FromFrames(sessionID string, rows []session.Frame) []Candidate {
	out := make([]Candidate, 0, len(rows))
	for _, f := range rows {
		out = append(out, Candidate{
			Index:        f.Index,
			Timestamp:    f.Timestamp,
			Brightness:   f.Brightness,
			Selected:     f.Selected,
			ThumbnailURL: ThumbnailPath(sessionID, f.Index),
		})
	}
	return out
}

// FromStageHealth converts pipeline health records.
func FromStageHealth(stages []workflow.StageHealth) []StageHealth {
	out := make([]StageHealth, 0, len(stages))
	for _, s := range stages {
		out = append(out, StageHealth{Name: s.Name, Ready: s.Ready, Detail: s.Detail})
	}
	return out
}

// ThumbnailPath returns the route serving the thumbnail of a candidate.
func ThumbnailPath(sessionID string, index int) string {
	return fmt.Sprintf("/api/sessions/%s/candidates/%d/thumbnail", url.PathEscape(sessionID), index)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
