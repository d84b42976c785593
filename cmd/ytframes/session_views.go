package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"ytframes/internal/session"
)

const shortIDLength = 8

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

// writeSessionDetail prints the key fields of sess as aligned lines.
func writeSessionDetail(w io.Writer, sess *session.Session, colorize bool) {
	writeLines(w, renderSectionHeader("Session "+shortID(sess.ID), colorize))
	fields := [][2]string{
		{"ID", sess.ID},
		{"URL", sess.URL},
		{"Title", sess.Title},
		{"Status", sess.Status.Label()},
		{"Trigger word", sess.TriggerWord},
		{"Dataset", sess.DatasetName},
		{"Sampling", samplingDescription(sess)},
		{"Brightness", fmt.Sprintf("%.0f < luma < %.0f", sess.MinBrightness, sess.MaxBrightness)},
		{"Frames", fmt.Sprintf("%d sampled, %d kept, %d rejected", sess.SampledCount, sess.AcceptedCount(), sess.RejectedCount)},
		{"Archive", sess.ArchivePath},
		{"Archive URL", sess.ArchiveURL},
		{"Updated", humanize.Time(sess.UpdatedAt)},
	}
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			continue
		}
		fmt.Fprintf(w, "%s%-*s %s\n", statusIndent, statusLabelWidth, f[0]+":", f[1])
	}
	if sess.Warning != "" {
		fmt.Fprintln(w, renderStatusLine("Warning", statusWarn, sess.Warning, colorize))
	}
	if sess.ErrorMessage != "" {
		fmt.Fprintln(w, renderStatusLine("Error", statusError, sess.ErrorMessage, colorize))
	}
}

func samplingDescription(sess *session.Session) string {
	if sess.FrameStep > 0 {
		return fmt.Sprintf("every %d frames", sess.FrameStep)
	}
	return fmt.Sprintf("every %gs", sess.IntervalSeconds)
}

// archiveSize returns a human readable size of path, or "" if it is missing.
func archiveSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return humanize.IBytes(uint64(info.Size()))
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
