package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool     = errors.New("external tool error")
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
	ErrTransient        = errors.New("transient failure")
	ErrDownload         = errors.New("download failed")
	ErrDecode           = errors.New("decode failed")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrEmptySelection   = errors.New("empty selection")
	ErrEncoding         = errors.New("encoding failed")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether a failure leaves the session able to continue
// from its previous state. An empty selection or a bad toggle sends the user
// back to picking frames instead of failing the session.
func Recoverable(err error) bool {
	return errors.Is(err, ErrEmptySelection) || errors.Is(err, ErrUnknownCandidate)
}

// Hint returns a short next-step suggestion for an error, used in log lines and
// CLI output.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrDownload):
		return "check the URL and that yt-dlp is installed and up to date"
	case errors.Is(err, ErrDecode):
		return "check that ffmpeg can read the downloaded file"
	case errors.Is(err, ErrEmptySelection):
		return "select at least one frame before exporting"
	case errors.Is(err, ErrUnknownCandidate):
		return "list candidates to see valid indices"
	case errors.Is(err, ErrEncoding):
		return "retry the export; check free space in the archive directory"
	case errors.Is(err, ErrConfiguration):
		return "run 'ytframes config validate'"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
