package download

import (
	"context"
	"fmt"
	"strings"

	"ytframes/internal/services"
)

// Video is a downloaded source video.
type Video struct {
	Path     string
	Title    string
	ID       string
	Duration float64
}

// Resolver fetches url into dir and returns the local file.
type Resolver interface {
	Resolve(ctx context.Context, url, dir string) (Video, error)
}

// DownloadError reports a failed resolution. It matches services.ErrDownload.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = strings.TrimSpace(e.Err.Error())
	}
	return fmt.Sprintf("download %s: %s", e.URL, msg)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Is matches services.ErrDownload.
func (e *DownloadError) Is(target error) bool { return target == services.ErrDownload }

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, url, dir string) (Video, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, url, dir string) (Video, error) {
	return f(ctx, url, dir)
}
