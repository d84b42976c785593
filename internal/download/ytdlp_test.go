package download_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"ytframes/internal/download"
	"ytframes/internal/services"
	"ytframes/internal/testsupport"
)

func stubResolver(t *testing.T, body string) *download.YTDLP {
	t.Helper()
	bin := testsupport.WriteScript(t, filepath.Join(t.TempDir(), "yt-dlp"), body)
	return &download.YTDLP{Binary: bin, Timeout: 10 * time.Second}
}

func TestResolveParsesPrintedFields(t *testing.T) {
	dir := t.TempDir()
	y := stubResolver(t, `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
dir=$(dirname "$out")
printf 'data' > "$dir/abc123.mp4"
echo "$dir/abc123.mp4"
echo "Cats and dogs"
echo "abc123"
echo "30.0"
`)
	video, err := y.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc123", dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if video.Path != filepath.Join(dir, "abc123.mp4") || video.Title != "Cats and dogs" || video.ID != "abc123" || video.Duration != 30 {
		t.Fatalf("unexpected video %+v", video)
	}
}

func TestResolveFailureIsDownloadError(t *testing.T) {
	y := stubResolver(t, "echo 'ERROR: Video unavailable' >&2\nexit 1\n")
	_, err := y.Resolve(context.Background(), "https://youtu.be/missing", t.TempDir())
	var dlErr *download.DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if dlErr.URL != "https://youtu.be/missing" {
		t.Fatalf("unexpected url %q", dlErr.URL)
	}
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "Video unavailable") {
		t.Fatalf("expected stderr in message, got %v", err)
	}
}

func TestResolveMissingOutputFile(t *testing.T) {
	dir := t.TempDir()
	y := stubResolver(t, "echo "+filepath.Join(dir, "gone.mp4")+"\necho t\necho id\necho 1\n")
	_, err := y.Resolve(context.Background(), "https://example.com/v", dir)
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error for missing file, got %v", err)
	}
}

func TestResolveEmptyOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	y := stubResolver(t, "echo "+path+"\necho t\necho id\necho NA\n")
	_, err := y.Resolve(context.Background(), "https://example.com/v", dir)
	if !errors.Is(err, services.ErrDownload) || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestResolveRejectsBadURL(t *testing.T) {
	y := &download.YTDLP{Binary: "/nonexistent"}
	for _, raw := range []string{"", "ftp://host/file", "not a url", "https://"} {
		_, err := y.Resolve(context.Background(), raw, t.TempDir())
		if !errors.Is(err, services.ErrDownload) {
			t.Fatalf("%q: expected download error, got %v", raw, err)
		}
	}
}

func TestArgs(t *testing.T) {
	y := &download.YTDLP{Format: "best"}
	args := y.Args("https://youtu.be/x", "/tmp/work")
	for _, want := range []string{"--no-playlist", "--no-check-certificate", "/tmp/work/%(id)s.%(ext)s", "after_move:filepath"} {
		if !slices.Contains(args, want) {
			t.Fatalf("args %v missing %q", args, want)
		}
	}
	if i := slices.Index(args, "-f"); i < 0 || args[i+1] != "best" {
		t.Fatalf("expected format flag, got %v", args)
	}
	if args[len(args)-1] != "https://youtu.be/x" {
		t.Fatalf("url must be last, got %v", args)
	}
}
