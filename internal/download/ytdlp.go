package download

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ytframes/internal/config"
	"ytframes/internal/logging"
)

// DefaultFormat prefers a single mp4 file so ffmpeg never needs to merge.
const DefaultFormat = "best[ext=mp4]/best"

// YTDLP resolves URLs with the yt-dlp command line tool.
type YTDLP struct {
	Binary  string
	Format  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewYTDLP builds a resolver from the download section of cfg.
func NewYTDLP(cfg *config.Config, logger *slog.Logger) *YTDLP {
	y := &YTDLP{Logger: logger}
	if cfg != nil {
		y.Binary = cfg.Download.Binary
		y.Format = cfg.Download.Format
		if cfg.Download.TimeoutSeconds > 0 {
			y.Timeout = time.Duration(cfg.Download.TimeoutSeconds) * time.Second
		}
	}
	return y
}

// Args returns the yt-dlp arguments used to fetch rawURL into dir.
func (y *YTDLP) Args(rawURL, dir string) []string {
	format := strings.TrimSpace(y.Format)
	if format == "" {
		format = DefaultFormat
	}
	return []string{
		"--no-playlist",
		"--no-check-certificate",
		"--no-progress",
		"-f", format,
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		"--print", "after_move:filepath",
		"--print", "title",
		"--print", "id",
		"--print", "duration",
		"--no-simulate",
		rawURL,
	}
}

// Resolve downloads rawURL into dir.
func (y *YTDLP) Resolve(ctx context.Context, rawURL, dir string) (Video, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return Video{}, &DownloadError{URL: rawURL, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Video{}, &DownloadError{URL: rawURL, Err: fmt.Errorf("create download dir: %w", err)}
	}

	runCtx := ctx
	if y.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, y.Timeout)
		defer cancel()
	}

	binary := strings.TrimSpace(y.Binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	logger := logging.NewComponentLogger(y.Logger, "download")
	logger.Info("downloading video",
		logging.String(logging.FieldEventType, "download_start"),
		logging.String("url", rawURL),
		logging.String("dir", dir),
	)
	started := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, binary, y.Args(rawURL, dir)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			err = ctxErr
		} else if msg := lastLine(stderr.String()); msg != "" {
			err = fmt.Errorf("%s: %w", msg, err)
		}
		return Video{}, &DownloadError{URL: rawURL, Err: err}
	}

	video, err := parseOutput(stdout.String())
	if err != nil {
		return Video{}, &DownloadError{URL: rawURL, Err: err}
	}
	if !filepath.IsAbs(video.Path) {
		video.Path = filepath.Join(dir, video.Path)
	}
	info, err := os.Stat(video.Path)
	if err != nil {
		return Video{}, &DownloadError{URL: rawURL, Err: fmt.Errorf("downloaded file missing: %w", err)}
	}
	if info.Size() == 0 {
		return Video{}, &DownloadError{URL: rawURL, Err: fmt.Errorf("downloaded file %s is empty", video.Path)}
	}

	logger.Info("video downloaded",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("title", video.Title),
		logging.String("path", video.Path),
		logging.Int64("size_bytes", info.Size()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return video, nil
}

// parseOutput reads the four --print lines: filepath, title, id, duration.
func parseOutput(out string) (Video, error) {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 4 {
		return Video{}, fmt.Errorf("unexpected yt-dlp output: %q", strings.TrimSpace(out))
	}
	// Keep the last record in case yt-dlp printed warnings first.
	lines = lines[len(lines)-4:]
	video := Video{Path: lines[0], Title: lines[1], ID: lines[2]}
	if d, err := strconv.ParseFloat(lines[3], 64); err == nil && d > 0 {
		video.Duration = d
	}
	if video.Path == "" || video.Path == "NA" {
		return Video{}, errors.New("yt-dlp did not report an output file")
	}
	return video, nil
}

// ValidateURL reports whether raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
