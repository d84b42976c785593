package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"ytframes/internal/config"
	"ytframes/internal/download"
	"ytframes/internal/logging"
	"ytframes/internal/metrics"
	"ytframes/internal/notifications"
	"ytframes/internal/sampler"
	"ytframes/internal/session"
)

// ErrNotSelectable is returned when a selection or export request targets a
// session that is not awaiting selection.
var ErrNotSelectable = errors.New("session is not awaiting selection")

// Opener turns a local video path into a sampler handle.
type Opener func(ctx context.Context, path string) (*sampler.Handle, error)

// Uploader publishes a finished archive and returns where it can be fetched.
type Uploader interface {
	UploadArchive(ctx context.Context, archivePath string) (string, error)
}

// Pipeline coordinates one store with the download, sampling, and archive
// collaborators.
type Pipeline struct {
	cfg      *config.Config
	store    *session.Store
	logger   *slog.Logger
	resolver download.Resolver
	open     Opener
	notifier notifications.Service
	metrics  *metrics.Metrics
	uploader Uploader
	logs     *SessionLogs

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	wg    sync.WaitGroup
}

// Option configures optional Pipeline collaborators.
type Option func(*Pipeline)

// WithResolver replaces the yt-dlp resolver.
func WithResolver(r download.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithOpener replaces the ffmpeg-backed decoder.
func WithOpener(open Opener) Option {
	return func(p *Pipeline) { p.open = open }
}

// WithNotifier replaces the notification service built from config.
func WithNotifier(n notifications.Service) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithUploader uploads archives after export.
func WithUploader(u Uploader) Option {
	return func(p *Pipeline) { p.uploader = u }
}

// New constructs a pipeline. Collaborators default to yt-dlp, ffmpeg, and the
// ntfy service described by cfg.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "workflow"),
		logs:   NewSessionLogs(cfg),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolver == nil {
		p.resolver = download.NewYTDLP(cfg, logger)
	}
	if p.open == nil {
		p.open = p.openFFmpeg
	}
	if p.notifier == nil {
		p.notifier = notifications.NewService(cfg)
	}
	return p
}

// Store returns the session store backing the pipeline.
func (p *Pipeline) Store() *session.Store {
	return p.store
}

// LogPath returns the JSON log file of a session, or "" when logging to files
// is disabled.
func (p *Pipeline) LogPath(id string) string {
	return p.logs.Path(id)
}

// Wait blocks until every session started with Go has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) openFFmpeg(ctx context.Context, path string) (*sampler.Handle, error) {
	return sampler.OpenFFmpeg(ctx, sampler.Options{
		FFmpeg:  p.cfg.Sampling.FFmpegBinary,
		FFprobe: p.cfg.Sampling.FFprobeBinary,
		Path:    path,
	})
}

// lock serializes mutations of one session.
func (p *Pipeline) lock(id string) func() {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &sync.Mutex{}
		p.locks[id] = l
	}
	p.mu.Unlock()
	l.Lock()
	return l.Unlock
}
