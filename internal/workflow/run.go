package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytframes/internal/config"
	"ytframes/internal/download"
	"ytframes/internal/filter"
	"ytframes/internal/frames"
	"ytframes/internal/logging"
	"ytframes/internal/notifications"
	"ytframes/internal/sampler"
	"ytframes/internal/services"
	"ytframes/internal/session"
	"ytframes/internal/textutil"
)

// StartOptions override config defaults for one session. Zero values fall
// back to the config.
type StartOptions struct {
	TriggerWord     string
	DatasetName     string
	IntervalSeconds float64
	FrameStep       int
	Progress        ProgressFunc
}

// Create records a new idle session for url.
func (p *Pipeline) Create(ctx context.Context, url string, opts StartOptions) (*session.Session, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "create", "url is required", nil)
	}
	if err := download.ValidateURL(url); err != nil {
		return nil, services.Wrap(services.ErrValidation, "session", "create", url, err)
	}
	sampling := p.cfg.Sampling
	if err := config.ValidateBrightness(sampling.MinBrightness, sampling.MaxBrightness); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "create", "brightness bounds", err)
	}
	sess := &session.Session{
		URL:             url,
		TriggerWord:     p.cfg.Archive.TriggerWord,
		DatasetName:     p.cfg.Archive.DatasetName,
		IntervalSeconds: sampling.IntervalSeconds,
		FrameStep:       sampling.FrameStep,
		MinBrightness:   sampling.MinBrightness,
		MaxBrightness:   sampling.MaxBrightness,
	}
	if opts.TriggerWord != "" {
		sess.TriggerWord = textutil.NormalizeTriggerWord(opts.TriggerWord)
	}
	if opts.DatasetName != "" {
		sess.DatasetName = textutil.SanitizeFileName(opts.DatasetName)
	}
	if opts.IntervalSeconds != 0 {
		if opts.IntervalSeconds < 0 || math.IsNaN(opts.IntervalSeconds) || math.IsInf(opts.IntervalSeconds, 0) {
			return nil, services.Wrap(services.ErrValidation, "session", "create", fmt.Sprintf("interval must be a finite number greater than 0, got %v", opts.IntervalSeconds), nil)
		}
		sess.IntervalSeconds = opts.IntervalSeconds
		sess.FrameStep = 0
	}
	if opts.FrameStep > 0 {
		sess.FrameStep = opts.FrameStep
	}
	if err := p.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	sess.WorkDir = filepath.Join(p.cfg.Paths.StagingDir, sess.ID)
	if err := p.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	p.logger.Info("session created",
		logging.String(logging.FieldEventType, "session_created"),
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String("url", sess.URL),
	)
	return sess, nil
}

// Start creates a session for url and runs it until it awaits selection or
// fails.
func (p *Pipeline) Start(ctx context.Context, url string, opts StartOptions) (*session.Session, error) {
	sess, err := p.Create(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	return sess, p.Run(ctx, sess, opts.Progress)
}

// Go runs sess in the background. Wait blocks until it returns.
func (p *Pipeline) Go(ctx context.Context, sess *session.Session, progress ProgressFunc) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Run(ctx, sess, progress)
	}()
}

// Run downloads and samples an idle session. On success the session awaits
// selection; on failure it is persisted as failed and the error returned.
func (p *Pipeline) Run(ctx context.Context, sess *session.Session, progress ProgressFunc) error {
	unlock := p.lock(sess.ID)
	defer unlock()

	logger, closer, err := p.logs.Logger(p.logger, sess)
	if err != nil {
		logging.WarnWithContext(p.logger, "session log unavailable", "session_log_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "session events only appear in the main log"),
		)
	}
	defer closer.Close()

	ctx = services.WithSessionID(ctx, sess.ID)
	p.metrics.Active(1)
	defer p.metrics.Active(-1)

	if err := p.download(services.WithStage(ctx, "download"), logger, sess); err != nil {
		return p.fail(ctx, logger, sess, "download", err)
	}
	if err := p.sample(services.WithStage(ctx, "sampling"), logger, sess, progress); err != nil {
		return p.fail(ctx, logger, sess, "sampling", err)
	}
	return nil
}

func (p *Pipeline) download(ctx context.Context, logger *slog.Logger, sess *session.Session) error {
	if err := p.store.Transition(ctx, sess, session.StatusDownloading); err != nil {
		return err
	}
	started := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String(logging.FieldStage, "download"),
		logging.String("url", sess.URL),
	)

	video, err := p.resolver.Resolve(ctx, sess.URL, filepath.Join(sess.WorkDir, "source"))
	if err != nil {
		var dlErr *download.DownloadError
		if !errors.As(err, &dlErr) {
			err = &download.DownloadError{URL: sess.URL, Err: err}
		}
		return err
	}
	sess.VideoPath = video.Path
	sess.Title = strings.TrimSpace(video.Title)
	if sess.Title == "" {
		sess.Title = sess.URL
	}
	p.metrics.ObserveStage("download", started)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String(logging.FieldStage, "download"),
		logging.String("title", sess.Title),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

func (p *Pipeline) sample(ctx context.Context, logger *slog.Logger, sess *session.Session, progress ProgressFunc) error {
	if err := p.store.Transition(ctx, sess, session.StatusSampling); err != nil {
		return err
	}
	defer p.removeVideo(logger, sess)
	started := time.Now()

	h, err := p.open(ctx, sess.VideoPath)
	if err != nil {
		return err
	}
	info := h.Info()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String(logging.FieldStage, "sampling"),
		logging.Float64("frame_rate", info.FrameRate),
		logging.Int64("frame_count", info.FrameCount),
		logging.Float64("interval_seconds", sess.IntervalSeconds),
		logging.Int("frame_step", sess.FrameStep),
	)

	seq := sampler.Sample(ctx, h, sess.IntervalSeconds)
	if sess.FrameStep > 0 {
		seq = sampler.SampleEvery(ctx, h, sess.FrameStep)
	}
	flt := filter.Filter{Min: sess.MinBrightness, Max: sess.MaxBrightness, Stride: p.cfg.Sampling.LumaStride}

	accepted := 0
	var sampleErr error
	for c, err := range seq {
		if err != nil {
			sampleErr = err
			break
		}
		c.Accepted, c.Brightness = flt.Classify(c.Image)
		sess.SampledCount++
		p.metrics.Frame(c.Accepted)
		if c.Accepted {
			if err := p.persistCandidate(ctx, sess, c); err != nil {
				sampleErr = err
				break
			}
			accepted++
		} else {
			sess.RejectedCount++
			logger.Debug("frame rejected",
				logging.String(logging.FieldEventType, "frame_rejected"),
				logging.Int("index", c.Index),
				logging.Float64("brightness", c.Brightness),
			)
		}
		if progress != nil {
			progress(Progress{
				Stage:     "sampling",
				Sampled:   sess.SampledCount,
				Accepted:  accepted,
				Rejected:  sess.RejectedCount,
				Timestamp: c.Timestamp,
				Duration:  info.Duration.Seconds(),
			})
		}
	}

	if sampleErr != nil {
		if !errors.Is(sampleErr, services.ErrDecode) || accepted == 0 || ctx.Err() != nil {
			return sampleErr
		}
		sess.Warning = fmt.Sprintf("sampling stopped early after %d frames: %v", sess.SampledCount, sampleErr)
		logging.WarnWithContext(logger, "sampling stopped early", "sampling_partial",
			logging.Error(sampleErr),
			logging.Int("accepted", accepted),
			logging.String(logging.FieldErrorHint, services.Hint(sampleErr)),
			logging.String(logging.FieldImpact, "frames after the failure point are missing"),
		)
	} else if accepted == 0 {
		sess.Warning = "no sampled frame passed the brightness filter"
	}

	if p.cfg.Archive.Preselect && accepted > 0 {
		set, err := p.store.LoadSelection(ctx, sess.ID)
		if err != nil {
			return err
		}
		set.SelectAll()
		if err := p.store.SaveSelection(ctx, sess.ID, set); err != nil {
			return err
		}
	}

	if err := p.store.Transition(ctx, sess, session.StatusAwaitingSelection); err != nil {
		return err
	}
	p.metrics.ObserveStage("sampling", started)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String(logging.FieldStage, "sampling"),
		logging.Int("sampled", sess.SampledCount),
		logging.Int("accepted", accepted),
		logging.Int("rejected", sess.RejectedCount),
		logging.Duration("stage_duration", time.Since(started)),
	)
	p.publish(ctx, logger, notifications.EventSelectionReady, notifications.Payload{
		"title":      sess.Title,
		"frameCount": accepted,
	})
	return nil
}

func (p *Pipeline) persistCandidate(ctx context.Context, sess *session.Session, c frames.Candidate) error {
	frame := session.Frame{
		SessionID:  sess.ID,
		Index:      c.Index,
		Timestamp:  c.Timestamp,
		Brightness: c.Brightness,
		FramePath:  framePath(sess.WorkDir, c.Index),
		ThumbPath:  thumbPath(sess.WorkDir, c.Index),
	}
	if c.Bounds().Empty() {
		return services.Wrap(services.ErrEncoding, "sampling", "store frame", fmt.Sprintf("frame %d has no pixels", c.Index), nil)
	}
	if err := writeFrame(frame.FramePath, c.Image); err != nil {
		return services.Wrap(services.ErrEncoding, "sampling", "store frame", fmt.Sprintf("frame %d", c.Index), err)
	}
	if err := writeThumbnail(frame.ThumbPath, c.Image, p.cfg.Sampling.ThumbnailWidth); err != nil {
		return services.Wrap(services.ErrEncoding, "sampling", "store thumbnail", fmt.Sprintf("frame %d", c.Index), err)
	}
	return p.store.AddCandidate(ctx, frame)
}

func (p *Pipeline) removeVideo(logger *slog.Logger, sess *session.Session) {
	if p.cfg.Download.KeepVideo || sess.VideoPath == "" {
		return
	}
	if err := os.Remove(sess.VideoPath); err != nil && !os.IsNotExist(err) {
		logging.WarnWithContext(logger, "failed to remove source video", "cleanup_failed",
			logging.Error(err),
			logging.String("path", sess.VideoPath),
			logging.String(logging.FieldErrorHint, "remove the file manually"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
		return
	}
	logger.Debug("source video removed", logging.String("path", sess.VideoPath))
}
