package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ytframes/internal/archive"
	"ytframes/internal/frames"
	"ytframes/internal/logging"
	"ytframes/internal/notifications"
	"ytframes/internal/services"
	"ytframes/internal/session"
)

// Export builds the dataset archive of a session awaiting selection. An empty
// selection returns archive.EmptySelectionError and leaves the session
// selectable; any other build failure fails the session.
func (p *Pipeline) Export(ctx context.Context, id string) (*session.Session, error) {
	unlock := p.lock(id)
	defer unlock()

	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusAwaitingSelection {
		return sess, fmt.Errorf("%w (status %s)", ErrNotSelectable, sess.Status)
	}
	rows, err := p.store.Candidates(ctx, id)
	if err != nil {
		return sess, err
	}
	var selected []session.Frame
	for _, f := range rows {
		if f.Selected {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		return sess, archive.EmptySelectionError{}
	}

	logger, closer, err := p.logs.Logger(p.logger, sess)
	if err != nil {
		p.logger.Debug("session log unavailable", logging.Error(err))
	}
	defer closer.Close()
	ctx = services.WithStage(services.WithSessionID(ctx, sess.ID), "building")

	if err := p.store.Transition(ctx, sess, session.StatusBuilding); err != nil {
		return sess, err
	}
	p.metrics.Active(1)
	defer p.metrics.Active(-1)
	started := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String(logging.FieldStage, "building"),
		logging.Int("selected", len(selected)),
	)

	size, err := p.build(ctx, sess, selected)
	if err != nil {
		return sess, p.fail(ctx, logger, sess, "building", err)
	}
	p.upload(ctx, logger, sess)

	if err := p.store.Transition(ctx, sess, session.StatusDone); err != nil {
		return sess, err
	}
	p.metrics.Finished(string(session.StatusDone))
	p.metrics.Archive(size)
	p.metrics.ObserveStage("building", started)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String(logging.FieldStage, "building"),
		logging.String("archive", sess.ArchivePath),
		logging.Int("size_bytes", size),
		logging.Duration("stage_duration", time.Since(started)),
	)
	p.publish(ctx, logger, notifications.EventDatasetReady, notifications.Payload{
		"title":       sess.Title,
		"archivePath": sess.ArchivePath,
		"frameCount":  len(selected),
	})
	return sess, nil
}

func (p *Pipeline) build(ctx context.Context, sess *session.Session, selected []session.Frame) (int, error) {
	format, err := archive.ParseFormat(p.cfg.Archive.ImageFormat)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "building", "image format", "", err)
	}
	cands := make([]frames.Candidate, 0, len(selected))
	for _, f := range selected {
		img, err := loadFrame(f.FramePath)
		if err != nil {
			return 0, &archive.EncodingError{
				Index: f.Index,
				Entry: archive.EntryName(sess.TriggerWord, f.Index, format.Extension()),
				Err:   err,
			}
		}
		c := f.Candidate()
		c.Image = img
		cands = append(cands, c)
	}

	data, err := archive.Build(ctx, cands, archive.Options{
		TriggerWord: sess.TriggerWord,
		Format:      format,
		JPEGQuality: p.cfg.Archive.JPEGQuality,
	})
	if err != nil {
		return 0, err
	}
	path := p.cfg.ArchivePath(sess.DatasetName, sess.ID)
	if err := archive.WriteFile(path, data); err != nil {
		return 0, services.Wrap(services.ErrEncoding, "building", "write archive", path, err)
	}
	sess.ArchivePath = path
	return len(data), nil
}

func (p *Pipeline) upload(ctx context.Context, logger *slog.Logger, sess *session.Session) {
	if p.uploader == nil {
		return
	}
	url, err := p.uploader.UploadArchive(ctx, sess.ArchivePath)
	if err != nil {
		sess.Warning = fmt.Sprintf("archive upload failed: %v", err)
		logging.WarnWithContext(logger, "archive upload failed", "upload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the [storage] settings"),
			logging.String(logging.FieldImpact, "archive is only available locally"),
		)
		return
	}
	sess.ArchiveURL = url
	logger.Info("archive uploaded", logging.String(logging.FieldEventType, "upload_complete"), logging.String("url", url))
	p.publish(ctx, logger, notifications.EventUploaded, notifications.Payload{"url": url})
}
