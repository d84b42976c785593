package workflow_test

import (
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ytframes/internal/archive"
	"ytframes/internal/config"
	"ytframes/internal/download"
	"ytframes/internal/frames"
	"ytframes/internal/metrics"
	"ytframes/internal/notifications"
	"ytframes/internal/sampler"
	"ytframes/internal/services"
	"ytframes/internal/session"
	"ytframes/internal/testsupport"
	"ytframes/internal/workflow"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) Events() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

type harness struct {
	cfg      *config.Config
	store    *session.Store
	pipeline *workflow.Pipeline
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	decoder  *testsupport.FakeDecoder
	video    string
}

type harnessOption func(*harness)

func withFrames(fps float64, imgs []image.Image) harnessOption {
	return func(h *harness) {
		h.decoder.VideoInfo.FrameRate = fps
		h.decoder.Frames = imgs
	}
}

func withFailAt(pos int64) harnessOption {
	return func(h *harness) { h.decoder.FailAt = pos }
}

func newHarness(t *testing.T, cfgOpts []testsupport.ConfigOption, opts ...harnessOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, cfgOpts...)
	h := &harness{
		cfg:      cfg,
		store:    testsupport.MustOpenStore(t, cfg),
		notifier: &recordingNotifier{},
		metrics:  metrics.New(),
		decoder: &testsupport.FakeDecoder{
			VideoInfo: frames.VideoInfo{FrameRate: 1, Width: 8, Height: 6, Duration: 30 * time.Second},
			Frames:    testsupport.GrayLevels(30, 8, 6, 128),
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	resolver := download.ResolverFunc(func(_ context.Context, url, dir string) (download.Video, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return download.Video{}, err
		}
		h.video = filepath.Join(dir, "abc.mp4")
		if err := os.WriteFile(h.video, []byte("video"), 0o644); err != nil {
			return download.Video{}, err
		}
		return download.Video{Path: h.video, Title: "Cats and Dogs", ID: "abc", Duration: 30}, nil
	})
	opener := func(_ context.Context, path string) (*sampler.Handle, error) {
		h.decoder.VideoInfo.Path = path
		return testsupport.NewFakeHandle(h.decoder), nil
	}
	h.pipeline = workflow.New(cfg, h.store, nil,
		workflow.WithResolver(resolver),
		workflow.WithOpener(opener),
		workflow.WithNotifier(h.notifier),
		workflow.WithMetrics(h.metrics),
	)
	return h
}

func TestStartSamplesEveryFiveSeconds(t *testing.T) {
	h := newHarness(t, []testsupport.ConfigOption{testsupport.WithInterval(5)})
	ctx := context.Background()

	var progress []workflow.Progress
	sess, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{
		Progress: func(p workflow.Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.Status != session.StatusAwaitingSelection {
		t.Fatalf("expected awaiting_selection, got %s", sess.Status)
	}

	_, cands, err := h.pipeline.Candidates(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	var stamps []float64
	for _, c := range cands {
		stamps = append(stamps, c.Timestamp)
		if _, err := os.Stat(c.FramePath); err != nil {
			t.Fatalf("frame file missing: %v", err)
		}
		if _, err := os.Stat(c.ThumbPath); err != nil {
			t.Fatalf("thumbnail missing: %v", err)
		}
	}
	if !slices.Equal(stamps, []float64{0, 5, 10, 15, 20, 25}) {
		t.Fatalf("timestamps = %v", stamps)
	}
	if len(progress) != 6 || progress[5].Sampled != 6 || progress[5].Fraction() != 25.0/30 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if _, err := os.Stat(h.video); !os.IsNotExist(err) {
		t.Fatalf("expected source video removed, stat err=%v", err)
	}
	if !slices.Contains(h.notifier.Events(), notifications.EventSelectionReady) {
		t.Fatalf("expected selection ready notification, got %v", h.notifier.Events())
	}
	if got := testutil.ToFloat64(h.metrics.FramesAccepted); got != 6 {
		t.Fatalf("accepted metric = %v", got)
	}
}

func TestExportCatdogArchive(t *testing.T) {
	h := newHarness(t, []testsupport.ConfigOption{testsupport.WithInterval(5), testsupport.WithTriggerWord("catdog")})
	ctx := context.Background()

	sess, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, idx := range []int{4, 0, 2} {
		on, err := h.pipeline.Toggle(ctx, sess.ID, idx)
		if err != nil || !on {
			t.Fatalf("Toggle(%d) = %v, %v", idx, on, err)
		}
	}

	done, err := h.pipeline.Export(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if done.Status != session.StatusDone {
		t.Fatalf("expected done, got %s", done.Status)
	}
	if done.ArchivePath != filepath.Join(h.cfg.Paths.ArchiveDir, "frames_dataset-"+sess.ID[:8]+".zip") {
		t.Fatalf("unexpected archive path %q", done.ArchivePath)
	}
	data, err := os.ReadFile(done.ArchivePath)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	names, err := archive.Entries(data)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if !slices.Equal(names, []string{"catdog_0000.png", "catdog_0002.png", "catdog_0004.png"}) {
		t.Fatalf("entries = %v", names)
	}
	if !slices.Contains(h.notifier.Events(), notifications.EventDatasetReady) {
		t.Fatalf("expected dataset ready notification, got %v", h.notifier.Events())
	}
	if got := testutil.ToFloat64(h.metrics.SessionsFinished.WithLabelValues("done")); got != 1 {
		t.Fatalf("done metric = %v", got)
	}

	if _, err := h.pipeline.Toggle(ctx, sess.ID, 0); !errors.Is(err, workflow.ErrNotSelectable) {
		t.Fatalf("expected finished session to reject toggles, got %v", err)
	}
}

func TestExportKeepsArchivesPerSession(t *testing.T) {
	h := newHarness(t, []testsupport.ConfigOption{testsupport.WithInterval(5)})
	ctx := context.Background()

	first, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("Start first: %v", err)
	}
	if _, err := h.pipeline.Toggle(ctx, first.ID, 0); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	first, err = h.pipeline.Export(ctx, first.ID)
	if err != nil {
		t.Fatalf("Export first: %v", err)
	}

	second, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("Start second: %v", err)
	}
	if _, err := h.pipeline.SelectAll(ctx, second.ID); err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	second, err = h.pipeline.Export(ctx, second.ID)
	if err != nil {
		t.Fatalf("Export second: %v", err)
	}

	if first.ArchivePath == second.ArchivePath {
		t.Fatalf("sessions share archive path %q", first.ArchivePath)
	}
	data, err := os.ReadFile(first.ArchivePath)
	if err != nil {
		t.Fatalf("read first archive: %v", err)
	}
	names, err := archive.Entries(data)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if !slices.Equal(names, []string{"frame_0000.png"}) {
		t.Fatalf("first archive entries = %v", names)
	}
}

func TestExportFailsWhenFrameUnreadable(t *testing.T) {
	h := newHarness(t, []testsupport.ConfigOption{testsupport.WithInterval(5)})
	ctx := context.Background()

	sess, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, cands, err := h.pipeline.Candidates(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	for _, idx := range []int{0, 1} {
		if _, err := h.pipeline.Toggle(ctx, sess.ID, idx); err != nil {
			t.Fatalf("Toggle(%d): %v", idx, err)
		}
	}
	if err := os.WriteFile(cands[1].FramePath, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = h.pipeline.Export(ctx, sess.ID)
	var encErr *archive.EncodingError
	if !errors.Is(err, services.ErrEncoding) || !errors.As(err, &encErr) || encErr.Index != 1 {
		t.Fatalf("expected encoding error for frame 1, got %v", err)
	}
	got, _ := h.store.Get(ctx, sess.ID)
	if got.Status != session.StatusFailed || got.ErrorMessage == "" {
		t.Fatalf("expected failed session, got %s %q", got.Status, got.ErrorMessage)
	}
	entries, err := os.ReadDir(h.cfg.Paths.ArchiveDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no archive, found %d entries", len(entries))
	}
	if !slices.Contains(h.notifier.Events(), notifications.EventError) {
		t.Fatal("expected failure notification")
	}
}

func TestCreateRejectsNonFiniteInterval(t *testing.T) {
	h := newHarness(t, nil)
	for _, interval := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -2} {
		_, err := h.pipeline.Create(context.Background(), "https://youtu.be/abc", workflow.StartOptions{IntervalSeconds: interval})
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("interval %v: expected validation error, got %v", interval, err)
		}
	}
	if sessions, _ := h.store.List(context.Background()); len(sessions) != 0 {
		t.Fatalf("expected no sessions created, got %d", len(sessions))
	}
}

func TestExportEmptySelectionKeepsSessionSelectable(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	sess, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = h.pipeline.Export(ctx, sess.ID)
	var empty archive.EmptySelectionError
	if !errors.As(err, &empty) || !errors.Is(err, services.ErrEmptySelection) {
		t.Fatalf("expected EmptySelectionError, got %v", err)
	}
	got, _ := h.store.Get(ctx, sess.ID)
	if got.Status != session.StatusAwaitingSelection {
		t.Fatalf("expected session to stay selectable, got %s", got.Status)
	}

	if n, err := h.pipeline.SelectAll(ctx, sess.ID); err != nil || n != 6 {
		t.Fatalf("SelectAll = %d, %v", n, err)
	}
	if err := h.pipeline.ClearAll(ctx, sess.ID); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	set, _ := h.pipeline.Selection(ctx, sess.ID)
	if set.SelectedCount() != 0 {
		t.Fatalf("expected cleared selection, got %d", set.SelectedCount())
	}
}

func TestToggleUnknownCandidateLeavesSelection(t *testing.T) {
	h := newHarness(t, nil, withFrames(1, testsupport.GrayLevels(30, 4, 4, 128, 0, 255, 128, 128)))
	ctx := context.Background()
	sess, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{IntervalSeconds: 1})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.SampledCount != 30 || sess.RejectedCount != 12 {
		t.Fatalf("sampled=%d rejected=%d", sess.SampledCount, sess.RejectedCount)
	}
	if _, err := h.pipeline.Toggle(ctx, sess.ID, 0); err != nil {
		t.Fatalf("Toggle(0): %v", err)
	}
	// Index 1 is a black frame.
	if _, err := h.pipeline.Toggle(ctx, sess.ID, 1); !errors.Is(err, services.ErrUnknownCandidate) {
		t.Fatalf("expected unknown candidate, got %v", err)
	}
	if _, err := h.pipeline.Toggle(ctx, sess.ID, 999); !errors.Is(err, services.ErrUnknownCandidate) {
		t.Fatalf("expected unknown candidate, got %v", err)
	}
	set, _ := h.pipeline.Selection(ctx, sess.ID)
	if got := set.SelectedIndices(); !slices.Equal(got, []int{0}) {
		t.Fatalf("selection changed: %v", got)
	}
}

func TestSelectOnlyIsAllOrNothing(t *testing.T) {
	h := newHarness(t, []testsupport.ConfigOption{testsupport.WithInterval(5)})
	ctx := context.Background()
	sess, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n, err := h.pipeline.SelectOnly(ctx, sess.ID, []int{2, 4, 2}); err != nil || n != 2 {
		t.Fatalf("SelectOnly = %d, %v", n, err)
	}
	before, _ := h.pipeline.Selection(ctx, sess.ID)

	if _, err := h.pipeline.SelectOnly(ctx, sess.ID, []int{0, 99}); !errors.Is(err, services.ErrUnknownCandidate) {
		t.Fatalf("expected unknown candidate, got %v", err)
	}
	after, _ := h.pipeline.Selection(ctx, sess.ID)
	if !before.Equal(after) {
		t.Fatalf("selection changed from %v to %v", before.SelectedIndices(), after.SelectedIndices())
	}
	if got := after.SelectedIndices(); !slices.Equal(got, []int{2, 4}) {
		t.Fatalf("selected = %v", got)
	}
}

func TestDownloadFailureFailsSession(t *testing.T) {
	h := newHarness(t, nil)
	failing := workflow.New(h.cfg, h.store, nil,
		workflow.WithResolver(download.ResolverFunc(func(context.Context, string, string) (download.Video, error) {
			return download.Video{}, errors.New("private video")
		})),
		workflow.WithNotifier(h.notifier),
	)
	sess, err := failing.Start(context.Background(), "https://youtu.be/private", workflow.StartOptions{})
	var dlErr *download.DownloadError
	if !errors.As(err, &dlErr) || dlErr.URL != "https://youtu.be/private" {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	got, _ := h.store.Get(context.Background(), sess.ID)
	if got.Status != session.StatusFailed || got.ErrorMessage == "" {
		t.Fatalf("expected failed session with message, got %+v", got)
	}
	if !slices.Contains(h.notifier.Events(), notifications.EventError) {
		t.Fatal("expected failure notification")
	}
}

func TestDecodeFailureSalvagesEarlierFrames(t *testing.T) {
	h := newHarness(t, []testsupport.ConfigOption{testsupport.WithInterval(5)}, withFailAt(12))
	sess, err := h.pipeline.Start(context.Background(), "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if sess.Status != session.StatusAwaitingSelection || sess.Warning == "" {
		t.Fatalf("expected awaiting selection with warning, got %s %q", sess.Status, sess.Warning)
	}
	_, cands, _ := h.pipeline.Candidates(context.Background(), sess.ID)
	if len(cands) != 3 {
		t.Fatalf("expected 3 salvaged candidates, got %d", len(cands))
	}
}

func TestDecodeFailureWithoutFramesFailsSession(t *testing.T) {
	h := newHarness(t, nil, withFrames(1, nil))
	sess, err := h.pipeline.Start(context.Background(), "https://youtu.be/abc", workflow.StartOptions{})
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	got, _ := h.store.Get(context.Background(), sess.ID)
	if got.Status != session.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if !h.decoder.Closed() {
		t.Fatal("decoder not released")
	}
}

func TestPreselectAndKeepVideo(t *testing.T) {
	h := newHarness(t, []testsupport.ConfigOption{testsupport.WithConfig(func(cfg *config.Config) {
		cfg.Archive.Preselect = true
		cfg.Download.KeepVideo = true
	})})
	sess, err := h.pipeline.Start(context.Background(), "https://youtu.be/abc", workflow.StartOptions{IntervalSeconds: 10})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	set, _ := h.pipeline.Selection(context.Background(), sess.ID)
	if set.Len() != 3 || set.SelectedCount() != 3 {
		t.Fatalf("expected 3 preselected, got len=%d selected=%d", set.Len(), set.SelectedCount())
	}
	if _, err := os.Stat(h.video); err != nil {
		t.Fatalf("expected video kept: %v", err)
	}
}

func TestDeleteRemovesWorkDir(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	sess, err := h.pipeline.Start(ctx, "https://youtu.be/abc", workflow.StartOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.pipeline.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(sess.WorkDir); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, got %v", err)
	}
	if _, err := h.store.Get(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestThumbnailIsScaled(t *testing.T) {
	img := testsupport.SolidImage(640, 360, 90)
	thumb := workflow.Thumbnail(img, 320)
	if b := thumb.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Fatalf("thumbnail bounds %v", b)
	}
	if small := workflow.Thumbnail(testsupport.SolidImage(100, 50, 90), 320); small.Bounds().Dx() != 100 {
		t.Fatal("expected narrow image unchanged")
	}
}

func TestHealthReportsMissingStagingDir(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	for _, stage := range h.pipeline.Health(ctx) {
		if !stage.Ready {
			t.Fatalf("expected %s ready, got %+v", stage.Name, stage)
		}
	}

	if err := os.RemoveAll(h.cfg.Paths.StagingDir); err != nil {
		t.Fatal(err)
	}
	var staging workflow.StageHealth
	for _, stage := range h.pipeline.Health(ctx) {
		if stage.Name == "staging" {
			staging = stage
		}
	}
	if staging.Ready || staging.Detail == "" {
		t.Fatalf("expected unhealthy staging, got %+v", staging)
	}
}
