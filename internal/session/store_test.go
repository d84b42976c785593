package session_test

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"ytframes/internal/selection"
	"ytframes/internal/services"
	"ytframes/internal/session"
	"ytframes/internal/testsupport"
)

func newSession(t *testing.T, store *session.Store) *session.Session {
	t.Helper()
	sess := &session.Session{
		URL:             "https://youtu.be/abc",
		TriggerWord:     "catdog",
		IntervalSeconds: 5,
		MinBrightness:   10,
		MaxBrightness:   245,
	}
	if err := store.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return sess
}

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sess := newSession(t, store)
	if sess.ID == "" || sess.Status != session.StatusIdle {
		t.Fatalf("unexpected created session %+v", sess)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.URL != sess.URL || got.TriggerWord != "catdog" || got.IntervalSeconds != 5 || got.Status != session.StatusIdle {
		t.Fatalf("unexpected fetched session %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to round trip")
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, session.ErrNotFound) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRequiresURL(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.Create(context.Background(), &session.Session{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolvePrefix(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sess := newSession(t, store)

	got, err := store.Resolve(context.Background(), sess.ID[:8])
	if err != nil || got.ID != sess.ID {
		t.Fatalf("Resolve prefix: %v %v", got, err)
	}
	if _, err := store.Resolve(context.Background(), "ab"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected short prefix to miss, got %v", err)
	}
}

func TestTransitionEnforcesLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	sess := newSession(t, store)

	if err := store.Transition(ctx, sess, session.StatusSampling); !errors.Is(err, session.ErrInvalidTransition) {
		t.Fatalf("expected skipped stage to fail, got %v", err)
	}

	for _, next := range []session.Status{session.StatusDownloading, session.StatusSampling, session.StatusAwaitingSelection, session.StatusBuilding, session.StatusDone} {
		if err := store.Transition(ctx, sess, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != session.StatusDone {
		t.Fatalf("expected done, got %s", got.Status)
	}
	if err := store.Transition(ctx, sess, session.StatusFailed); !errors.Is(err, session.ErrInvalidTransition) {
		t.Fatalf("expected terminal state to be final, got %v", err)
	}
}

func TestTransitionDetectsStaleStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	sess := newSession(t, store)

	stale := *sess
	if err := store.Transition(ctx, sess, session.StatusDownloading); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := store.Transition(ctx, &stale, session.StatusDownloading); !errors.Is(err, session.ErrInvalidTransition) {
		t.Fatalf("expected stale transition rejection, got %v", err)
	}
}

func TestTransitionPersistsFailure(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	sess := newSession(t, store)
	if err := store.Transition(ctx, sess, session.StatusDownloading); err != nil {
		t.Fatal(err)
	}
	sess.SetFailed("  download https://youtu.be/abc: private video ")
	if err := store.Transition(ctx, sess, session.StatusFailed); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Get(ctx, sess.ID)
	if got.Status != session.StatusFailed || got.ErrorMessage != "download https://youtu.be/abc: private video" {
		t.Fatalf("unexpected failed session %+v", got)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	sess := newSession(t, store)

	for _, idx := range []int{0, 1, 2, 4, 5} {
		if err := store.AddCandidate(ctx, session.Frame{SessionID: sess.ID, Index: idx, Timestamp: float64(idx * 5), Brightness: 100, FramePath: "f.png"}); err != nil {
			t.Fatalf("AddCandidate %d: %v", idx, err)
		}
	}

	set, err := store.LoadSelection(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadSelection: %v", err)
	}
	if set.Len() != 5 || set.SelectedCount() != 0 {
		t.Fatalf("expected 5 unselected candidates, got len=%d selected=%d", set.Len(), set.SelectedCount())
	}
	for _, idx := range []int{4, 0, 2} {
		if _, err := set.Toggle(idx); err != nil {
			t.Fatalf("Toggle %d: %v", idx, err)
		}
	}
	if _, err := set.Toggle(3); !errors.As(err, new(*selection.UnknownCandidateError)) {
		t.Fatalf("expected unknown candidate for rejected index, got %v", err)
	}
	if err := store.SaveSelection(ctx, sess.ID, set); err != nil {
		t.Fatalf("SaveSelection: %v", err)
	}

	reloaded, err := store.LoadSelection(ctx, sess.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.SelectedIndices(); !slices.Equal(got, []int{0, 2, 4}) {
		t.Fatalf("selected after reload = %v", got)
	}

	if _, err := store.Candidate(ctx, sess.ID, 3); !errors.Is(err, services.ErrUnknownCandidate) {
		t.Fatalf("expected unknown candidate, got %v", err)
	}
	f, err := store.Candidate(ctx, sess.ID, 2)
	if err != nil || !f.Selected || f.Timestamp != 10 {
		t.Fatalf("Candidate(2) = %+v, %v", f, err)
	}
}

func TestDeleteCascadesCandidates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	sess := newSession(t, store)
	if err := store.AddCandidate(ctx, session.Frame{SessionID: sess.ID, Index: 0, FramePath: "f.png"}); err != nil {
		t.Fatal(err)
	}
	removed, err := store.Delete(ctx, sess.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	cands, err := store.Candidates(ctx, sess.ID)
	if err != nil || len(cands) != 0 {
		t.Fatalf("expected candidates removed, got %d %v", len(cands), err)
	}
}

func TestListHealthAndFailWorking(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	idle := newSession(t, store)
	working := newSession(t, store)
	if err := store.Transition(ctx, working, session.StatusDownloading); err != nil {
		t.Fatal(err)
	}

	all, err := store.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List all = %d, %v", len(all), err)
	}
	onlyIdle, err := store.List(ctx, session.StatusIdle)
	if err != nil || len(onlyIdle) != 1 || onlyIdle[0].ID != idle.ID {
		t.Fatalf("List idle = %v, %v", onlyIdle, err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Working != 1 {
		t.Fatalf("unexpected health %+v", health)
	}

	n, err := store.FailWorking(ctx, "interrupted")
	if err != nil || n != 1 {
		t.Fatalf("FailWorking = %d, %v", n, err)
	}
	got, _ := store.Get(ctx, working.ID)
	if got.Status != session.StatusFailed || got.ErrorMessage != "interrupted" {
		t.Fatalf("unexpected session after FailWorking %+v", got)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.StorePath())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if _, err := session.Open(cfg); !errors.Is(err, session.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestOpenRejectsCandidatesWithoutCascade(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.StorePath())
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		"DROP TABLE candidates",
		`CREATE TABLE candidates (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			idx INTEGER NOT NULL,
			timestamp REAL NOT NULL,
			brightness REAL NOT NULL,
			frame_path TEXT NOT NULL,
			thumb_path TEXT,
			selected INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, idx)
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	_ = db.Close()

	_, err = session.Open(cfg)
	if !errors.Is(err, session.ErrSchemaMismatch) || !strings.Contains(err.Error(), "cascade") {
		t.Fatalf("expected cascade mismatch, got %v", err)
	}
}

func TestOpenRejectsMissingCandidatesTable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.StorePath())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DROP TABLE candidates"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	_, err = session.Open(cfg)
	if !errors.Is(err, session.ErrSchemaMismatch) || !strings.Contains(err.Error(), "missing table candidates") {
		t.Fatalf("expected missing table mismatch, got %v", err)
	}
}
