package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ytframes/internal/logging"
	"ytframes/internal/selection"
	"ytframes/internal/session"
)

// ErrBusy is returned when deleting a session whose pipeline is still running.
var ErrBusy = errors.New("session is still running")

// Candidates returns a session with its accepted frames in index order.
func (p *Pipeline) Candidates(ctx context.Context, id string) (*session.Session, []session.Frame, error) {
	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	frames, err := p.store.Candidates(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sess, frames, nil
}

// Toggle flips the selected flag of candidate index and returns the new flag.
// An index that is not an accepted candidate leaves the selection unchanged.
func (p *Pipeline) Toggle(ctx context.Context, id string, index int) (bool, error) {
	var selected bool
	_, err := p.mutate(ctx, id, func(set *selection.Set) error {
		var err error
		selected, err = set.Toggle(index)
		return err
	})
	return selected, err
}

// SelectAll marks every accepted candidate and returns how many are selected.
func (p *Pipeline) SelectAll(ctx context.Context, id string) (int, error) {
	set, err := p.mutate(ctx, id, func(set *selection.Set) error {
		set.SelectAll()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return set.SelectedCount(), nil
}

// ClearAll unmarks every candidate.
func (p *Pipeline) ClearAll(ctx context.Context, id string) error {
	_, err := p.mutate(ctx, id, func(set *selection.Set) error {
		set.ClearAll()
		return nil
	})
	return err
}

// SelectOnly replaces the selection with exactly indices. Every index is
// checked before anything changes, so an unknown one leaves the stored
// selection as it was.
func (p *Pipeline) SelectOnly(ctx context.Context, id string, indices []int) (int, error) {
	set, err := p.mutate(ctx, id, func(set *selection.Set) error {
		for _, idx := range indices {
			if !set.Contains(idx) {
				return &selection.UnknownCandidateError{Index: idx}
			}
		}
		set.ClearAll()
		for _, idx := range indices {
			if err := set.SetSelected(idx, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return set.SelectedCount(), nil
}

// Selection returns the current selection set of a session.
func (p *Pipeline) Selection(ctx context.Context, id string) (*selection.Set, error) {
	return p.store.LoadSelection(ctx, id)
}

func (p *Pipeline) mutate(ctx context.Context, id string, fn func(*selection.Set) error) (*selection.Set, error) {
	unlock := p.lock(id)
	defer unlock()

	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusAwaitingSelection {
		return nil, fmt.Errorf("%w (status %s)", ErrNotSelectable, sess.Status)
	}
	set, err := p.store.LoadSelection(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(set); err != nil {
		return nil, err
	}
	if err := p.store.SaveSelection(ctx, id, set); err != nil {
		return nil, err
	}
	return set, nil
}

// Thumbnail returns the thumbnail file of candidate index, falling back to
// the full frame when no thumbnail was stored.
func (p *Pipeline) Thumbnail(ctx context.Context, id string, index int) (string, error) {
	f, err := p.store.Candidate(ctx, id, index)
	if err != nil {
		return "", err
	}
	if f.ThumbPath != "" {
		if _, err := os.Stat(f.ThumbPath); err == nil {
			return f.ThumbPath, nil
		}
	}
	return f.FramePath, nil
}

// Delete removes a session, its work directory, and its log file. The
// archive, if any, is kept.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	unlock := p.lock(id)
	defer unlock()

	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status.Working() {
		return fmt.Errorf("%w (status %s)", ErrBusy, sess.Status)
	}
	if _, err := p.store.Delete(ctx, id); err != nil {
		return err
	}
	if sess.WorkDir != "" {
		if err := os.RemoveAll(sess.WorkDir); err != nil {
			logging.WarnWithContext(p.logger, "failed to remove work directory", "cleanup_failed",
				logging.String(logging.FieldSessionID, id),
				logging.String("path", sess.WorkDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space is not reclaimed"),
			)
		}
	}
	if err := p.logs.Remove(id); err != nil {
		p.logger.Debug("session log not removed", logging.Error(err))
	}
	p.mu.Lock()
	delete(p.locks, id)
	p.mu.Unlock()
	return nil
}
