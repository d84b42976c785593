package session

import (
	"context"
	"database/sql"
	"fmt"

	"ytframes/internal/frames"
	"ytframes/internal/selection"
)

// AddCandidate records an accepted frame for sessionID.
func (s *Store) AddCandidate(ctx context.Context, f Frame) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO candidates (session_id, idx, timestamp, brightness, frame_path, thumb_path, selected)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.SessionID,
		f.Index,
		f.Timestamp,
		f.Brightness,
		f.FramePath,
		nullableString(f.ThumbPath),
		boolToInt(f.Selected),
	)
	if err != nil {
		return fmt.Errorf("insert candidate %d: %w", f.Index, err)
	}
	return nil
}

// Candidates returns the accepted frames of sessionID in index order.
func (s *Store) Candidates(ctx context.Context, sessionID string) ([]Frame, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, idx, timestamp, brightness, frame_path, COALESCE(thumb_path, ''), selected
         FROM candidates WHERE session_id = ? ORDER BY idx`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []Frame
	for rows.Next() {
		var (
			f        Frame
			selected int
		)
		if err := rows.Scan(&f.SessionID, &f.Index, &f.Timestamp, &f.Brightness, &f.FramePath, &f.ThumbPath, &selected); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		f.Selected = selected != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

// Candidate returns one accepted frame. An index that does not name an
// accepted frame yields a *selection.UnknownCandidateError.
func (s *Store) Candidate(ctx context.Context, sessionID string, index int) (Frame, error) {
	rows, err := s.Candidates(ctx, sessionID)
	if err != nil {
		return Frame{}, err
	}
	for _, f := range rows {
		if f.Index == index {
			return f, nil
		}
	}
	return Frame{}, &selection.UnknownCandidateError{Index: index}
}

// LoadSelection rebuilds the selection set of sessionID. Candidate images are
// not loaded; callers read FramePath when they need pixels.
func (s *Store) LoadSelection(ctx context.Context, sessionID string) (*selection.Set, error) {
	rows, err := s.Candidates(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cands := make([]frames.Candidate, 0, len(rows))
	var selected []int
	for _, f := range rows {
		cands = append(cands, f.Candidate())
		if f.Selected {
			selected = append(selected, f.Index)
		}
	}
	set, err := selection.FromCandidates(cands, selected)
	if err != nil {
		return nil, fmt.Errorf("rebuild selection: %w", err)
	}
	return set, nil
}

// SaveSelection persists the selected flags of set for sessionID in one
// transaction.
func (s *Store) SaveSelection(ctx context.Context, sessionID string, set *selection.Set) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE candidates SET selected = 0 WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("clear selection: %w", err)
		}
		for _, idx := range set.SelectedIndices() {
			res, err := tx.ExecContext(ctx, `UPDATE candidates SET selected = 1 WHERE session_id = ? AND idx = ?`, sessionID, idx)
			if err != nil {
				return fmt.Errorf("select candidate %d: %w", idx, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return &selection.UnknownCandidateError{Index: idx}
			}
		}
		return nil
	})
}

// Candidate converts the persisted row to a sampler candidate without pixels.
func (f Frame) Candidate() frames.Candidate {
	return frames.Candidate{
		Index:      f.Index,
		Timestamp:  f.Timestamp,
		Brightness: f.Brightness,
		Accepted:   true,
	}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
