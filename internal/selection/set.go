// Package selection tracks which accepted candidates the user has picked for
// the dataset.
package selection

import (
	"errors"
	"fmt"
	"slices"

	"ytframes/internal/frames"
	"ytframes/internal/services"
)

// UnknownCandidateError reports an index that does not name an accepted
// candidate in the set.
type UnknownCandidateError struct {
	Index int
}

func (e *UnknownCandidateError) Error() string {
	return fmt.Sprintf("unknown candidate index %d", e.Index)
}

// Is matches services.ErrUnknownCandidate.
func (e *UnknownCandidateError) Is(target error) bool {
	return target == services.ErrUnknownCandidate
}

var (
	// ErrNotAccepted is returned by Add for candidates rejected by the filter.
	ErrNotAccepted = errors.New("candidate was not accepted by the brightness filter")
	// ErrOutOfOrder is returned by Add when indices do not increase.
	ErrOutOfOrder = errors.New("candidate index must increase in sampling order")
)

type entry struct {
	candidate frames.Candidate
	selected  bool
}

// Set holds accepted candidates in sampling order with a selected flag each.
// It is not safe for concurrent mutation.
type Set struct {
	entries []entry
	byIndex map[int]int
}

// New returns an empty set.
func New() *Set {
	return &Set{byIndex: make(map[int]int)}
}

// FromCandidates builds a set from accepted candidates already in ascending
// index order, marking those whose index appears in selected.
func FromCandidates(candidates []frames.Candidate, selected []int) (*Set, error) {
	s := New()
	for _, c := range candidates {
		if err := s.Add(c); err != nil {
			return nil, err
		}
	}
	for _, idx := range selected {
		pos, ok := s.byIndex[idx]
		if !ok {
			return nil, &UnknownCandidateError{Index: idx}
		}
		s.entries[pos].selected = true
	}
	return s, nil
}

// Add appends an accepted candidate. Candidates must arrive in ascending
// index order, matching the sampler.
func (s *Set) Add(c frames.Candidate) error {
	if !c.Accepted {
		return fmt.Errorf("add candidate %d: %w", c.Index, ErrNotAccepted)
	}
	if n := len(s.entries); n > 0 && c.Index <= s.entries[n-1].candidate.Index {
		return fmt.Errorf("add candidate %d after %d: %w", c.Index, s.entries[n-1].candidate.Index, ErrOutOfOrder)
	}
	s.byIndex[c.Index] = len(s.entries)
	s.entries = append(s.entries, entry{candidate: c})
	return nil
}

// Toggle flips the selected flag for index and returns the new state.
func (s *Set) Toggle(index int) (bool, error) {
	pos, ok := s.byIndex[index]
	if !ok {
		return false, &UnknownCandidateError{Index: index}
	}
	s.entries[pos].selected = !s.entries[pos].selected
	return s.entries[pos].selected, nil
}

// SetSelected assigns the selected flag for index.
func (s *Set) SetSelected(index int, selected bool) error {
	pos, ok := s.byIndex[index]
	if !ok {
		return &UnknownCandidateError{Index: index}
	}
	s.entries[pos].selected = selected
	return nil
}

// IsSelected reports the flag for index.
func (s *Set) IsSelected(index int) (bool, error) {
	pos, ok := s.byIndex[index]
	if !ok {
		return false, &UnknownCandidateError{Index: index}
	}
	return s.entries[pos].selected, nil
}

// SelectAll marks every candidate selected.
func (s *Set) SelectAll() { s.setAll(true) }

// ClearAll unmarks every candidate.
func (s *Set) ClearAll() { s.setAll(false) }

func (s *Set) setAll(v bool) {
	for i := range s.entries {
		s.entries[i].selected = v
	}
}

// Selected returns the selected candidates in ascending index order.
func (s *Set) Selected() []frames.Candidate {
	out := make([]frames.Candidate, 0, len(s.entries))
	for _, e := range s.entries {
		if e.selected {
			out = append(out, e.candidate)
		}
	}
	return out
}

// SelectedIndices returns the indices of selected candidates in ascending order.
func (s *Set) SelectedIndices() []int {
	out := make([]int, 0, len(s.entries))
	for _, e := range s.entries {
		if e.selected {
			out = append(out, e.candidate.Index)
		}
	}
	return out
}

// Candidates returns every candidate in sampling order.
func (s *Set) Candidates() []frames.Candidate {
	out := make([]frames.Candidate, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.candidate
	}
	return out
}

// Indices returns every candidate index in sampling order.
func (s *Set) Indices() []int {
	out := make([]int, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.candidate.Index
	}
	return out
}

// Len returns the number of candidates.
func (s *Set) Len() int { return len(s.entries) }

// SelectedCount returns the number of selected candidates.
func (s *Set) SelectedCount() int {
	n := 0
	for _, e := range s.entries {
		if e.selected {
			n++
		}
	}
	return n
}

// Contains reports whether index names a candidate in the set.
func (s *Set) Contains(index int) bool {
	_, ok := s.byIndex[index]
	return ok
}

// Equal reports whether two sets hold the same indices with the same flags.
func (s *Set) Equal(other *Set) bool {
	if other == nil || s.Len() != other.Len() {
		return false
	}
	return slices.Equal(s.Indices(), other.Indices()) && slices.Equal(s.SelectedIndices(), other.SelectedIndices())
}
