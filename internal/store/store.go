// Package store is the append-only collection of ingested physical lines,
// shared between the ingester goroutine and the viewer.
package store

import (
	"bytes"
	"sort"
	"sync"

	"github.com/user/mview/internal/ansi"
)

// Line is one physical line: content with terminators stripped plus the
// color state in effect where the line begins. Immutable once appended.
type Line struct {
	Content []byte
	Start   ansi.State
	Index   int
}

// Predicate decides whether a line belongs to the filtered view.
type Predicate func(content []byte) bool

// Contains returns a predicate matching lines that contain term,
// case-insensitively under ASCII lowercasing.
func Contains(term string) Predicate {
	pat := bytes.ToLower([]byte(term))
	return func(content []byte) bool {
		return bytes.Contains(bytes.ToLower(content), pat)
	}
}

// Store is the shared line store. A single mutex serializes the append
// path against reads; critical sections only copy counts and pointers, so
// neither side can stall the other for long. Lines are immutable after
// publication, which lets readers keep using a snapshot lock-free.
type Store struct {
	mu       sync.Mutex
	lines    []*Line
	pred     Predicate
	filtered []int // indices into lines, insertion order
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append publishes a new line and returns it. When a filter is installed
// the filtered list is extended inline, under the same lock, so the
// filtered view never misses an append.
func (s *Store) Append(content []byte, start ansi.State) *Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := &Line{Content: content, Start: start, Index: len(s.lines)}
	s.lines = append(s.lines, line)
	if s.pred != nil && s.pred(content) {
		s.filtered = append(s.filtered, line.Index)
	}
	return line
}

// Count returns the number of published lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Get returns the line at index, or nil when out of range.
func (s *Store) Get(index int) *Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.lines) {
		return nil
	}
	return s.lines[index]
}

// Snapshot returns the published lines from index onward. The backing
// array is never mutated, so the caller may use the slice without the lock.
func (s *Store) Snapshot(from int) []*Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from < 0 {
		from = 0
	}
	if from >= len(s.lines) {
		return nil
	}
	return s.lines[from:len(s.lines):len(s.lines)]
}

// InstallFilter replaces the filter predicate and rebuilds the filtered
// list from the full store. Appends arriving after the scan are handled by
// Append itself, so the install boundary loses nothing.
func (s *Store) InstallFilter(pred Predicate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pred = pred
	s.filtered = s.filtered[:0]
	if pred == nil {
		return
	}
	for _, line := range s.lines {
		if pred(line.Content) {
			s.filtered = append(s.filtered, line.Index)
		}
	}
}

// ClearFilter removes the filter predicate and the filtered list.
func (s *Store) ClearFilter() {
	s.InstallFilter(nil)
}

// Filtered reports whether a filter is installed.
func (s *Store) Filtered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pred != nil
}

// FilteredCount returns the number of lines passing the filter.
func (s *Store) FilteredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered)
}

// FilteredGet returns the i-th filtered line, or nil when out of range.
func (s *Store) FilteredGet(i int) *Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.filtered) {
		return nil
	}
	return s.lines[s.filtered[i]]
}

// FilteredIndexFor returns the filtered position of the first filtered
// line at or after the original index, or -1 when none remains.
func (s *Store) FilteredIndexFor(original int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.SearchInts(s.filtered, original)
	if i >= len(s.filtered) {
		return -1
	}
	return i
}
