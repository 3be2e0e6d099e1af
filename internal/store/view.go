package store

// View is the read surface the line builder and viewport work against.
// The same operations cover the full store and the filtered subsequence,
// so the rest of the viewer never branches on filter state.
type View interface {
	// Count returns the number of lines visible through this view.
	Count() int
	// At returns the line at view position i, or nil when out of range.
	At(i int) *Line
	// Original returns the store index behind view position i, or -1.
	Original(i int) int
}

// Full returns a view over every published line.
func (s *Store) Full() View {
	return fullView{s}
}

// FilteredView returns a view over the lines passing the current filter.
func (s *Store) FilteredView() View {
	return filteredView{s}
}

// ActiveView returns the filtered view while a filter is installed,
// otherwise the full view.
func (s *Store) ActiveView() View {
	if s.Filtered() {
		return filteredView{s}
	}
	return fullView{s}
}

type fullView struct{ s *Store }

func (v fullView) Count() int { return v.s.Count() }

func (v fullView) At(i int) *Line { return v.s.Get(i) }

func (v fullView) Original(i int) int {
	if i < 0 || i >= v.s.Count() {
		return -1
	}
	return i
}

type filteredView struct{ s *Store }

func (v filteredView) Count() int { return v.s.FilteredCount() }

func (v filteredView) At(i int) *Line { return v.s.FilteredGet(i) }

func (v filteredView) Original(i int) int {
	if line := v.s.FilteredGet(i); line != nil {
		return line.Index
	}
	return -1
}
