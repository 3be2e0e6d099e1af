package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mview/internal/ansi"
)

func TestAppendAndGet(t *testing.T) {
	s := New()
	assert.Zero(t, s.Count())
	assert.Nil(t, s.Get(0))

	red := ansi.State{FG: ansi.Color{Mode: ansi.ColorBasic, Value: 1}}
	a := s.Append([]byte("first"), ansi.State{})
	b := s.Append([]byte("second"), red)

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 1, b.Index)
	assert.Equal(t, "second", string(s.Get(1).Content))
	assert.Equal(t, red, s.Get(1).Start)
	assert.Nil(t, s.Get(2))
}

func TestSnapshotIsStable(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Append([]byte(fmt.Sprintf("L%d", i+1)), ansi.State{})
	}

	snap := s.Snapshot(2)
	require.Len(t, snap, 3)

	// Later appends must not disturb the snapshot.
	s.Append([]byte("L6"), ansi.State{})
	assert.Equal(t, "L3", string(snap[0].Content))
	assert.Equal(t, "L5", string(snap[2].Content))
	assert.Len(t, snap, 3)
}

func TestInstallFilter(t *testing.T) {
	s := New()
	s.Append([]byte("INFO ready"), ansi.State{})
	s.Append([]byte("error: bad"), ansi.State{})
	s.Append([]byte("INFO done"), ansi.State{})
	s.Append([]byte("ERROR again"), ansi.State{})

	s.InstallFilter(Contains("ERROR"))
	assert.True(t, s.Filtered())
	require.Equal(t, 2, s.FilteredCount())
	assert.Equal(t, 1, s.FilteredGet(0).Index)
	assert.Equal(t, 3, s.FilteredGet(1).Index)

	// Appends while the filter is live extend the filtered list inline.
	s.Append([]byte("no match"), ansi.State{})
	s.Append([]byte("one more Error"), ansi.State{})
	assert.Equal(t, 3, s.FilteredCount())
	assert.Equal(t, 5, s.FilteredGet(2).Index)

	s.ClearFilter()
	assert.False(t, s.Filtered())
	assert.Zero(t, s.FilteredCount())
}

func TestFilterInstallMidStream(t *testing.T) {
	// An installing viewer racing a pushing ingester must end up with the
	// filtered list being exactly the matching subsequence: nothing lost
	// across the install boundary, order preserved.
	s := New()
	const total = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			content := fmt.Sprintf("line %d", i)
			if i%3 == 0 {
				content = fmt.Sprintf("ERROR %d", i)
			}
			s.Append([]byte(content), ansi.State{})
		}
	}()

	s.InstallFilter(Contains("error"))
	wg.Wait()

	want := 0
	for i := 0; i < total; i++ {
		if i%3 == 0 {
			want++
		}
	}
	require.Equal(t, want, s.FilteredCount())

	prev := -1
	for i := 0; i < s.FilteredCount(); i++ {
		line := s.FilteredGet(i)
		assert.Contains(t, string(line.Content), "ERROR")
		assert.Greater(t, line.Index, prev, "filtered list must preserve order")
		prev = line.Index
	}
}

func TestFilteredIndexFor(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		content := "skip"
		if i%2 == 1 {
			content = "keep"
		}
		s.Append([]byte(content), ansi.State{})
	}
	s.InstallFilter(Contains("keep"))

	assert.Equal(t, 0, s.FilteredIndexFor(0)) // first keep is original 1
	assert.Equal(t, 0, s.FilteredIndexFor(1))
	assert.Equal(t, 1, s.FilteredIndexFor(2))
	assert.Equal(t, 4, s.FilteredIndexFor(9))
	assert.Equal(t, -1, s.FilteredIndexFor(10))
}

func TestViews(t *testing.T) {
	s := New()
	for i := 0; i < 6; i++ {
		content := fmt.Sprintf("plain %d", i)
		if i%2 == 0 {
			content = fmt.Sprintf("hit %d", i)
		}
		s.Append([]byte(content), ansi.State{})
	}

	full := s.Full()
	assert.Equal(t, 6, full.Count())
	assert.Equal(t, 3, full.Original(3))
	assert.Equal(t, -1, full.Original(6))
	assert.Same(t, s.Get(2), full.At(2))

	assert.Equal(t, full, s.ActiveView())

	s.InstallFilter(Contains("hit"))
	active := s.ActiveView()
	assert.Equal(t, 3, active.Count())
	assert.Equal(t, 4, active.Original(2))
	assert.Equal(t, "hit 2", string(active.At(1).Content))
	assert.Equal(t, -1, active.Original(5))
}
