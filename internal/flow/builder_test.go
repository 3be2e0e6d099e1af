package flow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mview/internal/ansi"
	"github.com/user/mview/internal/search"
	"github.com/user/mview/internal/store"
)

func storeOf(t *testing.T, lines ...string) *store.Store {
	t.Helper()
	st := store.New()
	state := ansi.State{}
	for _, l := range lines {
		content := []byte(l)
		before := state
		_, state = ansi.Consume(content, before)
		st.Append(content, before)
	}
	return st
}

func newTestBuilder(st *store.Store, set *search.Set, width, tab int) *Builder {
	return NewBuilder(st.Full(), set, ansi.Terminal{DarkBackground: true}, width, tab)
}

func TestSplitWrap(t *testing.T) {
	st := storeOf(t, strings.Repeat("x", 100))
	b := newTestBuilder(st, nil, 30, 4)

	logs := b.Split(0)
	require.Len(t, logs, 4)
	for i, wantLen := range []int{30, 30, 30, 10} {
		assert.Equal(t, wantLen, logs[i].Len, "logical %d", i)
		assert.Equal(t, i, logs[i].Sub)
		assert.Equal(t, 30*i, logs[i].Off)
	}

	// Each logical line renders with the ambient-color prefix.
	for _, l := range logs {
		assert.True(t, strings.HasPrefix(b.Render(l), "\x1b[0m"))
	}
	assert.Equal(t, "\x1b[0m"+strings.Repeat("x", 10), b.Render(logs[3]))
}

func TestSplitEmptyAndShortLines(t *testing.T) {
	st := storeOf(t, "", "short")
	b := newTestBuilder(st, nil, 30, 4)

	logs := b.Split(0)
	require.Len(t, logs, 1)
	assert.Zero(t, logs[0].Len)
	assert.Equal(t, "\x1b[0m", b.Render(logs[0]))

	logs = b.Split(1)
	require.Len(t, logs, 1)
	assert.Equal(t, 5, logs[0].Len)
}

func TestTabExpansion(t *testing.T) {
	st := storeOf(t, "A\tB\tC")
	b := newTestBuilder(st, nil, 80, 4)

	logs := b.Split(0)
	require.Len(t, logs, 1)
	assert.Equal(t, "\x1b[0m"+"A   B   C", b.Render(logs[0]))
}

func TestTabNeverWraps(t *testing.T) {
	// Width 6, tab 4: "abcde\tZ" puts the tab at column 5, where it would
	// need 3 columns but only 1 remains. It must start the next logical
	// line, expanding from column 0 there.
	st := storeOf(t, "abcde\tZ")
	b := newTestBuilder(st, nil, 6, 4)

	logs := b.Split(0)
	require.Len(t, logs, 2)
	assert.Equal(t, "\x1b[0m"+"abcde", b.Render(logs[0]))
	assert.Equal(t, "\x1b[0m"+"    Z", b.Render(logs[1]))
}

func TestSplitCarriesColorState(t *testing.T) {
	red := ansi.State{FG: ansi.Color{Mode: ansi.ColorBasic, Value: 1}}
	st := storeOf(t, "aaa\x1b[31m"+strings.Repeat("b", 10))
	b := newTestBuilder(st, nil, 8, 4)

	logs := b.Split(0)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].Start.IsDefault())
	assert.Equal(t, red, logs[1].Start, "continuation inherits the state at the wrap")

	// The continuation re-asserts red, paints, and resets at the end.
	got := b.Render(logs[1])
	assert.True(t, strings.HasPrefix(got, string(ansi.Serialize(red))))
	assert.True(t, strings.HasSuffix(got, "\x1b[0m"))
}

func TestEscapeSequencesAreZeroWidth(t *testing.T) {
	st := storeOf(t, "\x1b[31m"+strings.Repeat("r", 10)+"\x1b[0m")
	b := newTestBuilder(st, nil, 10, 4)

	logs := b.Split(0)
	require.Len(t, logs, 1, "escapes must not count against the width")
}

func TestControlBytesSubstituted(t *testing.T) {
	st := storeOf(t, "a\x01b\x7fc")
	b := newTestBuilder(st, nil, 80, 4)

	logs := b.Split(0)
	require.Len(t, logs, 1)
	assert.Equal(t, "\x1b[0m"+"a?b?c", b.Render(logs[0]))
}

func TestHighlightAcrossWrap(t *testing.T) {
	set := search.NewSet()
	require.NoError(t, set.Install(0, "needle"))

	st := storeOf(t, "hayhayneedlehay")
	b := newTestBuilder(st, set, 10, 4)

	logs := b.Split(0)
	require.Len(t, logs, 2)

	hl := string(ansi.Serialize(search.Highlight(0, ansi.Terminal{DarkBackground: true})))

	first := b.Render(logs[0])
	assert.Equal(t, "\x1b[0m"+"hayhay"+hl+"need"+"\x1b[0m", first,
		"first half closes its highlight at the wrap")

	second := b.Render(logs[1])
	assert.Equal(t, "\x1b[0m"+hl+"le"+"\x1b[0m"+"hay", second,
		"second half re-asserts the highlight at the continuation start")
}

func TestHighlightCloseRestoresAmbientColor(t *testing.T) {
	set := search.NewSet()
	require.NoError(t, set.Install(0, "needle"))

	st := storeOf(t, "\x1b[31mxxneedlexx")
	b := newTestBuilder(st, set, 80, 4)

	logs := b.Split(0)
	require.Len(t, logs, 1)
	got := b.Render(logs[0])

	// Closing the highlight must restore the red set before the match,
	// not the terminal default.
	red := ansi.State{FG: ansi.Color{Mode: ansi.ColorBasic, Value: 1}}
	hl := string(ansi.Serialize(search.Highlight(0, ansi.Terminal{DarkBackground: true})))
	want := "\x1b[0m" + "\x1b[31m" + "xx" + hl + "needle" +
		string(ansi.Serialize(red)) + "xx" + "\x1b[0m"
	assert.Equal(t, want, got)
}

func TestForward(t *testing.T) {
	st := storeOf(t, strings.Repeat("a", 25), "b", strings.Repeat("c", 15))
	b := newTestBuilder(st, nil, 10, 4)

	logs := b.Forward(0, 0, 10)
	require.Len(t, logs, 6) // 3 + 1 + 2
	assert.Equal(t, []int{0, 0, 0, 1, 2, 2}, indices(logs))

	logs = b.Forward(0, 2, 3)
	assert.Equal(t, []int{0, 1, 2}, indices(logs))
	assert.Equal(t, 2, logs[0].Sub)
}

func TestBackward(t *testing.T) {
	st := storeOf(t, strings.Repeat("a", 25), "b", strings.Repeat("c", 15))
	b := newTestBuilder(st, nil, 10, 4)

	// From the end boundary, the last 3 logical lines.
	logs := b.Backward(3, 0, 3)
	require.Len(t, logs, 3)
	assert.Equal(t, []int{1, 2, 2}, indices(logs))

	// From inside physical line 0.
	logs = b.Backward(0, 2, 5)
	require.Len(t, logs, 2)
	assert.Equal(t, 0, logs[0].Sub)
	assert.Equal(t, 1, logs[1].Sub)

	// Round trip: backward then forward lands on the same boundary.
	fwd := b.Forward(0, 0, 6)
	back := b.Backward(fwd[4].Index, fwd[4].Sub, 4)
	assert.Equal(t, fwd[0:4], back)
}

func TestLocate(t *testing.T) {
	st := storeOf(t, strings.Repeat("x", 100))
	b := newTestBuilder(st, nil, 30, 4)

	l, ok := b.Locate(0, 45)
	require.True(t, ok)
	assert.Equal(t, 1, l.Sub)
	assert.Equal(t, 30, l.Off)

	l, ok = b.Locate(0, 0)
	require.True(t, ok)
	assert.Zero(t, l.Sub)

	l, ok = b.Locate(0, 999)
	require.True(t, ok)
	assert.Equal(t, 3, l.Sub)
}

func indices(logs []Logical) []int {
	out := make([]int, len(logs))
	for i, l := range logs {
		out[i] = l.Index
	}
	return out
}
