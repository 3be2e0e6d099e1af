// Package flow turns physical lines into logical lines sized to the
// viewport: tab expansion, width-aware wrapping, color-state threading and
// search-highlight overlay all happen here, on demand.
package flow

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/user/mview/internal/ansi"
	"github.com/user/mview/internal/search"
	"github.com/user/mview/internal/store"
)

// Logical is one screen row's worth of a physical line.
type Logical struct {
	Line  *store.Line
	Index int        // view position of the physical line
	Sub   int        // sub-line index within the physical line
	Off   int        // starting byte offset into the physical content
	Len   int        // bytes covered
	Start ansi.State // ambient state at the logical start

	// spans are the matches overlapping [Off, Off+Len), in physical
	// line byte offsets.
	spans []search.Match
}

// End returns the byte offset one past the logical line.
func (l Logical) End() int {
	return l.Off + l.Len
}

// Builder produces logical lines for the current width and tab size.
type Builder struct {
	view store.View
	set  *search.Set
	term ansi.Terminal

	width int
	tab   int
}

// NewBuilder creates a builder over a view.
func NewBuilder(view store.View, set *search.Set, term ansi.Terminal, width, tab int) *Builder {
	if tab <= 0 {
		tab = 8
	}
	if width <= 0 {
		width = 80
	}
	return &Builder{view: view, set: set, term: term, width: width, tab: tab}
}

// SetView switches between the full and filtered views.
func (b *Builder) SetView(v store.View) {
	b.view = v
}

// View returns the active view.
func (b *Builder) View() store.View {
	return b.view
}

// SetWidth changes the wrap width.
func (b *Builder) SetWidth(w int) {
	if w > 0 {
		b.width = w
	}
}

// Width returns the wrap width.
func (b *Builder) Width() int {
	return b.width
}

// TabWidth returns the tab size.
func (b *Builder) TabWidth() int {
	return b.tab
}

// tokenKind classifies one step through physical content.
type tokenKind uint8

const (
	tokEscape tokenKind = iota // well-formed SGR, zero width
	tokTab
	tokRune
	tokByte // control or invalid byte, substituted on output
)

type token struct {
	kind  tokenKind
	n     int        // bytes consumed
	width int        // columns occupied
	state ansi.State // state after the token
	r     rune
}

// step reads one token at content[i] with col columns already used on the
// current logical line. Split and render share it so width accounting and
// output can never disagree.
func (b *Builder) step(content []byte, i, col int, st ansi.State) token {
	c := content[i]
	if c == 0x1b {
		if n, next, ok := ansi.Advance(content[i:], st); ok {
			return token{kind: tokEscape, n: n, state: next}
		}
		// Malformed escape: the ESC byte renders substituted, the rest
		// of the run flows through as ordinary bytes.
		return token{kind: tokByte, n: 1, width: 1, state: st}
	}
	if c == '\t' {
		return token{kind: tokTab, n: 1, width: b.tab - col%b.tab, state: st}
	}
	r, size := utf8.DecodeRune(content[i:])
	if r == utf8.RuneError && size == 1 {
		return token{kind: tokByte, n: 1, width: 1, state: st}
	}
	if r < 0x20 || r == 0x7f {
		return token{kind: tokByte, n: size, width: 1, state: st, r: r}
	}
	w := runewidth.RuneWidth(r)
	return token{kind: tokRune, n: size, width: w, state: st, r: r}
}

// Split flows the physical line at view position idx into logical lines.
// Every physical line yields at least one logical line; a character that
// would exceed the width starts the next one at exactly its byte.
func (b *Builder) Split(idx int) []Logical {
	line := b.view.At(idx)
	if line == nil {
		return nil
	}

	var matches []search.Match
	if b.set != nil {
		matches = b.set.Scan(line.Content)
	}

	content := line.Content
	st := line.Start
	var out []Logical

	startOff, startState := 0, st
	col := 0
	i := 0
	for i < len(content) {
		tok := b.step(content, i, col, st)
		if tok.width > 0 && col > 0 && col+tok.width > b.width {
			out = append(out, b.logical(line, idx, len(out), startOff, i-startOff, startState, matches))
			startOff, startState = i, st
			col = 0
			continue // re-measure: tab width depends on the column
		}
		col += tok.width
		st = tok.state
		i += tok.n
	}
	out = append(out, b.logical(line, idx, len(out), startOff, len(content)-startOff, startState, matches))
	return out
}

func (b *Builder) logical(line *store.Line, idx, sub, off, length int, st ansi.State, matches []search.Match) Logical {
	l := Logical{Line: line, Index: idx, Sub: sub, Off: off, Len: length, Start: st}
	for _, m := range matches {
		if m.Off < off+length && m.Off+m.Len > off {
			l.spans = append(l.spans, m)
		}
	}
	return l
}

// Locate returns the logical line of physical view position idx that
// contains byte offset off. Used to re-anchor the cursor after a resize.
func (b *Builder) Locate(idx, off int) (Logical, bool) {
	logs := b.Split(idx)
	if len(logs) == 0 {
		return Logical{}, false
	}
	for _, l := range logs {
		if off >= l.Off && (off < l.End() || l.Len == 0) {
			return l, true
		}
	}
	return logs[len(logs)-1], true
}

// Forward returns up to k logical lines starting at the logical boundary
// (idx, sub), continuing into following physical lines.
func (b *Builder) Forward(idx, sub, k int) []Logical {
	var out []Logical
	count := b.view.Count()
	for idx < count && len(out) < k {
		logs := b.Split(idx)
		for s := sub; s < len(logs) && len(out) < k; s++ {
			out = append(out, logs[s])
		}
		sub = 0
		idx++
	}
	return out
}

// Backward returns the k logical lines that precede the boundary
// (idx, sub), in display order. Widths are not constant, so earlier
// physical lines are regenerated forward and consumed from their ends.
func (b *Builder) Backward(idx, sub, k int) []Logical {
	count := b.view.Count()
	if idx > count {
		idx, sub = count, 0
	}

	var rev []Logical
	if idx < count && sub > 0 {
		logs := b.Split(idx)
		if sub > len(logs) {
			sub = len(logs)
		}
		for s := sub - 1; s >= 0 && len(rev) < k; s-- {
			rev = append(rev, logs[s])
		}
	}
	for i := idx - 1; i >= 0 && len(rev) < k; i-- {
		logs := b.Split(i)
		for s := len(logs) - 1; s >= 0 && len(rev) < k; s-- {
			rev = append(rev, logs[s])
		}
	}

	out := make([]Logical, len(rev))
	for i, l := range rev {
		out[len(rev)-1-i] = l
	}
	return out
}

// Render produces the terminal bytes for one logical line: a reset plus
// the ambient color, the content with tabs expanded and control bytes
// substituted, and highlight sequences overlaid per match span. A match
// straddling a wrap is re-asserted on each side, each half bracketed by a
// reset-carrying sequence.
func (b *Builder) Render(l Logical) string {
	var sb strings.Builder
	sb.Write(ansi.Serialize(l.Start))

	content := l.Line.Content
	st := l.Start
	col := 0
	active := false
	spanEnd := 0

	for i := l.Off; i < l.End(); {
		if active && i >= spanEnd {
			sb.Write(ansi.Serialize(st))
			active = false
		}
		if !active {
			for _, sp := range l.spans {
				if i >= sp.Off && i < sp.Off+sp.Len {
					sb.Write(ansi.Serialize(search.Highlight(sp.Slot, b.term)))
					active = true
					spanEnd = sp.Off + sp.Len
					break
				}
			}
		}

		tok := b.step(content, i, col, st)
		switch tok.kind {
		case tokEscape:
			// Inside a highlight the sequence only updates the tracked
			// state; emitting it would repaint over the highlight.
			if !active {
				sb.Write(content[i : i+tok.n])
			}
		case tokTab:
			for n := 0; n < tok.width; n++ {
				sb.WriteByte(' ')
			}
		case tokByte:
			sb.WriteByte('?')
		case tokRune:
			sb.Write(content[i : i+tok.n])
		}
		col += tok.width
		st = tok.state
		i += tok.n
	}

	if active {
		sb.Write(ansi.Serialize(st))
	}
	if !st.IsDefault() {
		sb.Write(ansi.Serialize(ansi.State{}))
	}
	return sb.String()
}
