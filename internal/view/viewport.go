// Package view maintains the viewport: the cursor anchoring the top of
// the screen in logical-line space, and the painted frame.
package view

import (
	"strings"

	"github.com/user/mview/internal/flow"
	"github.com/user/mview/internal/search"
)

// Cursor anchors the top-left character of the screen: a physical line in
// the active view, the byte offset of its visible logical line, and that
// logical line's index within the physical line.
type Cursor struct {
	Index int
	Off   int
	Sub   int
}

func cursorOf(l flow.Logical) Cursor {
	return Cursor{Index: l.Index, Off: l.Off, Sub: l.Sub}
}

// Viewport scrolls, pages, jumps and repaints over the line store via the
// logical line builder. It runs entirely on the viewer goroutine.
type Viewport struct {
	builder *flow.Builder

	width  int
	height int
	cur    Cursor

	follow bool // tail-follow requested
	stick  bool // cursor is riding the newest data
	debug  bool // rebuild every row each paint

	gen   uint64 // bumped when rendering inputs change out of band
	frame frame
}

// New creates a viewport of the given content dimensions.
func New(b *flow.Builder, width, height int, debug bool) *Viewport {
	b.SetWidth(width)
	v := &Viewport{builder: b, width: width, height: height, debug: debug}
	v.frame.resize(height)
	return v
}

// Builder exposes the underlying logical line builder.
func (v *Viewport) Builder() *flow.Builder {
	return v.builder
}

// Cursor returns the current top-of-screen anchor.
func (v *Viewport) Cursor() Cursor {
	return v.cur
}

// Height returns the content height.
func (v *Viewport) Height() int {
	return v.height
}

// SetFollow enables or disables tail-follow stickiness.
func (v *Viewport) SetFollow(on bool) {
	v.follow = on
	if on {
		v.stick = v.atMaxTop()
	}
}

// Follow reports whether tail-follow is active.
func (v *Viewport) Follow() bool {
	return v.follow
}

// Invalidate marks all rendered rows stale; the next repaint rebuilds any
// row it keeps on screen. Called when search patterns or views change.
func (v *Viewport) Invalidate() {
	v.gen++
}

// maxTop returns the latest cursor for which a full screen (or the whole
// of a short store) is still visible.
func (v *Viewport) maxTop() Cursor {
	back := v.builder.Backward(v.builder.View().Count(), 0, v.height)
	if len(back) < v.height {
		return Cursor{}
	}
	return cursorOf(back[0])
}

func (v *Viewport) atMaxTop() bool {
	return v.cur == v.maxTop()
}

// clamp pulls c back when it is past the point where the screen would run
// out of data.
func (v *Viewport) clamp(c Cursor) Cursor {
	max := v.maxTop()
	if c.Index > max.Index || (c.Index == max.Index && c.Sub > max.Sub) {
		return max
	}
	if c.Index < 0 {
		return Cursor{}
	}
	return c
}

// Scroll moves the cursor by n logical lines, negative for backward.
func (v *Viewport) Scroll(n int) {
	switch {
	case n > 0:
		logs := v.builder.Forward(v.cur.Index, v.cur.Sub, n+1)
		if len(logs) > 0 {
			v.cur = v.clamp(cursorOf(logs[len(logs)-1]))
		}
	case n < 0:
		back := v.builder.Backward(v.cur.Index, v.cur.Sub, -n)
		if len(back) > 0 {
			v.cur = cursorOf(back[0])
		} else {
			v.cur = Cursor{}
		}
	}
	v.stick = v.follow && v.atMaxTop()
}

// Page scrolls by one full screen of content. dir is ±1.
func (v *Viewport) Page(dir int) {
	v.Scroll(dir * v.height)
}

// Home jumps to the first line.
func (v *Viewport) Home() {
	v.cur = Cursor{}
	v.stick = false
}

// End positions the last logical line at the screen bottom.
func (v *Viewport) End() {
	v.cur = v.maxTop()
	v.stick = v.follow
}

// OnAppend is called when the ingester signals new lines. A sticky
// follow cursor keeps riding the end; otherwise the screen stays put.
func (v *Viewport) OnAppend() {
	if v.follow && v.stick {
		v.cur = v.maxTop()
	}
}

// AtEnd reports whether the screen currently shows the final logical line.
func (v *Viewport) AtEnd() bool {
	logs := v.builder.Forward(v.cur.Index, v.cur.Sub, v.height+1)
	return len(logs) <= v.height
}

// searchOrigin is the physical index of the screen's center row, where a
// previous jump would have placed its hit. Jumps resume from here, so the
// result is a function of the cursor and store contents alone.
func (v *Viewport) searchOrigin() int {
	logs := v.builder.Forward(v.cur.Index, v.cur.Sub, v.height/2+1)
	if len(logs) == 0 {
		return v.cur.Index
	}
	return logs[len(logs)-1].Index
}

// SearchJump walks the active view in direction dir (±1) from the screen's
// center row for the next physical line matching the slot's pattern, and
// centers its matching logical line when possible.
func (v *Viewport) SearchJump(set *search.Set, slot, dir int) bool {
	count := v.builder.View().Count()
	for idx := v.searchOrigin() + dir; idx >= 0 && idx < count; idx += dir {
		line := v.builder.View().At(idx)
		if line == nil || !set.Matches(line.Content, slot) {
			continue
		}

		off := 0
		for _, m := range set.Scan(line.Content) {
			if m.Slot == slot {
				off = m.Off
				break
			}
		}
		target, ok := v.builder.Locate(idx, off)
		if !ok {
			return false
		}

		back := v.builder.Backward(target.Index, target.Sub, v.height/2)
		if len(back) > 0 {
			v.cur = v.clamp(cursorOf(back[0]))
		} else {
			v.cur = v.clamp(cursorOf(target))
		}
		v.stick = false
		return true
	}
	return false
}

// SetCursor re-anchors on a view index, snapping the byte offset to a
// logical boundary. Used when the active view changes under the cursor.
func (v *Viewport) SetCursor(idx, off int) {
	if l, ok := v.builder.Locate(idx, off); ok {
		v.cur = v.clamp(cursorOf(l))
	} else {
		v.cur = Cursor{}
	}
	v.Invalidate()
}

// Resize recomputes the layout for new dimensions, preserving the
// physical-line anchor closest to the old top of screen.
func (v *Viewport) Resize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width = width
	v.height = height
	v.builder.SetWidth(width)
	v.frame.resize(height)
	v.Invalidate()

	if l, ok := v.builder.Locate(v.cur.Index, v.cur.Off); ok {
		v.cur = v.clamp(cursorOf(l))
	} else {
		v.cur = v.clamp(Cursor{Index: v.cur.Index})
	}
	if v.stick {
		v.cur = v.maxTop()
	}
}

// Repaint prepares the staging array for the current cursor, reusing
// display rows whose source is unchanged, swaps, and returns the screen
// content. In debug mode every row is rebuilt from scratch.
func (v *Viewport) Repaint() string {
	v.frame.changed = 0
	logs := v.builder.Forward(v.cur.Index, v.cur.Sub, v.height)

	for i := 0; i < v.height; i++ {
		if i < len(logs) {
			l := logs[i]
			v.frame.stage(i, rowFor(l, v.gen), func() string { return v.builder.Render(l) }, v.debug)
		} else {
			v.frame.stage(i, row{blank: true, gen: v.gen}, nil, v.debug)
		}
	}
	v.frame.swap()

	var sb strings.Builder
	for i, r := range v.frame.display {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.text)
	}
	return sb.String()
}

// ChangedRows returns how many rows the last repaint had to rewrite.
func (v *Viewport) ChangedRows() int {
	return v.frame.changed
}

// Position describes the topmost visible line (1-based, in original store
// numbering when available) and the view's line total, for the status bar.
func (v *Viewport) Position() (line, total int) {
	view := v.builder.View()
	orig := view.Original(v.cur.Index)
	if orig < 0 {
		orig = v.cur.Index
	}
	return orig + 1, view.Count()
}

// Percent reports scroll progress by the bottommost visible line.
func (v *Viewport) Percent() float64 {
	view := v.builder.View()
	count := view.Count()
	if count == 0 {
		return 0
	}
	logs := v.builder.Forward(v.cur.Index, v.cur.Sub, v.height)
	if len(logs) == 0 {
		return 0
	}
	last := logs[len(logs)-1].Index
	return float64(last+1) / float64(count) * 100
}
