package view

import (
	"github.com/user/mview/internal/ansi"
	"github.com/user/mview/internal/flow"
	"github.com/user/mview/internal/store"
)

// row is one screen line of the display or staging array: the identity of
// the logical line it shows plus the rendered text. Identity comparison is
// what lets repaint skip rows whose content cannot have changed.
type row struct {
	line   *store.Line
	off    int
	length int
	start  ansi.State
	gen    uint64
	blank  bool
	text   string
}

func (r row) sameSource(o row) bool {
	return r.line == o.line &&
		r.off == o.off &&
		r.length == o.length &&
		r.start == o.start &&
		r.gen == o.gen &&
		r.blank == o.blank
}

// frame holds the display array (what is on screen) and the staging array
// (what the next paint prepares). After every paint the two are equal.
type frame struct {
	display []row
	staging []row
	changed int // rows rewritten by the last paint
}

func (f *frame) resize(h int) {
	if len(f.staging) != h {
		f.staging = make([]row, h)
		f.display = make([]row, h)
		for i := range f.display {
			f.display[i].gen = ^uint64(0) // never matches real content
		}
	}
}

// stage prepares row i of the staging array. If the display already shows
// the same source at the same generation the rendered text is reused;
// debug mode forces a fresh render of every row.
func (f *frame) stage(i int, r row, render func() string, debug bool) {
	if !debug && i < len(f.display) && f.display[i].sameSource(r) {
		r.text = f.display[i].text
	} else {
		if !r.blank {
			r.text = render()
		} else {
			r.text = "~"
		}
		f.changed++
	}
	f.staging[i] = r
}

// swap commits staging into display.
func (f *frame) swap() {
	copy(f.display, f.staging)
}

func rowFor(l flow.Logical, gen uint64) row {
	return row{
		line:   l.Line,
		off:    l.Off,
		length: l.Len,
		start:  l.Start,
		gen:    gen,
	}
}
