// Package search holds the fixed set of literal highlight patterns and
// scans lines for their matches.
package search

import (
	"bytes"
	"fmt"

	"github.com/user/mview/internal/ansi"
)

// MaxPatterns is the number of simultaneously active slots.
const MaxPatterns = 5

// Match is one pattern hit inside a line, in byte terms.
type Match struct {
	Slot int
	Off  int
	Len  int
}

// Set holds up to MaxPatterns literal patterns, matched case-insensitively
// under ASCII lowercasing. Slots double as palette indices.
type Set struct {
	patterns [MaxPatterns][]byte // lowercased; nil when the slot is empty
	found    [MaxPatterns]bool
}

// NewSet returns an empty pattern set.
func NewSet() *Set {
	return &Set{}
}

// Install binds a pattern to a slot, replacing whatever was there.
func (s *Set) Install(slot int, pattern string) error {
	if slot < 0 || slot >= MaxPatterns {
		return fmt.Errorf("pattern slot %d out of range", slot)
	}
	if pattern == "" {
		return fmt.Errorf("empty pattern")
	}
	s.patterns[slot] = lowerASCII([]byte(pattern))
	s.found[slot] = false
	return nil
}

// Clear empties a slot.
func (s *Set) Clear(slot int) {
	if slot >= 0 && slot < MaxPatterns {
		s.patterns[slot] = nil
		s.found[slot] = false
	}
}

// ClearAll empties every slot.
func (s *Set) ClearAll() {
	*s = Set{}
}

// Empty reports whether no slot holds a pattern.
func (s *Set) Empty() bool {
	for _, p := range s.patterns {
		if p != nil {
			return false
		}
	}
	return true
}

// Pattern returns the installed pattern for a slot, or "".
func (s *Set) Pattern(slot int) string {
	if slot < 0 || slot >= MaxPatterns {
		return ""
	}
	return string(s.patterns[slot])
}

// Found reports whether any match for the slot has been seen since install.
func (s *Set) Found(slot int) bool {
	return slot >= 0 && slot < MaxPatterns && s.found[slot]
}

// Scan returns the matches within line in ascending byte order. Each byte
// belongs to at most one match: the earliest-starting pattern wins, ties
// go to the lowest slot, and scanning resumes after the winner's end.
func (s *Set) Scan(line []byte) []Match {
	if s.Empty() {
		return nil
	}

	lower := lowerASCII(line)
	var out []Match
	for pos := 0; pos < len(lower); {
		best := Match{Slot: -1}
		for slot, pat := range s.patterns {
			if pat == nil {
				continue
			}
			idx := bytes.Index(lower[pos:], pat)
			if idx < 0 {
				continue
			}
			if best.Slot < 0 || pos+idx < best.Off {
				best = Match{Slot: slot, Off: pos + idx, Len: len(pat)}
			}
		}
		if best.Slot < 0 {
			break
		}
		s.found[best.Slot] = true
		out = append(out, best)
		pos = best.Off + best.Len
	}
	return out
}

// Matches reports whether line contains any match for slot, or for any
// slot when slot is negative.
func (s *Set) Matches(line []byte, slot int) bool {
	lower := lowerASCII(line)
	for i, pat := range s.patterns {
		if pat == nil || (slot >= 0 && i != slot) {
			continue
		}
		if bytes.Contains(lower, pat) {
			s.found[i] = true
			return true
		}
	}
	return false
}

func lowerASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// Palette is the fixed cycle of highlight backgrounds; slots wrap modulo 5.
var Palette = [MaxPatterns]ansi.Color{
	{Mode: ansi.ColorBasic, Value: 3},  // yellow
	{Mode: ansi.ColorBasic, Value: 6},  // cyan
	{Mode: ansi.ColorBasic, Value: 2},  // green
	{Mode: ansi.ColorBasic, Value: 5},  // magenta
	{Mode: ansi.ColorBasic, Value: 1},  // red
}

// Highlight returns the color state for a slot, composed against the
// ambient background intensity: dark terminals paint dark text on the slot
// color, light terminals invert so the slot color stays legible.
func Highlight(slot int, term ansi.Terminal) ansi.State {
	c := Palette[slot%MaxPatterns]
	if term.DarkBackground {
		return ansi.State{
			FG: ansi.Color{Mode: ansi.ColorBasic, Value: 0},
			BG: c,
		}
	}
	return ansi.State{
		FG:      c,
		BG:      ansi.Color{Mode: ansi.ColorBasic, Value: 15},
		Reverse: true,
	}
}
