package ansi

import "strconv"

const (
	esc = 0x1b
	csi = '['
)

// ColorMode selects how a Color value is interpreted.
type ColorMode uint8

const (
	ColorDefault ColorMode = iota // terminal default, captured at startup
	ColorBasic                    // 16-color palette, value 0-15
	Color256                      // 256-color palette
)

// Color is one half of an SGR color pair.
type Color struct {
	Mode  ColorMode
	Value uint8
}

// State packs the terminal attributes the viewer tracks: foreground,
// background, underline and reverse. The zero value is the terminal default.
type State struct {
	FG        Color
	BG        Color
	Underline bool
	Reverse   bool
}

// IsDefault reports whether the state equals the terminal default.
func (s State) IsDefault() bool {
	return s == State{}
}

// Advance consumes a single escape-initiated run at the start of b.
// For a well-formed SGR sequence (ESC '[' params 'm') it returns the
// sequence length, the updated state and ok=true. Anything else starting
// with ESC is malformed for our purposes: the returned byte count must be
// emitted literally, the state is unchanged and ok=false. b[0] must be ESC.
func Advance(b []byte, s State) (n int, out State, ok bool) {
	if len(b) < 2 || b[1] != csi {
		return 1, s, false
	}

	i := 2
	for i < len(b) && (b[i] == ';' || (b[i] >= '0' && b[i] <= '9')) {
		i++
	}
	if i >= len(b) {
		// Unterminated at end of line; round-trip the bytes.
		return len(b), s, false
	}
	if b[i] != 'm' {
		return i + 1, s, false
	}

	return i + 1, applyParams(b[2:i], s), true
}

// Consume scans a byte span, tracking escape sequences. It returns the
// number of bytes that would be visible on the terminal and the state in
// effect after the span. Malformed sequences count as visible.
func Consume(b []byte, s State) (visible int, out State) {
	for i := 0; i < len(b); {
		if b[i] == esc {
			n, next, ok := Advance(b[i:], s)
			if ok {
				s = next
			} else {
				visible += n
			}
			i += n
			continue
		}
		visible++
		i++
	}
	return visible, s
}

// applyParams folds a semicolon-separated SGR parameter list into s.
// An empty list is equivalent to a single 0.
func applyParams(params []byte, s State) State {
	ps := splitParams(params)
	for i := 0; i < len(ps); i++ {
		switch p := ps[i]; {
		case p == 0:
			s = State{}
		case p == 4:
			s.Underline = true
		case p == 24:
			s.Underline = false
		case p == 7:
			s.Reverse = true
		case p == 27:
			s.Reverse = false
		case p >= 30 && p <= 37:
			s.FG = Color{ColorBasic, uint8(p - 30)}
		case p == 39:
			s.FG = Color{}
		case p >= 40 && p <= 47:
			s.BG = Color{ColorBasic, uint8(p - 40)}
		case p == 49:
			s.BG = Color{}
		case p >= 90 && p <= 97:
			s.FG = Color{ColorBasic, uint8(p - 90 + 8)}
		case p >= 100 && p <= 107:
			s.BG = Color{ColorBasic, uint8(p - 100 + 8)}
		case p == 38 || p == 48:
			var c Color
			var skip int
			if i+1 < len(ps) && ps[i+1] == 5 && i+2 < len(ps) {
				c = Color{Color256, uint8(ps[i+2])}
				skip = 2
			} else if i+1 < len(ps) && ps[i+1] == 2 {
				// Truecolor is out of range for the packed state;
				// swallow the arguments so later params still apply.
				skip = 4
			}
			if skip > 0 {
				if p == 38 && skip == 2 {
					s.FG = c
				} else if p == 48 && skip == 2 {
					s.BG = c
				}
				i += skip
			}
		}
	}
	return s
}

func splitParams(b []byte) []int {
	if len(b) == 0 {
		return []int{0}
	}
	var out []int
	val := 0
	for _, c := range b {
		if c == ';' {
			out = append(out, val)
			val = 0
			continue
		}
		val = val*10 + int(c-'0')
	}
	return append(out, val)
}

// Serialize renders a reset followed by the minimal SGR sequence that
// reproduces s, so any partial line prefixed with it paints correctly.
func Serialize(s State) []byte {
	out := []byte{esc, csi, '0'}
	if s.Underline {
		out = append(out, ";4"...)
	}
	if s.Reverse {
		out = append(out, ";7"...)
	}
	out = appendColor(out, s.FG, false)
	out = appendColor(out, s.BG, true)
	return append(out, 'm')
}

func appendColor(out []byte, c Color, background bool) []byte {
	base := 30
	ext := "38;5;"
	if background {
		base = 40
		ext = "48;5;"
	}
	switch c.Mode {
	case ColorBasic:
		if c.Value < 8 {
			out = append(out, ';')
			out = strconv.AppendInt(out, int64(base)+int64(c.Value), 10)
		} else {
			out = append(out, ';')
			out = strconv.AppendInt(out, int64(base)+60+int64(c.Value-8), 10)
		}
	case Color256:
		out = append(out, ';')
		out = append(out, ext...)
		out = strconv.AppendInt(out, int64(c.Value), 10)
	}
	return out
}
