// Package render colorizes source lines at ingest time. The emitted
// escapes flow through the color tracker like any other input, so the
// viewer needs no special casing for highlighted files.
package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

// Colorizer highlights lines of a single file using chroma. The formatter
// is fixed to terminal16 so the output stays within the packed color state.
type Colorizer struct {
	lexerName string
	theme     string
}

// ForFile returns a colorizer for path, or nil when chroma has no lexer
// for the file type.
func ForFile(path, theme string) *Colorizer {
	lexer := lexers.Match(path)
	if lexer == nil {
		return nil
	}
	if theme == "" {
		theme = "monokai"
	}
	return &Colorizer{
		lexerName: lexer.Config().Name,
		theme:     theme,
	}
}

// Line highlights a single line. On any failure the input is returned
// unchanged; a partially highlighted file is worse than a plain one.
func (c *Colorizer) Line(content []byte) []byte {
	if len(content) == 0 {
		return content
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(content), c.lexerName, "terminal16", c.theme); err != nil {
		return content
	}

	// chroma appends newlines; the store holds terminator-free lines.
	out := strings.NewReplacer("\n", "", "\r", "").Replace(buf.String())
	return []byte(out)
}
