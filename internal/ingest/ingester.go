// Package ingest reads the input sources on a background goroutine and
// appends physical lines to the shared store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/user/mview/internal/ansi"
	"github.com/user/mview/internal/render"
	"github.com/user/mview/internal/store"
)

// Phase is the ingester's observable state.
type Phase int32

const (
	PhaseScanningSources Phase = iota
	PhaseReadingSource
	PhaseAwaitingTail
	PhaseDraining
	PhaseExited
)

const readChunk = 64 * 1024

// DefaultPollInterval bounds tail-follow latency and shutdown response.
const DefaultPollInterval = 250 * time.Millisecond

// Options configure one ingester run.
type Options struct {
	Recursive       bool
	ExpandWildcards bool
	Follow          bool
	Colorize        bool
	Theme           string
	PollInterval    time.Duration
}

// Ingester walks the input specs in order, splits their bytes into
// physical lines, carries the color state across lines and publishes them
// into the store. There is no backpressure: the viewer must never slow
// ingestion, so the store simply grows.
type Ingester struct {
	store  *store.Store
	specs  []string
	stdin  io.Reader
	opts   Options
	logger *log.Logger

	updates chan struct{}
	phase   atomic.Int32
	state   ansi.State // carried across lines
}

// New creates an ingester for the given source specs. With no specs the
// single piped stream (stdin) is the only source.
func New(st *store.Store, specs []string, opts Options, logger *log.Logger) *Ingester {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Ingester{
		store:   st,
		specs:   specs,
		stdin:   os.Stdin,
		opts:    opts,
		logger:  logger,
		updates: make(chan struct{}, 1),
	}
}

// SetStdin overrides the piped stream, for callers that already hold it.
func (in *Ingester) SetStdin(r io.Reader) {
	in.stdin = r
}

// Updates is the line-available signal: a batch of appends sends at most
// one token, and receiving consumes it (auto-reset semantics).
func (in *Ingester) Updates() <-chan struct{} {
	return in.updates
}

// Phase returns the current phase.
func (in *Ingester) Phase() Phase {
	return Phase(in.phase.Load())
}

func (in *Ingester) setPhase(p Phase) {
	in.phase.Store(int32(p))
}

// Run ingests every source in order and returns when all are exhausted or
// ctx is cancelled. Per-source failures surface as synthetic lines; only
// cancellation propagates as an error.
func (in *Ingester) Run(ctx context.Context) error {
	defer in.setPhase(PhaseExited)

	in.setPhase(PhaseScanningSources)
	if len(in.specs) == 0 {
		in.readSource(ctx, newStreamSource("(stdin)", in.stdin), nil)
		return ctx.Err()
	}

	for _, path := range in.expand() {
		if ctx.Err() != nil {
			break
		}
		in.setPhase(PhaseScanningSources)
		in.ingestPath(ctx, path)
	}
	return ctx.Err()
}

// expand resolves wildcards and directory recursion into a flat, ordered
// path list. Enumeration failures become synthetic lines here so the run
// proceeds to the remaining sources.
func (in *Ingester) expand() []string {
	var out []string
	for _, spec := range in.specs {
		if in.opts.ExpandWildcards && strings.ContainsAny(spec, "*?[") {
			matches, err := filepath.Glob(spec)
			if err != nil {
				in.synthetic(spec, err)
				continue
			}
			if len(matches) == 0 {
				in.synthetic(spec, fmt.Errorf("no matching files"))
				continue
			}
			out = append(out, matches...)
			continue
		}
		out = append(out, spec)
	}
	return out
}

func (in *Ingester) ingestPath(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		in.synthetic(path, err)
		return
	}

	if info.IsDir() {
		if !in.opts.Recursive {
			in.synthetic(path, fmt.Errorf("is a directory"))
			return
		}
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				in.synthetic(p, err)
				return nil
			}
			if !d.IsDir() {
				in.ingestFile(ctx, p)
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			in.synthetic(path, err)
		}
		return
	}

	in.ingestFile(ctx, path)
}

func (in *Ingester) ingestFile(ctx context.Context, path string) {
	src, err := openFileSource(path, in.opts.Follow)
	if err != nil {
		in.synthetic(path, err)
		return
	}
	defer src.Close()

	var colorizer *render.Colorizer
	if in.opts.Colorize {
		colorizer = render.ForFile(path, in.opts.Theme)
	}

	in.logger.Debug("ingesting source", "path", path, "follow", in.opts.Follow)
	in.readSource(ctx, src, colorizer)
}

// readSource drains one source. Partial trailing lines are carried until
// the next read completes them; at final end-of-input the remainder is
// appended as the last line.
func (in *Ingester) readSource(ctx context.Context, src Source, colorizer *render.Colorizer) {
	in.setPhase(PhaseReadingSource)

	buf := make([]byte, readChunk)
	var carry []byte

	for {
		if ctx.Err() != nil {
			in.drain(carry, colorizer)
			return
		}

		n, err := src.ReadSome(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			var lines [][]byte
			lines, carry = splitLines(carry)
			for _, l := range lines {
				in.emit(l, colorizer)
			}
			if len(lines) > 0 {
				in.signal()
			}
			in.setPhase(PhaseReadingSource)
		}

		switch {
		case err == nil:
			continue
		case err == io.EOF:
			in.setPhase(PhaseAwaitingTail)
			if src.WaitForMore(ctx, in.opts.PollInterval) {
				in.setPhase(PhaseReadingSource)
				continue
			}
			if ctx.Err() != nil {
				in.drain(carry, colorizer)
				return
			}
			if len(carry) > 0 {
				in.emit(carry, colorizer)
				in.signal()
			}
			return
		default:
			// The held partial line was already read; keep it ahead of
			// the error marker.
			if len(carry) > 0 {
				in.emit(carry, colorizer)
				in.signal()
			}
			in.synthetic(src.Name(), err)
			return
		}
	}
}

// drain appends any held partial line on the way out of a cancelled run.
func (in *Ingester) drain(carry []byte, colorizer *render.Colorizer) {
	in.setPhase(PhaseDraining)
	if len(carry) > 0 {
		in.emit(carry, colorizer)
		in.signal()
	}
}

// emit publishes one physical line. The color state before the line is
// stored with it; the state after becomes the next line's inheritance.
func (in *Ingester) emit(line []byte, colorizer *render.Colorizer) {
	content := make([]byte, len(line))
	copy(content, line)
	if colorizer != nil {
		content = colorizer.Line(content)
	}

	before := in.state
	_, after := ansi.Consume(content, before)
	in.state = after
	in.store.Append(content, before)
}

// synthetic records a per-source failure as a line in the store, so the
// viewer shows it in sequence with the surrounding content.
func (in *Ingester) synthetic(name string, err error) {
	in.logger.Warn("source error", "source", name, "err", err)
	msg := fmt.Sprintf("%s: %v", name, err)
	in.store.Append([]byte(msg), in.state)
	in.signal()
}

func (in *Ingester) signal() {
	select {
	case in.updates <- struct{}{}:
	default:
	}
}

// splitLines cuts data into complete lines on CR, LF or CRLF, returning
// the incomplete remainder. A trailing CR is held back because it may be
// the first half of a CRLF split across reads.
func splitLines(data []byte) (lines [][]byte, rest []byte) {
	start := 0
	i := 0
	for i < len(data) {
		switch data[i] {
		case '\n':
			lines = append(lines, data[start:i])
			i++
			start = i
		case '\r':
			if i == len(data)-1 {
				return lines, data[start:]
			}
			lines = append(lines, data[start:i])
			i++
			if data[i] == '\n' {
				i++
			}
			start = i
		default:
			i++
		}
	}
	return lines, data[start:]
}
