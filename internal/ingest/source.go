package ingest

import (
	"bufio"
	"context"
	"io"
	"time"
)

// Source is the minimal capability set the ingester needs from an input.
// Files and the piped stream are handled identically through it.
type Source interface {
	// Name identifies the source in synthetic error lines and the status bar.
	Name() string
	// ReadSome reads available bytes into p, returning io.EOF at end of input.
	ReadSome(p []byte) (int, error)
	// AtEnd reports whether all currently known input has been consumed.
	AtEnd() bool
	// WaitForMore blocks up to d (or until ctx is done) after end of
	// input. True means the source may still produce bytes and reading
	// should resume; false means it is finished (never followable, the
	// poll failed, or ctx fired).
	WaitForMore(ctx context.Context, d time.Duration) bool
	Close() error
}

// fileSource reads a memory-mapped file sequentially. Follow mode remaps
// on growth, so a file appended by another writer keeps producing bytes.
type fileSource struct {
	file   *mappedFile
	pos    int64
	follow bool
}

func openFileSource(path string, follow bool) (*fileSource, error) {
	f, err := openMapped(path)
	if err != nil {
		return nil, err
	}
	return &fileSource{file: f, follow: follow}, nil
}

func (s *fileSource) Name() string {
	return s.file.path
}

func (s *fileSource) ReadSome(p []byte) (int, error) {
	if s.pos >= s.file.Size() {
		return 0, io.EOF
	}
	n, err := s.file.ReadAt(p, s.pos)
	s.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (s *fileSource) AtEnd() bool {
	return s.pos >= s.file.Size()
}

func (s *fileSource) WaitForMore(ctx context.Context, d time.Duration) bool {
	if !s.follow {
		return false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}

	// Even without growth this poll keeps the source alive; the next
	// one may see bytes. A failed stat or remap ends the source.
	if _, err := s.file.refresh(); err != nil {
		return false
	}
	return true
}

func (s *fileSource) Close() error {
	return s.file.Close()
}

// streamSource reads the piped stream. It ends at end-of-stream and can
// never be followed.
type streamSource struct {
	name  string
	r     *bufio.Reader
	close func() error
	eof   bool
}

func newStreamSource(name string, r io.Reader) *streamSource {
	closer := func() error { return nil }
	if c, ok := r.(io.Closer); ok {
		closer = c.Close
	}
	return &streamSource{name: name, r: bufio.NewReader(r), close: closer}
}

func (s *streamSource) Name() string {
	return s.name
}

func (s *streamSource) ReadSome(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err == io.EOF {
		s.eof = true
	}
	return n, err
}

func (s *streamSource) AtEnd() bool {
	return s.eof
}

func (s *streamSource) WaitForMore(context.Context, time.Duration) bool {
	return false
}

func (s *streamSource) Close() error {
	return s.close()
}
