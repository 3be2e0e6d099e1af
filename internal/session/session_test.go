package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mview/internal/ingest"
)

func TestSessionIngestsFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	s, err := New(Options{Paths: []string{path}})
	require.NoError(t, err)
	defer s.Close()

	s.Start()

	deadline := time.After(2 * time.Second)
	for s.Ingester.Phase() != ingest.PhaseExited {
		select {
		case <-deadline:
			t.Fatal("ingester did not finish")
		case <-time.After(5 * time.Millisecond):
		}
	}

	assert.Equal(t, 3, s.Store.Count())
	assert.Equal(t, "one", string(s.Store.Get(0).Content))
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))

	s, err := New(Options{Paths: []string{path}, Follow: true})
	require.NoError(t, err)

	s.Start()
	time.Sleep(20 * time.Millisecond)

	s.Close()
	s.Close()
}

func TestLabel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"stdin", nil, "(stdin)"},
		{"single", []string{"a.log"}, "a.log"},
		{"multiple", []string{"a.log", "b.log", "c.log"}, "a.log (+2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(Options{Paths: tt.paths})
			require.NoError(t, err)
			defer s.Close()
			assert.Equal(t, tt.want, s.Label())
		})
	}
}
