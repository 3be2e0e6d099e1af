package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/user/mview/internal/ansi"
	"github.com/user/mview/internal/config"
	"github.com/user/mview/internal/ingest"
	"github.com/user/mview/internal/search"
	"github.com/user/mview/internal/store"
)

// Options selects the input and behavior for one viewing session.
type Options struct {
	Paths           []string
	Recursive       bool
	ExpandWildcards bool
	Follow          bool
	Colorize        bool
	Debug           bool
}

// Session owns the shared state of one run: the line store, the search
// set, the captured terminal defaults, and the ingester goroutine.
type Session struct {
	Config   *config.Config
	Store    *store.Store
	Set      *search.Set
	Term     ansi.Terminal
	Ingester *ingest.Ingester
	Logger   *log.Logger

	opts    Options
	logFile *os.File

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New loads configuration and assembles the session. Nothing starts
// reading until Start.
func New(opts Options) (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logFile := newLogger()

	st := store.New()
	ing := ingest.New(st, opts.Paths, ingest.Options{
		Recursive:       opts.Recursive,
		ExpandWildcards: opts.ExpandWildcards,
		Follow:          opts.Follow,
		Colorize:        opts.Colorize || cfg.Display.SyntaxHighlight,
		Theme:           cfg.Display.SyntaxTheme,
		PollInterval:    cfg.PollInterval(),
	}, logger)

	if len(opts.Paths) == 0 {
		ing.SetStdin(os.Stdin)
	}

	return &Session{
		Config:   cfg,
		Store:    st,
		Set:      search.NewSet(),
		Term:     ansi.DetectTerminal(),
		Ingester: ing,
		Logger:   logger,
		opts:     opts,
		logFile:  logFile,
	}, nil
}

// newLogger logs to the file named by MVIEW_DEBUG, or discards. The
// pager owns the terminal, so stderr is never an option while running.
func newLogger() (*log.Logger, *os.File) {
	path := os.Getenv("MVIEW_DEBUG")
	if path == "" {
		return log.New(io.Discard), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(io.Discard), nil
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           log.DebugLevel,
	})
	return logger, f
}

// Label names the input for the status line.
func (s *Session) Label() string {
	switch len(s.opts.Paths) {
	case 0:
		return "(stdin)"
	case 1:
		return s.opts.Paths[0]
	default:
		return fmt.Sprintf("%s (+%d)", s.opts.Paths[0], len(s.opts.Paths)-1)
	}
}

// Start launches the ingester goroutine under a cancellable context.
func (s *Session) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.Ingester.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Error("ingester exited", "err", err)
		}
	}()
}

// Close cancels the ingester, waits for it to drain, and releases the
// debug log. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		if s.logFile != nil {
			s.logFile.Close()
		}
	})
}
