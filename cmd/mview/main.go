package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/user/mview/internal/session"
	"github.com/user/mview/internal/ui"
)

var (
	noExpand     bool
	debugRepaint bool
	recursive    bool
	follow       bool
	colorize     bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mview [file...]",
		Short:        "page through text files or stdin",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args)
		},
	}

	cmd.Flags().BoolVarP(&noExpand, "no-expand", "b", false, "treat arguments as literal paths, no wildcard expansion")
	cmd.Flags().BoolVarP(&debugRepaint, "debug-repaint", "d", false, "rebuild every screen row on every update")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into directories")
	cmd.Flags().BoolVarP(&follow, "follow", "w", false, "keep watching files for appended data")
	cmd.Flags().BoolVar(&colorize, "color", false, "syntax-colorize recognized file types")

	return cmd
}

func run(args []string) error {
	opts := session.Options{
		Paths:           args,
		Recursive:       recursive,
		ExpandWildcards: !noExpand,
		Follow:          follow,
		Colorize:        colorize,
		Debug:           debugRepaint,
	}

	// Redirected output gets the plain content, no paging.
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return dump(opts)
	}

	s, err := session.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()
	s.Start()

	m := ui.NewModel(s.Config, s.Store, s.Set, s.Ingester, s.Term, s.Label(), debugRepaint)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	return nil
}

// dump reads all input to completion and writes it line by line to
// stdout.
func dump(opts session.Options) error {
	opts.Follow = false

	s, err := session.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Ingester.Run(context.Background()); err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	for i := 0; i < s.Store.Count(); i++ {
		w.Write(s.Store.Get(i).Content)
		w.WriteByte('\n')
	}
	return w.Flush()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
