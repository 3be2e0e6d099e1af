package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/mview/internal/ansi"
	"github.com/user/mview/internal/config"
	"github.com/user/mview/internal/flow"
	"github.com/user/mview/internal/ingest"
	"github.com/user/mview/internal/search"
	"github.com/user/mview/internal/store"
	"github.com/user/mview/internal/view"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeFilter
)

// messageTTL is how long transient status messages stay visible.
const messageTTL = 2 * time.Second

// lineMsg signals that new lines arrived in the store.
type lineMsg struct{}

// expireMsg clears a transient status message.
type expireMsg struct{}

// Model is the main application model
type Model struct {
	cfg   *config.Config
	store *store.Store
	set   *search.Set
	ing   *ingest.Ingester
	vp    *view.Viewport

	keys  KeyMap
	input textinput.Model

	mode  Mode
	slot  int
	label string
	debug bool

	width  int
	height int

	// Transient status message
	message string
	msgTime time.Time
}

// NewModel creates a new application model
func NewModel(cfg *config.Config, st *store.Store, set *search.Set, ing *ingest.Ingester, term ansi.Terminal, label string, debug bool) *Model {
	b := flow.NewBuilder(st.ActiveView(), set, term, 80, cfg.Display.TabWidth)
	vp := view.New(b, 80, 23, debug)

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = ""

	return &Model{
		cfg:    cfg,
		store:  st,
		set:    set,
		ing:    ing,
		vp:     vp,
		keys:   NewKeyMap(cfg.Keybindings),
		input:  ti,
		mode:   ModeNormal,
		label:  label,
		debug:  debug,
		width:  80,
		height: 24,
	}
}

// Viewport exposes the viewport for tests.
func (m *Model) Viewport() *view.Viewport {
	return m.vp
}

func waitForLine(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return lineMsg{}
	}
}

func expireAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return expireMsg{}
	})
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return waitForLine(m.ing.Updates())
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve one row for the status bar
		m.vp.Resize(msg.Width, msg.Height-1)
		return m, nil

	case lineMsg:
		m.vp.OnAppend()
		return m, waitForLine(m.ing.Updates())

	case expireMsg:
		if time.Since(m.msgTime) >= messageTTL {
			m.message = ""
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == ModeSearch {
		return m.handleSearchKey(msg)
	}
	if m.mode == ModeFilter {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ScrollDown):
		m.vp.Scroll(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.vp.Scroll(-1)

	case key.Matches(msg, m.keys.PageDown):
		m.vp.Page(1)
	case key.Matches(msg, m.keys.PageUp):
		m.vp.Page(-1)

	case key.Matches(msg, m.keys.Top):
		m.vp.Home()
	case key.Matches(msg, m.keys.Bottom):
		m.vp.End()

	case key.Matches(msg, m.keys.Search):
		m.mode = ModeSearch
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Filter):
		m.mode = ModeFilter
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextMatch):
		return m, m.repeatSearch(1)
	case key.Matches(msg, m.keys.PrevMatch):
		return m, m.repeatSearch(-1)

	case key.Matches(msg, m.keys.Follow):
		on := !m.vp.Follow()
		m.vp.SetFollow(on)
		if on {
			m.vp.End()
		}
	}

	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		pattern := m.input.Value()
		m.mode = ModeNormal
		m.input.Blur()
		if pattern == "" {
			return m, m.notify("empty pattern")
		}
		if err := m.set.Install(m.slot, pattern); err != nil {
			return m, m.notify(err.Error())
		}
		m.vp.Invalidate()
		if !m.vp.SearchJump(m.set, m.slot, 1) {
			return m, m.notify("pattern not found: " + pattern)
		}
		return m, nil

	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case "1", "2", "3", "4", "5":
		// A digit while the buffer is empty picks the pattern slot;
		// once typing has started it is part of the pattern.
		if m.input.Value() == "" {
			m.slot = int(msg.String()[0] - '1')
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		pattern := m.input.Value()
		m.mode = ModeNormal
		m.input.Blur()
		if pattern == "" {
			m.clearFilter()
			return m, nil
		}
		m.installFilter(pattern)
		return m, nil

	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) repeatSearch(dir int) tea.Cmd {
	if m.set.Pattern(m.slot) == "" {
		return m.notify("no active search")
	}
	if !m.vp.SearchJump(m.set, m.slot, dir) {
		return m.notify("no more matches")
	}
	return nil
}

// installFilter narrows the active view to matching lines, keeping the
// cursor on (or after) the line it was on.
func (m *Model) installFilter(pattern string) {
	original := m.vp.Builder().View().Original(m.vp.Cursor().Index)

	m.store.InstallFilter(store.Contains(pattern))
	m.vp.Builder().SetView(m.store.ActiveView())

	idx := m.store.FilteredIndexFor(original)
	if idx < 0 {
		idx = m.store.FilteredCount() - 1
	}
	if idx < 0 {
		idx = 0
	}
	m.vp.SetCursor(idx, 0)
}

func (m *Model) clearFilter() {
	if !m.store.Filtered() {
		return
	}
	original := m.vp.Builder().View().Original(m.vp.Cursor().Index)

	m.store.ClearFilter()
	m.vp.Builder().SetView(m.store.ActiveView())

	if original < 0 {
		original = 0
	}
	m.vp.SetCursor(original, 0)
}

func (m *Model) notify(text string) tea.Cmd {
	m.message = text
	m.msgTime = time.Now()
	return expireAfter(messageTTL)
}

// View implements tea.Model
func (m *Model) View() string {
	var builder strings.Builder

	builder.WriteString(m.vp.Repaint())
	builder.WriteString("\n")
	builder.WriteString(m.statusLine())

	return builder.String()
}

func (m *Model) statusLine() string {
	statusStyle := lipgloss.NewStyle().
		Background(lipgloss.Color(m.cfg.Theme.StatusBar)).
		Foreground(lipgloss.Color(m.cfg.Theme.StatusBarText)).
		Width(m.width)

	switch m.mode {
	case ModeSearch:
		prompt := "/"
		if m.slot > 0 {
			prompt = fmt.Sprintf("/[%d]", m.slot+1)
		}
		return statusStyle.Render(prompt + m.input.View())
	case ModeFilter:
		return statusStyle.Render("&" + m.input.View())
	}

	if m.message != "" {
		return statusStyle.Render(" " + m.message)
	}

	line, total := m.vp.Position()
	status := fmt.Sprintf(" %s  L%d/%d  %.0f%%", m.label, line, total, m.vp.Percent())

	if m.store.Filtered() {
		status += fmt.Sprintf("  [filter %d/%d]", m.store.FilteredCount(), m.store.Count())
	}
	if m.vp.Follow() {
		status += "  [following]"
	}
	if m.debug {
		status += fmt.Sprintf("  [rows %d]", m.vp.ChangedRows())
	}

	return statusStyle.Render(status)
}
