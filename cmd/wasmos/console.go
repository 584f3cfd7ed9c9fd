package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/r00ster91/wasmos"
	"github.com/r00ster91/wasmos/internal/config"
	"github.com/r00ster91/wasmos/sys"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	stderrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// headerHeight and footerHeight are the lines View renders around the viewport.
const (
	headerHeight = 2
	footerHeight = 2
)

// useConsole returns true if output should be shown in the console UI rather than copied to stdOut after the run.
func useConsole(mode string, stdOut io.Writer) bool {
	switch mode {
	case config.TUIAlways:
		return true
	case config.TUINever:
		return false
	}
	f, ok := stdOut.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type tickMsg struct{}

type doneMsg struct {
	status sys.ExitStatus
	err    error
}

// consoleModel redraws the output of a guest, which runs on another goroutine, every refresh interval.
type consoleModel struct {
	fds      *sys.FileTable
	name     string
	refresh  time.Duration
	viewport viewport.Model
	ready    bool
	done     bool
	status   sys.ExitStatus
	err      error
}

func newConsoleModel(fds *sys.FileTable, name string, refresh time.Duration) *consoleModel {
	return &consoleModel{fds: fds, name: name, refresh: refresh}
}

func (m *consoleModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *consoleModel) Init() tea.Cmd {
	return m.tick()
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - headerHeight - footerHeight
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.redraw()
		return m, nil

	case tickMsg:
		m.redraw()
		if m.done {
			return m, nil
		}
		return m, m.tick()

	case doneMsg:
		m.done, m.status, m.err = true, msg.status, msg.err
		m.redraw()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// redraw replaces the viewport content with everything written so far, following the end unless scrolled up.
func (m *consoleModel) redraw() {
	if !m.ready {
		return
	}
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.content())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *consoleModel) content() string {
	var b strings.Builder
	b.Write(m.fds.Bytes(1))
	if stderr := m.fds.Bytes(2); len(stderr) > 0 {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		b.WriteString(stderrStyle.Render(string(stderr)))
	}
	return b.String()
}

func (m *consoleModel) statusLine() string {
	switch {
	case !m.done:
		return helpStyle.Render("running")
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("error: %v", m.err))
	default:
		return statusStyle.Render(m.status.String())
	}
}

func (m *consoleModel) View() string {
	if !m.ready {
		return "Starting " + m.name + "..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("wasmos"))
	b.WriteString(" ")
	b.WriteString(m.name)
	b.WriteString(" ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ scroll • q quit"))
	return b.String()
}

// runConsole runs the guest on its own goroutine while the console redraws its output. Quitting the console before
// the guest finishes cancels the run.
func runConsole(ctx context.Context, rt wasmos.Runtime, compiled *wasmos.CompiledModule, name string, refresh time.Duration, stdOut io.Writer) (sys.ExitStatus, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newConsoleModel(rt.FileTable(), name, refresh), tea.WithOutput(stdOut))

	done := make(chan doneMsg, 1)
	go func() {
		status, err := rt.Run(ctx, compiled)
		msg := doneMsg{status: status, err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return sys.ExitStatus{}, fmt.Errorf("console failed: %w", err)
	}

	cancel()
	msg := <-done
	return msg.status, msg.err
}
