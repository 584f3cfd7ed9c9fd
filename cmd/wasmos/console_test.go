package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/r00ster91/wasmos/internal/config"
	"github.com/r00ster91/wasmos/sys"
)

func TestUseConsole(t *testing.T) {
	var buf bytes.Buffer
	require.True(t, useConsole(config.TUIAlways, &buf))
	require.False(t, useConsole(config.TUINever, &buf))
	// Only a terminal can show the console.
	require.False(t, useConsole(config.TUIAuto, &buf))
}

func newSizedConsoleModel(t *testing.T, fds *sys.FileTable) *consoleModel {
	m := newConsoleModel(fds, "test.wasm", time.Millisecond)
	require.Equal(t, "Starting test.wasm...", m.View())

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	require.Nil(t, cmd)
	require.True(t, m.ready)
	require.Equal(t, 10-headerHeight-footerHeight, m.viewport.Height)
	return m
}

func TestConsoleModel_Redraw(t *testing.T) {
	fds := sys.NewFileTable(sys.DefaultDescriptors)
	m := newSizedConsoleModel(t, fds)
	require.Contains(t, m.View(), "running")

	_, err := fds.Append(1, []byte("hello"))
	require.NoError(t, err)

	// Output is not shown until the next tick.
	require.NotContains(t, m.View(), "hello")
	_, cmd := m.Update(tickMsg{})
	require.NotNil(t, cmd)
	require.Contains(t, m.View(), "hello")

	_, err = fds.Append(2, []byte("oops"))
	require.NoError(t, err)
	_, cmd = m.Update(doneMsg{status: sys.ExitStatus{Reason: sys.ExitProcExit, Code: 3}})
	require.Nil(t, cmd)

	view := m.View()
	require.Contains(t, view, "proc_exit(3)")
	require.Contains(t, view, "oops")

	// Ticks stop once the guest is done.
	_, cmd = m.Update(tickMsg{})
	require.Nil(t, cmd)
}

func TestConsoleModel_Error(t *testing.T) {
	m := newSizedConsoleModel(t, sys.NewFileTable(sys.DefaultDescriptors))

	m.Update(doneMsg{err: errors.New("drop at 0x0: stack underflow")})
	require.Contains(t, m.View(), "error: drop at 0x0: stack underflow")
}

func TestConsoleModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	} {
		m := newSizedConsoleModel(t, sys.NewFileTable(sys.DefaultDescriptors))
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		require.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestConsoleModel_Resize(t *testing.T) {
	m := newSizedConsoleModel(t, sys.NewFileTable(sys.DefaultDescriptors))

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 2})
	require.Equal(t, 80, m.viewport.Width)
	require.Equal(t, 1, m.viewport.Height)
}
