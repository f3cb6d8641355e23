package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/lvlstat/internal/buffer"
	"github.com/Geun-Oh/lvlstat/internal/entry"
	"github.com/Geun-Oh/lvlstat/internal/monitor"
	"github.com/Geun-Oh/lvlstat/internal/sink"
	"github.com/Geun-Oh/lvlstat/internal/stream"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_LoadingUntilSized(t *testing.T) {
	m := NewModel("app.log", nil, nil)
	assert.Equal(t, "Loading...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, m.View(), "app.log")
	assert.Contains(t, m.View(), "RUNNING")
	assert.Contains(t, m.View(), "[q]Quit")
}

func TestModel_RendersReports(t *testing.T) {
	ring := buffer.NewRing(4)
	ring.Push(entry.Record{Timestamp: "t1", Level: entry.LevelError, Message: "disk failure"})

	m := NewModel("app.log", nil, ring)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, ReportMsg{
		Time:      time.Now(),
		Snapshot:  monitor.Snapshot{"INFO": 7, "ERROR": 2},
		Lines:     10,
		Discarded: 1,
	})

	view := m.View()
	assert.Equal(t, 1, m.reports)
	assert.Contains(t, view, "INFO")
	assert.Contains(t, view, " 7")
	assert.Contains(t, view, "WARNING")
	assert.Contains(t, view, "Lines: 10")
	assert.Contains(t, view, "Discarded: 1")
	assert.Contains(t, view, "disk failure")
}

func TestModel_Done(t *testing.T) {
	m := NewModel("app.log", nil, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := update(t, m, DoneMsg{Result: stream.Result{
		Snapshot: monitor.Snapshot{"WARNING": 3},
		Lines:    3,
		TaskErr:  errors.New("reporter: boom"),
	}})
	assert.Nil(t, cmd, "a finished run waits for the user to quit")
	assert.True(t, m.done)

	view := m.View()
	assert.Contains(t, view, "DONE")
	assert.Contains(t, view, "reporter: boom")
	assert.Contains(t, view, "Lines: 3")
}

func TestModel_DoneWithStartErrorQuits(t *testing.T) {
	m := NewModel("missing.log", nil, nil)
	_, cmd := update(t, m, DoneMsg{Err: errors.New("file access")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		_, cmd := update(t, NewModel("x", nil, nil), key)
		require.NotNil(t, cmd, key.String())
		assert.Equal(t, tea.Quit(), cmd())
	}

	_, cmd := update(t, NewModel("x", nil, nil), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
}

func TestModel_TickReadsRate(t *testing.T) {
	rate := monitor.NewRateDetector(10*time.Second, 3)
	rate.Record()
	rate.Record()

	m := NewModel("x", rate, nil)
	m, cmd := update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd, "tick reschedules itself")
	assert.Positive(t, m.rate)
}

type captureSender struct {
	msgs []tea.Msg
}

func (c *captureSender) Send(msg tea.Msg) { c.msgs = append(c.msgs, msg) }

func TestSink_ForwardsReports(t *testing.T) {
	c := &captureSender{}
	s := NewSink(c)

	require.NoError(t, s.Write(&sink.Report{RunID: "r1", Snapshot: monitor.Snapshot{"INFO": 1}}))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())
	assert.Equal(t, "tui", s.Name())

	require.Len(t, c.msgs, 1)
	msg, ok := c.msgs[0].(ReportMsg)
	require.True(t, ok)
	assert.Equal(t, "r1", msg.RunID)
	assert.Equal(t, 1, msg.Snapshot["INFO"])
}
