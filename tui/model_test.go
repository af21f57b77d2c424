package tui

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shorthand/config"
	"go-shorthand/playback"
	"go-shorthand/theme"
)

type recorder struct {
	mu    sync.Mutex
	notes [][]string
}

func (r *recorder) Trigger(t playback.Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, t.Notes)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func newTestModel() (Model, *recorder, *clock.Mock) {
	rec := &recorder{}
	mock := clock.NewMock()
	m := NewModel(config.DefaultConfig(), rec, theme.Default())
	m.Clock = mock
	return m, rec, mock
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestTypingEditsInput(t *testing.T) {
	m, _, _ := newTestModel()
	m = typeText(t, m, "c4")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = typeText(t, m, "ex")
	assert.Equal(t, "c4 ex", m.Input())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "c4 e", m.Input())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Empty(t, m.Input())

	// backspace on empty input is harmless
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, m.Input())
}

func TestEnterPlaysShorthand(t *testing.T) {
	m, rec, mock := newTestModel()
	m = typeText(t, m, "c4 e zz g")

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.NotNil(t, m.Handle())
	assert.Len(t, m.Score(), 3)
	assert.Contains(t, m.View(), "PLAY")

	mock.Add(2 * time.Second)
	assert.Eventually(t, func() bool { return rec.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, m.Handle().HasFinished, time.Second, 5*time.Millisecond)

	m, _ = send(t, m, FinishedMsg{ID: m.Handle().ID})
	assert.Contains(t, m.View(), "done")
}

func TestRejectedTokensShown(t *testing.T) {
	m, _, _ := newTestModel()
	m = typeText(t, m, "c4 h9 e")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "ignored: 9")
}

func TestTabPlaysAural(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ModeAural, m.Mode())

	m = typeText(t, m, "major triad")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.Handle())
	// arpeggio then chord
	assert.Len(t, m.Score(), 4)
	assert.True(t, m.Score()[3].Chord)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ModeShorthand, m.Mode())
}

func TestUnknownAuralNameSetsStatus(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "major 9th")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Nil(t, m.Handle())
	assert.Contains(t, m.View(), "unknown aural object")
}

func TestReplayStopsPrevious(t *testing.T) {
	m, _, _ := newTestModel()
	m = typeText(t, m, "c4,1n")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	first := m.Handle()

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, first.HasFinished())
	assert.NotEqual(t, first.ID, m.Handle().ID)

	// the stale handle's finish does not touch the new playback
	m, _ = send(t, m, FinishedMsg{ID: first.ID})
	assert.NotContains(t, m.View(), "done")

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, m.Handle().HasFinished())
	assert.Contains(t, m.View(), "stopped")
}

func TestTempoKeysClamp(t *testing.T) {
	m, _, _ := newTestModel()
	assert.Equal(t, 120.0, m.Tempo())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlUp})
	assert.Equal(t, 125.0, m.Tempo())

	for range 100 {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlDown})
	}
	assert.Equal(t, 20.0, m.Tempo())
}

func TestTickMovesPlayhead(t *testing.T) {
	m, _, mock := newTestModel()
	m = typeText(t, m, "c4,4n e g")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, -1, m.playhead)

	// at 120 BPM each quarter is half a second; stay short of the end
	mock.Add(600 * time.Millisecond)
	m, cmd := send(t, m, TickMsg(mock.Now()))
	assert.Equal(t, 1, m.playhead)
	assert.NotNil(t, cmd)
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel()
	m = typeText(t, m, "c4")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	h := m.Handle()

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.True(t, h.HasFinished())
	assert.Empty(t, m.View())
}
