package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"go-shorthand/aural"
	"go-shorthand/config"
	"go-shorthand/debug"
	"go-shorthand/midi"
	"go-shorthand/music"
	"go-shorthand/notation"
	"go-shorthand/playback"
	"go-shorthand/theme"
	"go-shorthand/widgets"
)

// Mode selects how the input line is read
type Mode int

const (
	ModeShorthand Mode = iota
	ModeAural
)

func (md Mode) String() string {
	if md == ModeAural {
		return "aural"
	}
	return "shorthand"
}

const (
	tempoStep    = 5
	tickInterval = 50 * time.Millisecond
)

type Model struct {
	Config *config.Config
	Engine playback.Engine
	Theme  *theme.Theme
	Clock  clock.Clock
	Ports  *midi.PortWatcher // may be nil

	mode     Mode
	input    string
	tempo    float64
	score    music.Music
	rejected []string
	handle   *playback.Handle
	started  time.Time
	playhead int
	status   string
	ports    []string
	width    int
	quitting bool
}

// FinishedMsg is sent when a playback handle finishes
type FinishedMsg struct {
	ID  uuid.UUID
	Err error
}

// TickMsg advances the playhead
type TickMsg time.Time

type PortEventMsg midi.PortEvent

func NewModel(cfg *config.Config, eng playback.Engine, th *theme.Theme) Model {
	return Model{
		Config:   cfg,
		Engine:   eng,
		Theme:    th,
		Clock:    clock.New(),
		tempo:    cfg.Tempo,
		playhead: -1,
	}
}

func waitFor(h *playback.Handle) tea.Cmd {
	return func() tea.Msg {
		<-h.Done()
		return FinishedMsg{ID: h.ID, Err: h.Err()}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func ListenForPorts(w *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-w.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	if m.Ports == nil {
		return nil
	}
	return ListenForPorts(m.Ports)
}

// Mode returns the current input mode
func (m Model) Mode() Mode { return m.mode }

// Input returns the current input line
func (m Model) Input() string { return m.input }

// Tempo returns the playback tempo
func (m Model) Tempo() float64 { return m.tempo }

// Score returns the last scheduled score
func (m Model) Score() music.Music { return m.score }

// Handle returns the current playback, or nil
func (m Model) Handle() *playback.Handle { return m.handle }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.stop()
			return m, tea.Quit

		case "enter":
			return m.play()

		case "ctrl+s":
			m.stop()
			m.status = "stopped"

		case "tab":
			if m.mode == ModeShorthand {
				m.mode = ModeAural
			} else {
				m.mode = ModeShorthand
			}

		case "ctrl+up", "pgup":
			m.tempo = music.ClampTempo(m.tempo + tempoStep)

		case "ctrl+down", "pgdown":
			m.tempo = music.ClampTempo(m.tempo - tempoStep)

		case "backspace":
			if r := []rune(m.input); len(r) > 0 {
				m.input = string(r[:len(r)-1])
			}

		case "ctrl+u":
			m.input = ""

		default:
			switch msg.Type {
			case tea.KeyRunes:
				m.input += string(msg.Runes)
			case tea.KeySpace:
				m.input += " "
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case TickMsg:
		if m.handle == nil || m.handle.HasFinished() {
			return m, nil
		}
		m.playhead = playheadAt(m.score, m.Clock.Since(m.started))
		return m, tick()

	case FinishedMsg:
		// a stopped handle may report after its replacement started
		if m.handle == nil || msg.ID != m.handle.ID {
			return m, nil
		}
		m.playhead = len(m.score)
		m.status = "done"
		if msg.Err != nil {
			m.status = "engine error: " + msg.Err.Error()
		}

	case PortEventMsg:
		m.ports = m.Ports.Ports()
		verb := "connected"
		if msg.Type == midi.PortRemoved {
			verb = "disconnected"
		}
		m.status = fmt.Sprintf("%s %s", msg.Name, verb)
		return m, ListenForPorts(m.Ports)
	}

	return m, nil
}

func (m *Model) stop() {
	if m.handle != nil {
		m.handle.Stop()
	}
}

// play compiles the input line and schedules it, replacing any current playback
func (m Model) play() (tea.Model, tea.Cmd) {
	m.stop()
	text := strings.TrimSpace(m.input)

	var score music.Music
	switch m.mode {
	case ModeAural:
		m.rejected = nil
		spec, err := aural.ParseSpec(text)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		ao, err := aural.OptionsFromConfig(m.Config.Playback)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		deg, err := aural.Resolve(spec)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		var transpose int
		score, transpose, err = aural.BuildScore(deg, ao)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		debug.Log("tui", "aural %q transposed %d", text, transpose)

	default:
		c, err := notation.NewCompiler(notation.Options{
			Tempo: m.tempo,
			Carry: notation.Carry{Octave: m.Config.DefaultOctave, Duration: m.Config.DefaultDuration},
		})
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		res := c.Compile(text)
		if res.HasWarning() {
			debug.Log("tui", "rejected: %s", res.Warning)
		}
		score, m.rejected = res.Music, res.Rejected
	}

	h, err := playback.Schedule(score, m.Engine, playback.Options{Tempo: m.tempo, Clock: m.Clock})
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.score = score
	m.handle = h
	m.started = m.Clock.Now()
	m.playhead = -1
	m.status = fmt.Sprintf("playing %d events over %v", len(score), h.Length().Round(time.Millisecond))
	return m, tea.Batch(waitFor(h), tick())
}

// playheadAt is the index of the last event started by elapsed, -1 before the first
func playheadAt(m music.Music, elapsed time.Duration) int {
	head := -1
	for i, e := range m {
		if e.Time > elapsed {
			break
		}
		head = i
	}
	return head
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	inputStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Bold(true)

	playState := "STOP"
	if m.handle != nil && !m.handle.HasFinished() {
		playState = "PLAY"
	}
	portStatus := ""
	if len(m.ports) > 0 {
		portStatus = "  ports:" + strings.Join(m.ports, ",")
	}
	header := headerStyle.Render(fmt.Sprintf("go-shorthand  %s  %3.0fbpm  %s%s", playState, m.tempo, m.mode, portStatus))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(inputStyle.Render("> " + m.input + "_"))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderStrip(m.Theme, m.score, m.playhead, m.width))
	if w := widgets.RenderWarning(m.Theme, m.rejected); w != "" {
		out.WriteString("\n")
		out.WriteString(w)
	}
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(m.status))
	}
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{{
		Keys: []widgets.KeyBinding{
			{Key: "enter", Desc: "play"},
			{Key: "ctrl+s", Desc: "stop"},
			{Key: "tab", Desc: "shorthand / aural"},
			{Key: "ctrl+↑/↓", Desc: "tempo"},
			{Key: "ctrl+u", Desc: "clear"},
			{Key: "esc", Desc: "quit"},
		},
	}})))

	return out.String()
}
