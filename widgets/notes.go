package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-shorthand/music"
	"go-shorthand/theme"
)

// EventState is how far playback has got relative to an event
type EventState int

const (
	Pending EventState = iota
	Sounding
	Played
)

// RenderEvent renders one event as a coloured symbol plus its label
func RenderEvent(th *theme.Theme, e music.Event, state EventState) string {
	sym := th.Symbols.Note
	if e.Chord {
		sym = th.Symbols.Group
	}

	color := th.FG()
	if len(e.Notes) > 0 {
		if p, err := music.ParsePitch(e.Notes[0]); err == nil {
			color = th.PitchColor(int(p))
		}
	}

	style := lipgloss.NewStyle().Foreground(color)
	switch state {
	case Sounding:
		sym = th.Symbols.Playhead
		style = style.Bold(true).Foreground(th.Success())
	case Played:
		style = style.Foreground(th.Muted())
	}
	return style.Render(fmt.Sprintf("%c %s", sym, e.Label()))
}

// RenderStrip renders events in a wrapped line; playhead is the sounding index (-1 for none)
func RenderStrip(th *theme.Theme, m music.Music, playhead, width int) string {
	if len(m) == 0 {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.Pending) + " (empty)")
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0
	for i, e := range m {
		state := Pending
		switch {
		case i == playhead:
			state = Sounding
		case playhead >= 0 && i < playhead:
			state = Played
		}
		cell := RenderEvent(th, e, state)
		w := lipgloss.Width(cell)
		if width > 0 && lineWidth > 0 && lineWidth+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteString(" ")
			lineWidth++
		}
		line.WriteString(cell)
		lineWidth += w
	}
	lines = append(lines, line.String())
	return strings.Join(lines, "\n")
}

// RenderEventTable lists time, notes and duration, one event per row
func RenderEventTable(th *theme.Theme, m music.Music, bpm float64) string {
	head := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dim := lipgloss.NewStyle().Foreground(th.Muted())

	rows := []string{head.Render(fmt.Sprintf("%-9s %-20s %-6s %s", "time", "notes", "dur", "secs"))}
	for _, e := range m {
		secs := dim.Render("?")
		if d, err := e.Duration.Resolve(bpm); err == nil {
			secs = fmt.Sprintf("%.3f", d.Seconds())
		}
		label := lipgloss.NewStyle().Width(20).Render(RenderEvent(th, e, Pending))
		rows = append(rows, fmt.Sprintf("%-9s %s %-6s %s",
			fmt.Sprintf("%.3fs", e.Time.Seconds()), label, e.Duration, secs))
	}
	return strings.Join(rows, "\n")
}

// RenderWarning renders rejected tokens
func RenderWarning(th *theme.Theme, rejected []string) string {
	if len(rejected) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(th.Warning())
	return style.Render(fmt.Sprintf("%c ignored: %s", th.Symbols.Rejected, strings.Join(rejected, ", ")))
}
