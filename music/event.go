package music

import (
	"strings"
	"time"
)

// Event is one playable unit: a single pitch, or a simultaneous group when Chord is set
type Event struct {
	Time     time.Duration // offset from the start of the sequence
	Notes    []string      // pitch names
	Chord    bool
	Duration Duration
}

// Note makes a melodic event
func Note(at time.Duration, name string, d Duration) Event {
	return Event{Time: at, Notes: []string{name}, Duration: d}
}

// Group makes a simultaneous event
func Group(at time.Duration, names []string, d Duration) Event {
	return Event{Time: at, Notes: append([]string(nil), names...), Chord: true, Duration: d}
}

// Label is the note name, or the bracketed group
func (e Event) Label() string {
	if !e.Chord && len(e.Notes) == 1 {
		return e.Notes[0]
	}
	return "[" + strings.Join(e.Notes, " ") + "]"
}

// End returns the time the event stops sounding at bpm
func (e Event) End(bpm float64) (time.Duration, error) {
	d, err := e.Duration.Resolve(bpm)
	if err != nil {
		return 0, err
	}
	return e.Time + d, nil
}

func (e Event) clone() Event {
	e.Notes = append([]string(nil), e.Notes...)
	return e
}

// Music is an ordered event sequence with non-decreasing times starting at 0.
// Treat it as immutable; the methods below return new values.
type Music []Event

// Length is the latest end time over all events at bpm
func (m Music) Length(bpm float64) (time.Duration, error) {
	var length time.Duration
	for _, e := range m {
		end, err := e.End(bpm)
		if err != nil {
			return 0, err
		}
		if end > length {
			length = end
		}
	}
	return length, nil
}

// Transpose returns a copy with every pitch shifted by semitones.
// Times and durations are unchanged.
func (m Music) Transpose(semitones int) (Music, error) {
	out := make(Music, len(m))
	for i, e := range m {
		e = e.clone()
		for j, name := range e.Notes {
			moved, err := TransposeName(name, semitones)
			if err != nil {
				return nil, err
			}
			e.Notes[j] = moved
		}
		out[i] = e
	}
	return out, nil
}

// AtTempo rescales onset times from one tempo to another.
// Code durations follow the tempo they are resolved at; fixed lengths are kept.
func (m Music) AtTempo(from, to float64) Music {
	out := make(Music, len(m))
	scale := from / to
	for i, e := range m {
		e = e.clone()
		e.Time = time.Duration(float64(e.Time) * scale)
		out[i] = e
	}
	return out
}

// Pitches lists every note name in event order
func (m Music) Pitches() []string {
	var names []string
	for _, e := range m {
		names = append(names, e.Notes...)
	}
	return names
}

// Sorted reports whether times are non-decreasing and start at zero
func (m Music) Sorted() bool {
	for i, e := range m {
		if i == 0 && e.Time != 0 {
			return false
		}
		if i > 0 && e.Time < m[i-1].Time {
			return false
		}
	}
	return true
}
