package notation

import (
	"go-shorthand/music"
)

// Note is a fully specified note
type Note struct {
	PitchClass string
	Octave     string
	Duration   string
}

// Name is pitch class and octave concatenated, e.g. "c#4"
func (n Note) Name() string {
	return n.PitchClass + n.Octave
}

// Carry is the octave and duration applied to notes that omit them
type Carry struct {
	Octave   string
	Duration string
}

// DefaultCarry seeds a phrase
var DefaultCarry = Carry{Octave: "3", Duration: "4n"}

// apply fills the omitted fields of p and returns the note plus the carry for the next one
func (c Carry) apply(p PartialNote) (Note, Carry) {
	n := Note{PitchClass: p.PitchClass, Octave: p.Octave, Duration: p.Duration}
	if n.Octave == "" {
		n.Octave = c.Octave
	}
	if n.Duration == "" {
		n.Duration = c.Duration
	}
	return n, Carry{Octave: n.Octave, Duration: n.Duration}
}

// Resolve folds partials into full notes, carrying octave and duration forward
func Resolve(partials []PartialNote, seed Carry) []Note {
	notes, _ := fold(partials, seed)
	return notes
}

func fold(partials []PartialNote, acc Carry) ([]Note, Carry) {
	notes := make([]Note, 0, len(partials))
	for _, p := range partials {
		var n Note
		n, acc = acc.apply(p)
		notes = append(notes, n)
	}
	return notes, acc
}

// Accumulate lays notes end to end starting at zero
func Accumulate(notes []Note, bpm float64) (music.Music, error) {
	events := make(music.Music, 0, len(notes))
	var clock float64 // seconds
	for _, n := range notes {
		secs, err := music.Seconds(n.Duration, bpm)
		if err != nil {
			return nil, err
		}
		events = append(events, music.Note(music.FromSeconds(clock), n.Name(), music.Code(n.Duration)))
		clock += secs
	}
	return events, nil
}
