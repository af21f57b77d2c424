package notation

import (
	"strconv"
	"strings"

	"go-shorthand/music"

	"github.com/pkg/errors"
)

// octaves the grammar can spell
const (
	minOctave = -4
	maxOctave = 11
)

// Format writes m back as shorthand. Octave and duration are left out whenever
// they equal the carried value, so Compile(Format(m)) reproduces the pitches and
// durations of m. Groups, fixed-length events and octaves outside -4..11 have no
// shorthand and are rejected.
func Format(m music.Music, seed Carry) (string, error) {
	tokens := make([]string, 0, len(m))
	carry := seed
	for _, e := range m {
		if e.Chord || len(e.Notes) != 1 {
			return "", errors.Errorf("event at %v is a group; shorthand is melodic only", e.Time)
		}
		if !e.Duration.IsCode() {
			return "", errors.Errorf("event at %v has a fixed length; shorthand needs a duration code", e.Time)
		}

		p, err := music.ParsePitch(e.Notes[0])
		if err != nil {
			return "", err
		}
		if o := p.Octave(); o < minOctave || o > maxOctave {
			return "", errors.Wrapf(ErrNoMatch, "%s at %v: octave %d has no shorthand", p.Name(), e.Time, o)
		}
		name := p.Name()
		class := strings.TrimRight(name, "-0123456789")
		octave := strconv.Itoa(p.Octave())

		var tok strings.Builder
		tok.WriteString(class)
		if octave != carry.Octave {
			tok.WriteString(octave)
		}
		if e.Duration.Code != carry.Duration {
			tok.WriteString(",")
			tok.WriteString(e.Duration.Code)
		}
		tokens = append(tokens, tok.String())
		carry = Carry{Octave: octave, Duration: e.Duration.Code}
	}
	return strings.Join(tokens, " "), nil
}
