package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadPitch is returned when a pitch name cannot be parsed
var ErrBadPitch = errors.New("bad pitch name")

// Pitch is a MIDI-style note number (C4 = 60). Octaves below -1 give negative numbers.
type Pitch int

// MiddleC is C4
const MiddleC Pitch = 60

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterClass = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

// ParsePitch converts a name like "C4", "bb3", "F#-1" or "Cx4" into a Pitch.
// The letter is case-insensitive; accidentals are bb, b, #, x.
func ParsePitch(name string) (Pitch, error) {
	s := strings.TrimSpace(name)
	if len(s) < 2 {
		return 0, errors.Wrapf(ErrBadPitch, "%q", name)
	}

	class, ok := letterClass[toLower(s[0])]
	if !ok {
		return 0, errors.Wrapf(ErrBadPitch, "%q: invalid letter", name)
	}
	rest := s[1:]

	switch {
	case strings.HasPrefix(rest, "bb"):
		class -= 2
		rest = rest[2:]
	case strings.HasPrefix(rest, "b"):
		class--
		rest = rest[1:]
	case strings.HasPrefix(rest, "#"):
		class++
		rest = rest[1:]
	case strings.HasPrefix(rest, "x"):
		class += 2
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, errors.Wrapf(ErrBadPitch, "%q: invalid octave", name)
	}

	return Pitch((octave+1)*12 + class), nil
}

// MustParsePitch is ParsePitch for constants; it panics on error
func MustParsePitch(name string) Pitch {
	p, err := ParsePitch(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Octave returns the octave number, flooring for negative pitches
func (p Pitch) Octave() int {
	return floorDiv(int(p), 12) - 1
}

// Class returns the pitch class 0-11 (C = 0)
func (p Pitch) Class() int {
	return int(p) - floorDiv(int(p), 12)*12
}

// Name spells the pitch with sharps, e.g. "C#4"
func (p Pitch) Name() string {
	return fmt.Sprintf("%s%d", sharpNames[p.Class()], p.Octave())
}

func (p Pitch) String() string {
	return p.Name()
}

// Transpose shifts by n semitones
func (p Pitch) Transpose(n int) Pitch {
	return p + Pitch(n)
}

// Frequency in Hz, equal temperament with A4 = 440
func (p Pitch) Frequency() float64 {
	return 440 * math.Pow(2, float64(int(p)-69)/12)
}

// InMIDIRange reports whether the pitch fits a 7-bit MIDI key
func (p Pitch) InMIDIRange() bool {
	return p >= 0 && p <= 127
}

// TransposeName shifts a pitch name by n semitones and respells it with sharps
func TransposeName(name string, n int) (string, error) {
	p, err := ParsePitch(name)
	if err != nil {
		return "", err
	}
	return p.Transpose(n).Name(), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
