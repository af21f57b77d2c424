package midi

import (
	"math"
	"time"

	"go-shorthand/music"

	"github.com/pkg/errors"
)

// ErrKeyRange is returned for pitches a 7-bit key cannot hold
var ErrKeyRange = errors.New("pitch outside MIDI key range")

// Event is a note on or off at an offset from the start
type Event struct {
	Time     time.Duration
	On       bool
	Channel  uint8 // 0-15
	Key      uint8
	Velocity uint8
}

// Key converts a pitch name to a MIDI key number (C4 = 60)
func Key(name string) (uint8, error) {
	p, err := music.ParsePitch(name)
	if err != nil {
		return 0, err
	}
	if !p.InMIDIRange() {
		return 0, errors.Wrapf(ErrKeyRange, "%s is %d", name, int(p))
	}
	return uint8(p), nil
}

// Velocity scales 0..1 to 1..127. Zero would read as a note off.
func Velocity(v float64) uint8 {
	scaled := int(math.Round(v * 127))
	if scaled < 1 {
		return 1
	}
	if scaled > 127 {
		return 127
	}
	return uint8(scaled)
}

// Channel converts a 1-16 channel number to the 0-15 wire value
func Channel(n int) (uint8, error) {
	if n < 1 || n > 16 {
		return 0, errors.Errorf("channel %d outside 1..16", n)
	}
	return uint8(n - 1), nil
}
