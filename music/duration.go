package music

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrBadDuration is returned for unknown duration codes
var ErrBadDuration = errors.New("bad duration code")

// DefaultTempo is the tempo durations resolve against when none is given
const DefaultTempo = 120.0

// Tempo limits, same range the sequencer accepts
const (
	MinTempo = 20
	MaxTempo = 300
)

// beats per whole note / measure (4/4 only)
const beatsPerWhole = 4.0

// Duration is either a notation code ("4n", "8t", "2n.") or a fixed length.
// A non-empty Code wins over Length.
type Duration struct {
	Code   string
	Length time.Duration
}

// Code makes a Duration from a notation code
func Code(code string) Duration {
	return Duration{Code: code}
}

// Fixed makes a Duration with a tempo-independent length
func Fixed(d time.Duration) Duration {
	return Duration{Length: d}
}

// IsCode reports whether d is a notation code
func (d Duration) IsCode() bool {
	return d.Code != ""
}

// Resolve returns the real-time length of d at bpm
func (d Duration) Resolve(bpm float64) (time.Duration, error) {
	if !d.IsCode() {
		return d.Length, nil
	}
	secs, err := Seconds(d.Code, bpm)
	if err != nil {
		return 0, err
	}
	return FromSeconds(secs), nil
}

func (d Duration) String() string {
	if d.IsCode() {
		return d.Code
	}
	return strconv.FormatFloat(d.Length.Seconds(), 'f', -1, 64) + "s"
}

// Beats returns the length of a duration code in quarter-note beats.
//
//	0        zero length
//	1m 1n    a whole note / 4/4 measure
//	1n.      dotted whole
//	Nn       N in 2..128 (powers of two), plain
//	Nn.      dotted, x1.5
//	Nt       triplet, x2/3
func Beats(code string) (float64, error) {
	switch code {
	case "0":
		return 0, nil
	case "1m", "1n":
		return beatsPerWhole, nil
	case "1n.":
		return beatsPerWhole * 1.5, nil
	}

	var suffix string
	var mult float64
	switch {
	case strings.HasSuffix(code, "n."):
		suffix, mult = "n.", 1.5
	case strings.HasSuffix(code, "n"):
		suffix, mult = "n", 1
	case strings.HasSuffix(code, "t"):
		suffix, mult = "t", 2.0/3.0
	default:
		return 0, errors.Wrapf(ErrBadDuration, "%q", code)
	}

	n, err := strconv.Atoi(strings.TrimSuffix(code, suffix))
	if err != nil || !isSubdivision(n) {
		return 0, errors.Wrapf(ErrBadDuration, "%q", code)
	}
	return beatsPerWhole / float64(n) * mult, nil
}

// Seconds converts a duration code to seconds at bpm
func Seconds(code string, bpm float64) (float64, error) {
	if bpm <= 0 {
		return 0, errors.Errorf("tempo must be positive, got %v", bpm)
	}
	beats, err := Beats(code)
	if err != nil {
		return 0, err
	}
	return beats * 60 / bpm, nil
}

// FromSeconds converts float seconds to a time.Duration
func FromSeconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// ClampTempo keeps bpm within MinTempo..MaxTempo
func ClampTempo(bpm float64) float64 {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}

func isSubdivision(n int) bool {
	switch n {
	case 2, 4, 8, 16, 32, 64, 128:
		return true
	}
	return false
}
