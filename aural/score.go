package aural

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go-shorthand/config"
	"go-shorthand/debug"
	"go-shorthand/music"

	"github.com/pkg/errors"
)

// Random transpose range, inclusive
const (
	MinRandomTranspose = -5
	MaxRandomTranspose = 6
)

// AutoBudget is the total time "auto" spreads across the degrees
const AutoBudget = time.Second

// Transpose is a fixed shift or a random one drawn per build
type Transpose struct {
	Random    bool
	Semitones int
}

// NoteDuration is a fixed unit length, or Auto to split AutoBudget across the degrees
type NoteDuration struct {
	Auto   bool
	Length time.Duration
}

// Options control how degrees become a score
type Options struct {
	Root         string
	Transpose    Transpose
	Arpeggio     bool
	Chord        bool
	NoteDuration NoteDuration
	OnFinish     func()
	Rand         *rand.Rand // nil uses the global source
}

// DefaultOptions: root F4, no transpose, arpeggio then chord, 0.6s per unit
func DefaultOptions() Options {
	return Options{
		Root:         "F4",
		Arpeggio:     true,
		Chord:        true,
		NoteDuration: NoteDuration{Length: 600 * time.Millisecond},
	}
}

// ParseTranspose accepts an integer or "random"
func ParseTranspose(s string) (Transpose, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "random") {
		return Transpose{Random: true}, nil
	}
	if s == "" {
		return Transpose{}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Transpose{}, errors.Errorf("transpose %q: want an integer or \"random\"", s)
	}
	return Transpose{Semitones: n}, nil
}

// ParseNoteDuration accepts seconds ("0.6") or "auto"
func ParseNoteDuration(s string) (NoteDuration, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return NoteDuration{Auto: true}, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs <= 0 {
		return NoteDuration{}, errors.Errorf("note duration %q: want positive seconds or \"auto\"", s)
	}
	return NoteDuration{Length: music.FromSeconds(secs)}, nil
}

// OptionsFromConfig builds Options from the playback section of the config
func OptionsFromConfig(pc config.PlaybackConfig) (Options, error) {
	opts := DefaultOptions()
	if pc.Root != "" {
		opts.Root = pc.Root
	}
	tr, err := ParseTranspose(pc.Transpose)
	if err != nil {
		return Options{}, err
	}
	opts.Transpose = tr
	opts.Arpeggio = pc.Arpeggio
	opts.Chord = pc.Chord
	if pc.NoteDuration != "" {
		nd, err := ParseNoteDuration(pc.NoteDuration)
		if err != nil {
			return Options{}, err
		}
		opts.NoteDuration = nd
	}
	return opts, nil
}

func (o Options) drawTranspose() int {
	if !o.Transpose.Random {
		return o.Transpose.Semitones
	}
	span := MaxRandomTranspose - MinRandomTranspose + 1
	if o.Rand != nil {
		return MinRandomTranspose + o.Rand.IntN(span)
	}
	return MinRandomTranspose + rand.IntN(span)
}

func (o Options) unitLength(n int) time.Duration {
	if o.NoteDuration.Auto {
		return AutoBudget / time.Duration(n)
	}
	return o.NoteDuration.Length
}

// BuildScore lays deg out as single notes (arpeggio) followed by one group (chord),
// each unit starting where the previous one ends. It also returns the transpose used.
// Silent degrees give an empty score.
func BuildScore(deg Degrees, opts Options) (music.Music, int, error) {
	root, err := music.ParsePitch(opts.Root)
	if err != nil {
		return nil, 0, errors.Wrap(err, "root")
	}
	if len(deg) == 0 {
		return music.Music{}, 0, nil
	}
	if !opts.NoteDuration.Auto && opts.NoteDuration.Length <= 0 {
		return nil, 0, errors.Errorf("note duration must be positive, got %v", opts.NoteDuration.Length)
	}

	transpose := opts.drawTranspose()
	start := root.Transpose(transpose)

	names := make([]string, len(deg))
	for i, d := range deg {
		names[i] = start.Transpose(d).Name()
	}

	unit := opts.unitLength(len(deg))
	dur := music.Fixed(unit)

	var score music.Music
	at := func() time.Duration { return time.Duration(len(score)) * unit }
	if opts.Arpeggio {
		for _, name := range names {
			score = append(score, music.Note(at(), name, dur))
		}
	}
	if opts.Chord {
		score = append(score, music.Group(at(), names, dur))
	}

	debug.Log("aural", "built %d units from %v (root %s, transpose %d, unit %v)", len(score), deg, opts.Root, transpose, unit)
	return score, transpose, nil
}
