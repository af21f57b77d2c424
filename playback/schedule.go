package playback

import (
	"time"

	"go-shorthand/aural"
	"go-shorthand/debug"
	"go-shorthand/music"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// ErrNoEngine is returned when Schedule is given no engine
var ErrNoEngine = errors.New("no audio engine")

// Velocities for single notes and simultaneous groups. Groups are quieter so
// stacked voices don't clip.
const (
	VelocityNote  = 1.0
	VelocityGroup = 0.65
)

// Trigger is one dispatch to an engine
type Trigger struct {
	Notes    []string
	Chord    bool
	Duration music.Duration // as written
	Length   time.Duration  // Duration resolved at the playback tempo
	At       time.Time      // absolute start
	Velocity float64        // 0..1
}

// Engine makes sound. Trigger must not block and must not call back into the Handle.
type Engine interface {
	Trigger(t Trigger) error
}

// EngineFunc adapts a function to Engine
type EngineFunc func(Trigger) error

func (f EngineFunc) Trigger(t Trigger) error {
	return f(t)
}

// Options for a single playback
type Options struct {
	Tempo    float64     // resolves duration codes; 0 means music.DefaultTempo
	Clock    clock.Clock // nil means the wall clock
	OnFinish func()
}

// Policy gives the onset delay and velocity for an event sounding for length.
// Groups land half their length late, after an arpeggio has settled, and play quieter.
func Policy(e music.Event, length time.Duration) (time.Duration, float64) {
	if e.Chord {
		return length / 2, VelocityGroup
	}
	return 0, VelocityNote
}

type unit struct {
	event  music.Event
	length time.Duration
	delay  time.Duration // onset offset from the start, group delay included
}

// plan resolves every event up front so a bad duration fails before anything is scheduled
func plan(score music.Music, bpm float64) ([]unit, time.Duration, error) {
	units := make([]unit, 0, len(score))
	var length time.Duration
	for _, e := range score {
		d, err := e.Duration.Resolve(bpm)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "event %s at %v", e.Label(), e.Time)
		}
		delay, _ := Policy(e, d)
		units = append(units, unit{event: e, length: d, delay: e.Time + delay})
		if end := e.Time + d; end > length {
			length = end
		}
	}
	return units, length, nil
}

// Schedule starts playing score on eng and returns immediately.
// Every unit gets its own timer at its onset; a completion timer fires at the
// score's length and sends any unit still pending before finishing. An empty score gives a handle that is already finished, with
// onFinish delivered once from a zero-delay timer.
func Schedule(score music.Music, eng Engine, opts Options) (*Handle, error) {
	if eng == nil {
		return nil, ErrNoEngine
	}
	bpm := opts.Tempo
	if bpm == 0 {
		bpm = music.DefaultTempo
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	units, length, err := plan(score, bpm)
	if err != nil {
		return nil, err
	}

	if len(units) == 0 {
		h := newHandle(0, nil)
		h.finished = true
		close(h.done)
		if opts.OnFinish != nil {
			clk.AfterFunc(0, opts.OnFinish)
		}
		debug.Log("playback", "%s silent", h.ID)
		return h, nil
	}

	h := newHandle(length, opts.OnFinish)
	// guarded by h.mu; dispatch holds it
	sent := make([]bool, len(units))
	fire := func(i int) {
		u := units[i]
		_, velocity := Policy(u.event, u.length)
		h.dispatch(func() error {
			if sent[i] {
				return nil
			}
			sent[i] = true
			return eng.Trigger(Trigger{
				Notes:    append([]string(nil), u.event.Notes...),
				Chord:    u.event.Chord,
				Duration: u.event.Duration,
				Length:   u.length,
				At:       clk.Now(),
				Velocity: velocity,
			})
		})
	}

	timers := make([]*clock.Timer, 0, len(units)+1)
	for i, u := range units {
		timers = append(timers, clk.AfterFunc(u.delay, func() { fire(i) }))
	}
	// Timers due at the same instant run in no particular order, so a unit
	// starting at the very end (a 0 duration) may still be pending here.
	timers = append(timers, clk.AfterFunc(length, func() {
		for i := range units {
			fire(i)
		}
		if h.finish() {
			debug.Log("playback", "%s finished after %v", h.ID, length)
		}
	}))
	h.track(timers)

	debug.Log("playback", "%s scheduled %d units over %v at %.0f BPM", h.ID, len(units), length, bpm)
	return h, nil
}

// PlayAural resolves spec, builds its score and schedules it.
// ao.OnFinish is used when opts.OnFinish is nil.
func PlayAural(spec aural.Spec, eng Engine, ao aural.Options, opts Options) (*Handle, int, error) {
	deg, err := aural.Resolve(spec)
	if err != nil {
		return nil, 0, err
	}
	score, transpose, err := aural.BuildScore(deg, ao)
	if err != nil {
		return nil, 0, err
	}
	if opts.OnFinish == nil {
		opts.OnFinish = ao.OnFinish
	}
	h, err := Schedule(score, eng, opts)
	if err != nil {
		return nil, 0, err
	}
	return h, transpose, nil
}
