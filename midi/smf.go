package midi

import (
	"bytes"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"go-shorthand/debug"
	"go-shorthand/music"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ticks per quarter note in exported files
const resolution = smf.MetricTicks(960)

// Policy gives the onset delay and 0..1 velocity for an event of the given length
type Policy func(e music.Event, length time.Duration) (delay time.Duration, velocity float64)

// SMFOptions controls export
type SMFOptions struct {
	Tempo   float64 // BPM written as the file tempo and used to resolve codes
	Channel uint8   // 0-15
	Policy  Policy  // nil plays every note on time at full velocity
}

// Events flattens m into note on/off events sorted by time, offs first on ties.
// Pitches outside the MIDI range are skipped.
func Events(m music.Music, opts SMFOptions) ([]Event, error) {
	var events []Event
	for _, e := range m {
		length, err := e.Duration.Resolve(opts.Tempo)
		if err != nil {
			return nil, err
		}
		delay, velocity := time.Duration(0), 1.0
		if opts.Policy != nil {
			delay, velocity = opts.Policy(e, length)
		}
		on := e.Time + delay
		for _, name := range e.Notes {
			key, err := Key(name)
			if err != nil {
				if errors.Is(err, ErrKeyRange) {
					debug.Log("midi", "skipping %v", err)
					continue
				}
				return nil, err
			}
			events = append(events,
				Event{Time: on, On: true, Channel: opts.Channel, Key: key, Velocity: Velocity(velocity)},
				Event{Time: on + length, Channel: opts.Channel, Key: key},
			)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		return !events[i].On && events[j].On
	})
	return events, nil
}

func ticks(d time.Duration, bpm float64) uint32 {
	quarters := d.Seconds() * bpm / 60
	return uint32(math.Round(quarters * float64(resolution.Ticks4th())))
}

// WriteSMF writes m as a single-track Standard MIDI File
func WriteSMF(w io.Writer, m music.Music, opts SMFOptions) error {
	if opts.Tempo <= 0 {
		opts.Tempo = music.DefaultTempo
	}
	if opts.Channel > 15 {
		return errors.Errorf("channel %d outside 0..15", opts.Channel)
	}
	events, err := Events(m, opts)
	if err != nil {
		return err
	}

	s := smf.New()
	s.TimeFormat = resolution

	var tr smf.Track
	tr.Add(0, smf.MetaMeter(4, 4))
	tr.Add(0, smf.MetaTempo(opts.Tempo))

	var last uint32
	for _, ev := range events {
		at := ticks(ev.Time, opts.Tempo)
		delta := at - last
		last = at
		if ev.On {
			tr.Add(delta, gomidi.NoteOn(ev.Channel, ev.Key, ev.Velocity))
		} else {
			tr.Add(delta, gomidi.NoteOff(ev.Channel, ev.Key))
		}
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return errors.Wrap(err, "add track")
	}
	if _, err := s.WriteTo(w); err != nil {
		return errors.Wrap(err, "write smf")
	}
	debug.Log("midi", "wrote %d note events at %.0f BPM", len(events), opts.Tempo)
	return nil
}

// WriteSMFFile writes m to path
func WriteSMFFile(path string, m music.Music, opts SMFOptions) error {
	var buf bytes.Buffer
	if err := WriteSMF(&buf, m, opts); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadSMF parses a Standard MIDI File. The smf reader can panic on
// malformed input, which is returned as an error.
func ReadSMF(r io.Reader) (s *smf.SMF, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("parse smf: %v", rec)
		}
	}()
	s, err = smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse smf")
	}
	return s, nil
}

// NoteOns lists the keys of every note on in s, in track order
func NoteOns(s *smf.SMF) []uint8 {
	var keys []uint8
	for _, track := range s.Tracks {
		for _, ev := range track {
			var channel, key, velocity uint8
			if ev.Message.GetNoteOn(&channel, &key, &velocity) {
				keys = append(keys, key)
			}
		}
	}
	return keys
}
