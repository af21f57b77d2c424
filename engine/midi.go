package engine

import (
	"sync"
	"time"

	"go-shorthand/debug"
	"go-shorthand/midi"
	"go-shorthand/playback"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// MIDI plays triggers as note on/off pairs on one channel
type MIDI struct {
	send    func(msg gomidi.Message) error
	channel uint8
	clk     clock.Clock
	out     drivers.Out // nil when built from a bare send func

	mu     sync.Mutex
	held   map[uint8]int // key -> sounding count
	timers map[*clock.Timer]struct{}
	closed bool
}

// NewMIDI wraps a send func. channel is 0-15; a nil clk uses the wall clock.
func NewMIDI(send func(msg gomidi.Message) error, channel uint8, clk clock.Clock) *MIDI {
	if clk == nil {
		clk = clock.New()
	}
	return &MIDI{
		send:    send,
		channel: channel & 0x0F,
		clk:     clk,
		held:    make(map[uint8]int),
		timers:  make(map[*clock.Timer]struct{}),
	}
}

// OpenMIDI opens the named output (first port when empty) on channel 1-16
func OpenMIDI(port string, channel int) (*MIDI, error) {
	ch, err := midi.Channel(channel)
	if err != nil {
		return nil, err
	}
	out, err := midi.OpenOut(port)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		out.Close()
		return nil, errors.Wrapf(err, "send to %s", out.String())
	}
	m := NewMIDI(send, ch, nil)
	m.out = out
	return m, nil
}

// Trigger sends note ons now (or at t.At when that is still ahead) and
// schedules the matching note offs
func (m *MIDI) Trigger(t playback.Trigger) error {
	keys := make([]uint8, 0, len(t.Notes))
	for _, name := range t.Notes {
		key, err := midi.Key(name)
		if err != nil {
			if errors.Is(err, midi.ErrKeyRange) {
				debug.Log("engine", "midi: skipping %v", err)
				continue
			}
			return err
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}
	velocity := midi.Velocity(t.Velocity)

	if wait := t.At.Sub(m.clk.Now()); wait > 0 {
		m.after(wait, func() {
			if err := m.noteOn(keys, velocity, t); err != nil {
				debug.Log("engine", "midi: delayed note on: %v", err)
			}
		})
		return nil
	}
	return m.noteOn(keys, velocity, t)
}

func (m *MIDI) noteOn(keys []uint8, velocity uint8, t playback.Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	var sendErr error
	sent := make([]uint8, 0, len(keys))
	for _, key := range keys {
		if err := m.send(gomidi.NoteOn(m.channel, key, velocity)); err != nil {
			sendErr = errors.Wrapf(err, "note on %d", key)
			break
		}
		m.held[key]++
		sent = append(sent, key)
	}
	// keys that went out still get their note off
	if len(sent) > 0 {
		m.afterLocked(t.Length, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, key := range sent {
				m.release(key)
			}
		})
	}
	return sendErr
}

// release sends a note off once the last overlapping trigger of key ends; caller holds mu
func (m *MIDI) release(key uint8) {
	if m.held[key] == 0 {
		return
	}
	m.held[key]--
	if m.held[key] > 0 {
		return
	}
	delete(m.held, key)
	if err := m.send(gomidi.NoteOff(m.channel, key)); err != nil {
		debug.Log("engine", "midi: note off %d: %v", key, err)
	}
}

func (m *MIDI) after(d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterLocked(d, fn)
}

// afterLocked runs fn after d and forgets the timer once it fired; caller holds mu
func (m *MIDI) afterLocked(d time.Duration, fn func()) {
	if m.closed {
		return
	}
	var t *clock.Timer
	t = m.clk.AfterFunc(d, func() {
		m.mu.Lock()
		delete(m.timers, t)
		m.mu.Unlock()
		fn()
	})
	m.timers[t] = struct{}{}
}

// Held lists the keys currently sounding
func (m *MIDI) Held() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]uint8, 0, len(m.held))
	for k := range m.held {
		keys = append(keys, k)
	}
	return keys
}

// Close cancels pending notes, releases held keys and closes the port
func (m *MIDI) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for t := range m.timers {
		t.Stop()
	}
	m.timers = nil
	for key := range m.held {
		m.held[key] = 1
		m.release(key)
	}
	m.mu.Unlock()

	if m.out != nil {
		return m.out.Close()
	}
	return nil
}
