package engine

import (
	"bytes"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go-shorthand/config"
	"go-shorthand/music"
	"go-shorthand/playback"

	"github.com/benbjohnson/clock"
	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

type wire struct {
	mu   sync.Mutex
	msgs []gomidi.Message
}

func (w *wire) send(msg gomidi.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
	return nil
}

func (w *wire) got() []gomidi.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]gomidi.Message(nil), w.msgs...)
}

func trigger(at time.Time, notes ...string) playback.Trigger {
	return playback.Trigger{
		Notes:    notes,
		Chord:    len(notes) > 1,
		Duration: music.Code("4n"),
		Length:   500 * time.Millisecond,
		At:       at,
		Velocity: 1,
	}
}

func TestMIDINoteOnOff(t *testing.T) {
	mock := clock.NewMock()
	w := &wire{}
	m := NewMIDI(w.send, 0, mock)

	require.NoError(t, m.Trigger(trigger(mock.Now(), "C4", "E4")))
	msgs := w.got()
	require.Len(t, msgs, 2)

	var ch, key, vel uint8
	assert.True(t, msgs[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(60), key)
	assert.Equal(t, uint8(127), vel)

	held := m.Held()
	sort.Slice(held, func(i, j int) bool { return held[i] < held[j] })
	assert.Equal(t, []uint8{60, 64}, held)

	mock.Add(500 * time.Millisecond)
	assert.Eventually(t, func() bool { return len(w.got()) == 4 }, time.Second, 5*time.Millisecond)
	assert.True(t, w.got()[3].GetNoteOff(&ch, &key, &vel))
	assert.Empty(t, m.Held())
}

func TestMIDIDelayedOnset(t *testing.T) {
	mock := clock.NewMock()
	w := &wire{}
	m := NewMIDI(w.send, 3, mock)

	require.NoError(t, m.Trigger(trigger(mock.Now().Add(250*time.Millisecond), "A4")))
	assert.Empty(t, w.got())

	mock.Add(250 * time.Millisecond)
	assert.Eventually(t, func() bool { return len(w.got()) == 1 }, time.Second, 5*time.Millisecond)

	var ch, key, vel uint8
	require.True(t, w.got()[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(3), ch)
	assert.Equal(t, uint8(69), key)
}

func TestMIDIOverlappingKeys(t *testing.T) {
	mock := clock.NewMock()
	w := &wire{}
	m := NewMIDI(w.send, 0, mock)

	require.NoError(t, m.Trigger(trigger(mock.Now(), "C4")))
	mock.Add(250 * time.Millisecond)
	require.NoError(t, m.Trigger(trigger(mock.Now(), "C4")))

	// first release only drops the count
	mock.Add(250 * time.Millisecond)
	assert.Never(t, func() bool { return len(w.got()) > 2 }, 50*time.Millisecond, 5*time.Millisecond)

	mock.Add(250 * time.Millisecond)
	assert.Eventually(t, func() bool { return len(w.got()) == 3 }, time.Second, 5*time.Millisecond)
}

func TestMIDIPartialGroupIsReleased(t *testing.T) {
	mock := clock.NewMock()
	w := &wire{}
	broken := errors.New("port gone")
	send := func(msg gomidi.Message) error {
		var ch, key, vel uint8
		if msg.GetNoteOn(&ch, &key, &vel) && key == 67 {
			return broken
		}
		return w.send(msg)
	}
	m := NewMIDI(send, 0, mock)

	err := m.Trigger(trigger(mock.Now(), "C4", "G4"))
	assert.True(t, errors.Is(err, broken))
	assert.Equal(t, []uint8{60}, m.Held())

	mock.Add(500 * time.Millisecond)
	assert.Eventually(t, func() bool { return len(m.Held()) == 0 }, time.Second, 5*time.Millisecond)

	var ch, key, vel uint8
	msgs := w.got()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].GetNoteOff(&ch, &key, &vel))
	assert.Equal(t, uint8(60), key)
}

func TestMIDISkipsOutOfRange(t *testing.T) {
	w := &wire{}
	m := NewMIDI(w.send, 0, clock.NewMock())
	assert.NoError(t, m.Trigger(trigger(time.Time{}, "C-3")))
	assert.Empty(t, w.got())
	assert.Error(t, m.Trigger(trigger(time.Time{}, "H4")))
}

func TestMIDICloseReleases(t *testing.T) {
	mock := clock.NewMock()
	w := &wire{}
	m := NewMIDI(w.send, 0, mock)

	require.NoError(t, m.Trigger(trigger(mock.Now(), "C4", "G4")))
	require.NoError(t, m.Close())
	assert.Len(t, w.got(), 4)
	assert.Empty(t, m.Held())

	require.NoError(t, m.Trigger(trigger(mock.Now(), "D4")))
	mock.Add(time.Second)
	assert.Never(t, func() bool { return len(w.got()) > 4 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.NoError(t, m.Close())
}

type packets struct {
	mu  sync.Mutex
	got []osc.Packet
}

func (p *packets) Send(packet osc.Packet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, packet)
	return nil
}

func TestOSCSingleNote(t *testing.T) {
	mock := clock.NewMock()
	p := &packets{}
	o := NewOSC(p, 2, false, mock)

	require.NoError(t, o.Trigger(trigger(mock.Now(), "C#4")))
	require.Len(t, p.got, 1)

	msg, ok := p.got[0].(*osc.Message)
	require.True(t, ok)
	assert.Equal(t, PlayAddress, msg.Address)
	assert.Equal(t, []interface{}{int32(2), "C#4", float32(0.5)}, msg.Arguments)
}

func TestOSCGroupIsBundled(t *testing.T) {
	mock := clock.NewMock()
	p := &packets{}
	o := NewOSC(p, 0, true, mock)

	tr := trigger(mock.Now(), "C4", "E4", "G4")
	tr.Velocity = 0.65
	require.NoError(t, o.Trigger(tr))
	require.Len(t, p.got, 1)

	bundle, ok := p.got[0].(*osc.Bundle)
	require.True(t, ok)
	require.Len(t, bundle.Messages, 3)
	assert.Equal(t, "E4", bundle.Messages[1].Arguments[1])
	assert.Equal(t, float32(0.65), bundle.Messages[1].Arguments[3])
}

func TestOSCFutureOnsetIsBundled(t *testing.T) {
	mock := clock.NewMock()
	p := &packets{}
	o := NewOSC(p, 0, false, mock)

	require.NoError(t, o.Trigger(trigger(mock.Now().Add(time.Second), "A4")))
	_, ok := p.got[0].(*osc.Bundle)
	assert.True(t, ok)
}

func TestDialOSCBadAddress(t *testing.T) {
	_, err := DialOSC("nowhere", 0, false)
	assert.Error(t, err)
	_, err = DialOSC("127.0.0.1:port", 0, false)
	assert.Error(t, err)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(&buf)
	require.NoError(t, l.Trigger(trigger(time.Time{}, "C4", "E4")))
	assert.Contains(t, buf.String(), "[C4 E4]")
	assert.Contains(t, buf.String(), "4n")
	assert.Contains(t, buf.String(), "vel 1.00")
}

type failing struct{ calls int }

func (f *failing) Trigger(playback.Trigger) error {
	f.calls++
	return errors.New("boom")
}

func TestTee(t *testing.T) {
	var buf bytes.Buffer
	f := &failing{}
	tee := Tee{f, NewLog(&buf)}

	err := tee.Trigger(trigger(time.Time{}, "C4"))
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, f.calls)
	assert.Contains(t, buf.String(), "C4")
	assert.NoError(t, tee.Close())
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()

	e, err := FromConfig(cfg, &buf)
	require.NoError(t, err)
	_, ok := e.(*Log)
	assert.True(t, ok)

	cfg.Engine.Kind = "log,osc"
	e, err = FromConfig(cfg, &buf)
	require.NoError(t, err)
	tee, ok := e.(Tee)
	require.True(t, ok)
	assert.Len(t, tee, 2)
	assert.NoError(t, e.Close())

	cfg.Engine.Kind = "speaker"
	_, err = FromConfig(cfg, &buf)
	assert.Error(t, err)

	cfg.Engine.Kind = ""
	_, err = FromConfig(cfg, &buf)
	assert.True(t, errors.Is(err, playback.ErrNoEngine))
}
