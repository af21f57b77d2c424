package midi

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-shorthand/music"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type fakeOut struct {
	drivers.Out
	name string
}

func (f fakeOut) String() string { return f.name }

func withPorts(t *testing.T, list func() []drivers.Out) {
	prev := listOutPorts
	listOutPorts = list
	t.Cleanup(func() { listOutPorts = prev })
}

func TestKey(t *testing.T) {
	assert := assert.New(t)

	k, err := Key("C4")
	assert.NoError(err)
	assert.Equal(uint8(60), k)

	k, err = Key("A0")
	assert.NoError(err)
	assert.Equal(uint8(21), k)

	_, err = Key("C-2")
	assert.True(errors.Is(err, ErrKeyRange))
	_, err = Key("G#9")
	assert.True(errors.Is(err, ErrKeyRange))
	_, err = Key("nope")
	assert.True(errors.Is(err, music.ErrBadPitch))
}

func TestVelocity(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint8(127), Velocity(1))
	assert.Equal(uint8(83), Velocity(0.65))
	assert.Equal(uint8(1), Velocity(0))
	assert.Equal(uint8(127), Velocity(3))
}

func TestChannel(t *testing.T) {
	ch, err := Channel(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), ch)
	ch, err = Channel(16)
	require.NoError(t, err)
	assert.Equal(t, uint8(15), ch)
	_, err = Channel(0)
	assert.Error(t, err)
}

func TestFindOut(t *testing.T) {
	outs := []drivers.Out{fakeOut{name: "IAC Driver Bus 1"}, fakeOut{name: "FluidSynth virtual port"}}

	p, err := FindOut(outs, "FluidSynth virtual port")
	require.NoError(t, err)
	assert.Equal(t, "FluidSynth virtual port", p.String())

	p, err = FindOut(outs, "iac")
	require.NoError(t, err)
	assert.Equal(t, "IAC Driver Bus 1", p.String())

	p, err = FindOut(outs, "")
	require.NoError(t, err)
	assert.Equal(t, "IAC Driver Bus 1", p.String())

	_, err = FindOut(outs, "launchpad")
	assert.True(t, errors.Is(err, ErrNoPort))
	_, err = FindOut(nil, "")
	assert.True(t, errors.Is(err, ErrNoPort))
}

func TestOutPortsTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	withPorts(t, func() []drivers.Out {
		<-block
		return nil
	})

	_, err := OutPorts(20 * time.Millisecond)
	assert.True(t, errors.Is(err, ErrPortsTimeout))
}

func TestPortWatcher(t *testing.T) {
	var mu sync.Mutex
	current := []drivers.Out{fakeOut{name: "a"}}
	withPorts(t, func() []drivers.Out {
		mu.Lock()
		defer mu.Unlock()
		return append([]drivers.Out(nil), current...)
	})

	w := NewPortWatcher(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	ev := <-w.Events()
	assert.Equal(t, PortEvent{Type: PortAdded, Name: "a"}, ev)

	mu.Lock()
	current = []drivers.Out{fakeOut{name: "b"}}
	mu.Unlock()

	got := map[PortEvent]bool{}
	got[<-w.Events()] = true
	got[<-w.Events()] = true
	assert.True(t, got[PortEvent{Type: PortAdded, Name: "b"}])
	assert.True(t, got[PortEvent{Type: PortRemoved, Name: "a"}])
	assert.Equal(t, []string{"b"}, w.Ports())

	cancel()
	for range w.Events() {
	}
}

func TestEventsOrder(t *testing.T) {
	m := music.Music{
		music.Note(0, "C4", music.Code("4n")),
		music.Note(500*time.Millisecond, "D4", music.Code("4n")),
	}
	events, err := Events(m, SMFOptions{Tempo: 120})
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert := assert.New(t)
	assert.True(events[0].On)
	assert.Equal(uint8(60), events[0].Key)
	// C4 off and D4 on share 500ms; the off comes first
	assert.False(events[1].On)
	assert.Equal(uint8(60), events[1].Key)
	assert.True(events[2].On)
	assert.Equal(uint8(62), events[2].Key)
	assert.Equal(time.Second, events[3].Time)
}

func TestEventsPolicy(t *testing.T) {
	m := music.Music{music.Group(0, []string{"C4", "E4"}, music.Fixed(time.Second))}
	policy := func(e music.Event, length time.Duration) (time.Duration, float64) {
		return length / 2, 0.5
	}
	events, err := Events(m, SMFOptions{Tempo: 120, Policy: policy})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, 500*time.Millisecond, events[0].Time)
	assert.Equal(t, Velocity(0.5), events[0].Velocity)
}

func TestEventsSkipsOutOfRange(t *testing.T) {
	m := music.Music{music.Note(0, "C-3", music.Code("4n")), music.Note(0, "C4", music.Code("4n"))}
	events, err := Events(m, SMFOptions{Tempo: 120})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestWriteSMFRoundTrip(t *testing.T) {
	m := music.Music{
		music.Note(0, "C4", music.Code("8n")),
		music.Note(250*time.Millisecond, "E4", music.Code("8n")),
		music.Note(500*time.Millisecond, "G4", music.Code("4n")),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSMF(&buf, m, SMFOptions{Tempo: 120, Channel: 2}))

	s, err := ReadSMF(&buf)
	require.NoError(t, err)
	assert.Equal(t, []uint8{60, 64, 67}, NoteOns(s))
}

func TestWriteSMFRejectsChannel(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteSMF(&buf, music.Music{}, SMFOptions{Channel: 16}))
}

func TestReadSMFGarbage(t *testing.T) {
	_, err := ReadSMF(bytes.NewReader([]byte("not a midi file")))
	assert.Error(t, err)
}

func TestTicks(t *testing.T) {
	assert.Equal(t, uint32(960), ticks(500*time.Millisecond, 120))
	assert.Equal(t, uint32(480), ticks(500*time.Millisecond, 60))
}
