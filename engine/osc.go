package engine

import (
	"net"
	"strconv"

	"go-shorthand/debug"
	"go-shorthand/playback"

	"github.com/benbjohnson/clock"
	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"
)

// PlayAddress is the OSC address notes are sent to
const PlayAddress = "/play"

// Sender is the part of an OSC client the engine needs
type Sender interface {
	Send(packet osc.Packet) error
}

// OSC sends "/play instrument note seconds [velocity]" per pitch.
// Groups and future onsets go out as one timetagged bundle.
type OSC struct {
	client     Sender
	instrument int32
	velocity   bool
	clk        clock.Clock
}

// NewOSC wraps a sender. velocity appends a fourth float argument.
func NewOSC(client Sender, instrument int, velocity bool, clk clock.Clock) *OSC {
	if clk == nil {
		clk = clock.New()
	}
	return &OSC{client: client, instrument: int32(instrument), velocity: velocity, clk: clk}
}

// DialOSC makes a UDP client for addr ("host:port")
func DialOSC(addr string, instrument int, velocity bool) (*OSC, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "osc address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Wrapf(err, "osc port %q", portStr)
	}
	debug.Log("osc", "sending to %s:%d", host, port)
	return NewOSC(osc.NewClient(host, port), instrument, velocity, nil), nil
}

func (o *OSC) message(note string, t playback.Trigger) *osc.Message {
	msg := osc.NewMessage(PlayAddress)
	msg.Append(o.instrument)
	msg.Append(note)
	msg.Append(float32(t.Length.Seconds()))
	if o.velocity {
		msg.Append(float32(t.Velocity))
	}
	return msg
}

// Trigger sends the notes of t
func (o *OSC) Trigger(t playback.Trigger) error {
	if len(t.Notes) == 0 {
		return nil
	}
	if len(t.Notes) == 1 && !t.At.After(o.clk.Now()) {
		return o.client.Send(o.message(t.Notes[0], t))
	}

	bundle := osc.NewBundle(t.At)
	for _, note := range t.Notes {
		if err := bundle.Append(o.message(note, t)); err != nil {
			return errors.Wrap(err, "osc bundle")
		}
	}
	return o.client.Send(bundle)
}

// Close is a no-op; the UDP client holds no connection between sends
func (o *OSC) Close() error { return nil }
