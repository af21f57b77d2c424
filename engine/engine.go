package engine

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go-shorthand/config"
	"go-shorthand/playback"

	"github.com/pkg/errors"
)

// Closer is an engine that holds a port or socket
type Closer interface {
	playback.Engine
	Close() error
}

// Log writes one line per trigger. It is the dry-run engine.
type Log struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLog writes to w
func NewLog(w io.Writer) *Log {
	return &Log{w: w}
}

func (l *Log) Trigger(t playback.Trigger) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	label := strings.Join(t.Notes, " ")
	if t.Chord {
		label = "[" + label + "]"
	}
	_, err := fmt.Fprintf(l.w, "%s  %-16s %-6s %6.3fs  vel %.2f\n",
		t.At.Format("15:04:05.000"), label, t.Duration, t.Length.Seconds(), t.Velocity)
	return err
}

func (l *Log) Close() error { return nil }

// Tee sends every trigger to all engines
type Tee []playback.Engine

// Trigger tries every engine and returns the first error
func (t Tee) Trigger(tr playback.Trigger) error {
	var first error
	for _, e := range t {
		if err := e.Trigger(tr); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every engine that can be closed
func (t Tee) Close() error {
	var first error
	for _, e := range t {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// FromConfig opens the engines named in cfg.Engine.Kind. Log output goes to w.
func FromConfig(cfg *config.Config, w io.Writer) (Closer, error) {
	kinds := cfg.Engines()
	if len(kinds) == 0 {
		return nil, playback.ErrNoEngine
	}

	var tee Tee
	for _, kind := range kinds {
		var (
			e   Closer
			err error
		)
		switch kind {
		case config.EngineLog:
			e = NewLog(w)
		case config.EngineMIDI:
			e, err = OpenMIDI(cfg.Engine.MIDIPort, cfg.Engine.MIDIChannel)
		case config.EngineOSC:
			e, err = DialOSC(cfg.Engine.OSCAddr, cfg.Engine.OSCInstrument, cfg.Engine.OSCVelocity)
		default:
			err = errors.Errorf("unknown engine %q", kind)
		}
		if err != nil {
			tee.Close()
			return nil, errors.Wrapf(err, "engine %s", kind)
		}
		tee = append(tee, e)
	}

	if len(tee) == 1 {
		return tee[0].(Closer), nil
	}
	return tee, nil
}
