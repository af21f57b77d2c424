package midi

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go-shorthand/debug"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// PortTimeout bounds a port scan. CoreMIDI can hang; the fix is
// `sudo killall coreaudiod midiserver`.
const PortTimeout = 3 * time.Second

// ErrPortsTimeout is returned when the driver does not answer within the timeout
var ErrPortsTimeout = errors.New("MIDI driver did not answer (CoreMIDI hung?)")

// ErrNoPort is returned when no output port matches a name
var ErrNoPort = errors.New("no matching MIDI output")

// listOutPorts is swapped out in tests
var listOutPorts = func() []drivers.Out {
	return gomidi.GetOutPorts()
}

// OutPorts lists output ports, giving up after timeout
func OutPorts(timeout time.Duration) ([]drivers.Out, error) {
	list := listOutPorts
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- list()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(timeout):
		debug.Log("midi", "port scan timed out after %v", timeout)
		return nil, ErrPortsTimeout
	}
}

// OutPortNames lists output port names, giving up after timeout
func OutPortNames(timeout time.Duration) ([]string, error) {
	outs, err := OutPorts(timeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	return names, nil
}

// FindOut picks a port by exact name, then by case-insensitive substring.
// An empty name picks the first port.
func FindOut(outs []drivers.Out, name string) (drivers.Out, error) {
	if len(outs) == 0 {
		return nil, errors.Wrap(ErrNoPort, "no outputs available")
	}
	if name == "" {
		return outs[0], nil
	}
	for _, p := range outs {
		if p.String() == name {
			return p, nil
		}
	}
	want := strings.ToLower(name)
	for _, p := range outs {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return p, nil
		}
	}
	return nil, errors.Wrapf(ErrNoPort, "%q", name)
}

// OpenOut finds and opens an output port
func OpenOut(name string) (drivers.Out, error) {
	outs, err := OutPorts(PortTimeout)
	if err != nil {
		return nil, err
	}
	out, err := FindOut(outs, name)
	if err != nil {
		return nil, err
	}
	if err := out.Open(); err != nil {
		return nil, errors.Wrapf(err, "open %s", out.String())
	}
	debug.Log("midi", "opened output %s", out.String())
	return out, nil
}

// PortEvent is emitted when an output port appears or goes away
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortAdded PortEventType = iota
	PortRemoved
)

func (t PortEventType) String() string {
	if t == PortAdded {
		return "added"
	}
	return "removed"
}

// PortWatcher polls for output port changes
type PortWatcher struct {
	mu       sync.RWMutex
	ports    map[string]bool
	events   chan PortEvent
	pollRate time.Duration
}

// NewPortWatcher creates a watcher polling every pollRate (a second when zero)
func NewPortWatcher(pollRate time.Duration) *PortWatcher {
	if pollRate <= 0 {
		pollRate = time.Second
	}
	return &PortWatcher{
		ports:    make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: pollRate,
	}
}

// Events returns a channel of port changes. It is closed when Run returns.
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Ports returns a sorted snapshot of the known port names
func (w *PortWatcher) Ports() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.ports))
	for name := range w.ports {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	// Initial scan
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *PortWatcher) scan(ctx context.Context) {
	names, err := OutPortNames(PortTimeout)
	if err != nil {
		// driver is hung - skip this scan
		return
	}

	seen := make(map[string]bool, len(names))
	var changes []PortEvent
	w.mu.Lock()
	for _, name := range names {
		seen[name] = true
		if !w.ports[name] {
			w.ports[name] = true
			changes = append(changes, PortEvent{Type: PortAdded, Name: name})
		}
	}
	for name := range w.ports {
		if !seen[name] {
			delete(w.ports, name)
			changes = append(changes, PortEvent{Type: PortRemoved, Name: name})
		}
	}
	w.mu.Unlock()

	for _, ev := range changes {
		debug.Log("midi", "port %s: %s", ev.Type, ev.Name)
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
