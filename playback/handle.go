package playback

import (
	"context"
	"sync"
	"time"

	"go-shorthand/debug"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Handle controls one scheduled playback. Handles share nothing; stopping one
// leaves the others alone.
type Handle struct {
	ID uuid.UUID

	length time.Duration

	mu       sync.Mutex
	finished bool
	timers   []*clock.Timer
	onFinish func()
	done     chan struct{}
	err      error
}

func newHandle(length time.Duration, onFinish func()) *Handle {
	return &Handle{
		ID:       uuid.New(),
		length:   length,
		onFinish: onFinish,
		done:     make(chan struct{}),
	}
}

// Length is the nominal duration of the score
func (h *Handle) Length() time.Duration {
	return h.length
}

// HasFinished is true once playback completed or was stopped
func (h *Handle) HasFinished() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finished
}

// Done is closed when the handle finishes
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the first error an engine reported while dispatching
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stop cancels every pending dispatch and the completion timer, then runs
// onFinish. Only the first call (or natural completion) has any effect.
func (h *Handle) Stop() {
	if h.finish() {
		debug.Log("playback", "%s stopped", h.ID)
	}
}

// Wait blocks until the handle finishes or ctx is done. Cancelling ctx stops playback.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		h.Stop()
		return ctx.Err()
	}
}

// finish flips the handle to finished; it reports false if it already was
func (h *Handle) finish() bool {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return false
	}
	h.finished = true
	for _, t := range h.timers {
		t.Stop()
	}
	h.timers = nil
	close(h.done)
	onFinish := h.onFinish
	h.mu.Unlock()

	if onFinish != nil {
		onFinish()
	}
	return true
}

// track takes ownership of the pending timers. A handle that already
// finished stops them right away.
func (h *Handle) track(timers []*clock.Timer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		for _, t := range timers {
			t.Stop()
		}
		return
	}
	h.timers = append(h.timers, timers...)
}

// dispatch runs fn unless the handle has finished. fn runs under the lock so
// nothing is dispatched once Stop has returned.
func (h *Handle) dispatch(fn func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	if err := fn(); err != nil {
		debug.Log("playback", "%s dispatch: %v", h.ID, err)
		if h.err == nil {
			h.err = err
		}
	}
}
