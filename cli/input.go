package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"go-shorthand/config"
	"go-shorthand/music"
	"go-shorthand/notation"
	"go-shorthand/playback"
)

// readInput returns the contents of file ("-" reads in), or args joined by spaces
func readInput(in io.Reader, args []string, file string) (string, error) {
	switch file {
	case "":
		if len(args) == 0 {
			return "", errors.New("no shorthand given; pass it as arguments or with --file")
		}
		return strings.Join(args, " "), nil
	case "-":
		data, err := io.ReadAll(in)
		return string(data), errors.Wrap(err, "reading stdin")
	default:
		data, err := os.ReadFile(file)
		return string(data), errors.Wrapf(err, "reading %s", file)
	}
}

func carry(c *config.Config) notation.Carry {
	return notation.Carry{Octave: c.DefaultOctave, Duration: c.DefaultDuration}
}

// compileText compiles text at the configured tempo and seed. Rejected tokens
// are reported as warnings, never as errors.
func compileText(c *config.Config, text string, transpose int) (music.Music, error) {
	comp, err := notation.NewCompiler(notation.Options{Tempo: c.Tempo, Carry: carry(c)})
	if err != nil {
		return nil, err
	}
	m := comp.Compile(text).Surface("shorthand")
	if transpose != 0 {
		return notation.Transpose(m, transpose)
	}
	return m, nil
}

// lastRelease is when the final note of m stops sounding once scheduled
func lastRelease(m music.Music, bpm float64) time.Duration {
	var end time.Duration
	for _, e := range m {
		d, err := e.Duration.Resolve(bpm)
		if err != nil {
			continue
		}
		delay, _ := playback.Policy(e, d)
		end = max(end, e.Time+delay+d)
	}
	return end
}

// playScore schedules m on eng and blocks until the last note has been
// released. Cancelling ctx stops playback and is not an error.
func playScore(ctx context.Context, m music.Music, eng playback.Engine, bpm float64) error {
	start := time.Now()
	h, err := playback.Schedule(m, eng, playback.Options{Tempo: bpm})
	if err != nil {
		return err
	}
	return settle(ctx, h, start, lastRelease(m, bpm))
}

func settle(ctx context.Context, h *playback.Handle, start time.Time, release time.Duration) error {
	if err := h.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	// groups land late, so their notes can outlast the handle
	if rest := release - time.Since(start); rest > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(rest):
		}
	}
	return nil
}
