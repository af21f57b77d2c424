package notation

import (
	"strings"

	"go-shorthand/debug"
	"go-shorthand/music"

	"github.com/pkg/errors"
)

// Options configures a Compiler
type Options struct {
	Tempo float64 // BPM used to convert duration codes to seconds
	Carry Carry   // octave/duration seed for the first note
}

// DefaultOptions compiles at 120 BPM, octave 3, quarter notes
func DefaultOptions() Options {
	return Options{Tempo: music.DefaultTempo, Carry: DefaultCarry}
}

// Compiler turns shorthand text into Music
type Compiler struct {
	opts Options
}

// Result is the compiled phrase plus the tokens that did not parse
type Result struct {
	Music    music.Music
	Warning  string   // rejected tokens joined with ", "; empty when all parsed
	Rejected []string // same tokens, in input order
}

// HasWarning reports whether any token was rejected
func (r Result) HasWarning() bool {
	return r.Warning != ""
}

// Surface reports the warning (if any) through the debug warning sink and returns the music
func (r Result) Surface(header string) music.Music {
	if r.HasWarning() {
		if header != "" {
			debug.Warn("notation", "%s: %s", header, r.Warning)
		} else {
			debug.Warn("notation", "%s", r.Warning)
		}
	}
	return r.Music
}

// NewCompiler validates opts and returns a Compiler
func NewCompiler(opts Options) (*Compiler, error) {
	if opts.Tempo <= 0 {
		return nil, errors.Errorf("tempo must be positive, got %v", opts.Tempo)
	}
	if _, err := music.Beats(opts.Carry.Duration); err != nil {
		return nil, errors.Wrap(err, "default duration")
	}
	// the default octave must form a valid note on its own
	if p, err := Match("c" + opts.Carry.Octave); err != nil || p.Octave == "" || p.Octave != opts.Carry.Octave {
		return nil, errors.Errorf("default octave %q out of range", opts.Carry.Octave)
	}
	return &Compiler{opts: opts}, nil
}

var defaultCompiler, _ = NewCompiler(DefaultOptions())

// Compile compiles text with the default options
func Compile(text string) Result {
	return defaultCompiler.Compile(text)
}

// Tempo returns the tempo this compiler times events at
func (c *Compiler) Tempo() float64 {
	return c.opts.Tempo
}

type matched struct {
	token string
	note  PartialNote
	err   error
}

// Compile tokenizes text, matches every token, resolves the matches and lays them
// on a timeline. Rejected tokens never fail compilation; they end up in Result.Warning.
func (c *Compiler) Compile(text string) Result {
	tokens := Tokenize(text)
	results := make([]matched, len(tokens))
	for i, tok := range tokens {
		note, err := Match(tok)
		results[i] = matched{token: tok, note: note, err: err}
	}

	var partials []PartialNote
	var rejected []string
	for _, r := range results {
		if r.err != nil {
			if t := strings.TrimSpace(r.token); t != "" {
				rejected = append(rejected, t)
			}
			continue
		}
		partials = append(partials, r.note)
	}

	notes := Resolve(partials, c.opts.Carry)
	events, err := Accumulate(notes, c.opts.Tempo)
	if err != nil {
		// durations come from the grammar or the validated carry
		panic(errors.Wrap(err, "accumulate matched notes"))
	}

	debug.Log("notation", "compiled %d tokens: %d events, %d rejected", len(tokens), len(events), len(rejected))
	return Result{
		Music:    events,
		Warning:  strings.Join(rejected, ", "),
		Rejected: rejected,
	}
}

// Transpose shifts every pitch in m by semitones; times and durations are kept
func Transpose(m music.Music, semitones int) (music.Music, error) {
	return m.Transpose(semitones)
}
