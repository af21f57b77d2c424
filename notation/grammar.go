package notation

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoMatch marks a token that is not a shorthand note
var ErrNoMatch = errors.New("token is not a shorthand note")

// PartialNote is a matched token. Octave and Duration are empty when omitted.
type PartialNote struct {
	PitchClass string
	Octave     string
	Duration   string
}

// noteGrammar matches <pitchClass><octave>?,?<duration>? over a whole token.
//
//	pitch class  [a-gA-G] with optional bb, b, # or x
//	octave       10, 11, 0-9 or -1..-4 (two-digit octaves tried first)
//	duration     0, 1m, 1n, 1n. or 2..128 followed by n, n. or t
var noteGrammar = regexp.MustCompile(
	`^([a-gA-G](?:bb|b|#|x)?)(10|11|[0-9]|-[1-4])?,?(0|1m|1n\.|1n|(?:2|4|8|16|32|64|128)(?:n\.|n|t))?$`)

// allowed characters after sanitizing (plus space)
var illegalChars = regexp.MustCompile(`[^a-gA-G0-9+\-#bx.mnt, ]`)

var whitespace = regexp.MustCompile(`\s+`)

// Match classifies a single token
func Match(token string) (PartialNote, error) {
	groups := noteGrammar.FindStringSubmatch(token)
	if groups == nil {
		return PartialNote{}, errors.Wrapf(ErrNoMatch, "%q", token)
	}
	return PartialNote{
		PitchClass: groups[1],
		Octave:     groups[2],
		Duration:   groups[3],
	}, nil
}

// Sanitize collapses whitespace to single spaces and strips characters
// outside the shorthand alphabet
func Sanitize(text string) string {
	clean := whitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	return illegalChars.ReplaceAllString(clean, "")
}

// Tokenize sanitizes text and splits it into non-empty tokens
func Tokenize(text string) []string {
	var tokens []string
	for _, t := range strings.Split(Sanitize(text), " ") {
		if strings.TrimSpace(t) != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
