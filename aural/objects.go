package aural

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownAuralName is returned when a phrase names no known object
var ErrUnknownAuralName = errors.New("unknown aural object")

// Degrees are semitone offsets from the root, in playing order
type Degrees []int

// Name is a human phrase such as "major triad" or "perfect 5th"
type Name string

// Spec is anything that resolves to Degrees: a Name or raw Degrees
type Spec interface {
	degrees() (Degrees, error)
}

func (d Degrees) degrees() (Degrees, error) {
	return d, nil
}

func (n Name) degrees() (Degrees, error) {
	canonical, err := Canonical(string(n))
	if err != nil {
		return nil, err
	}
	return slices.Clone(objects[canonical]), nil
}

// canonical name -> degrees
var objects = map[string]Degrees{
	"Silent":                 {},
	"Triad.Major":            {0, 4, 7},
	"Triad.Minor":            {0, 3, 7},
	"Triad.Diminished":       {0, 3, 6},
	"Interval.Unison":        {0, 0},
	"Interval.Minor2nd":      {0, 1},
	"Interval.Major2nd":      {0, 2},
	"Interval.Minor3rd":      {0, 3},
	"Interval.Major3rd":      {0, 4},
	"Interval.Perfect4th":    {0, 5},
	"Interval.Diminished5th": {0, 6},
	"Interval.Perfect5th":    {0, 7},
	"Interval.Minor6th":      {0, 8},
	"Interval.Major6th":      {0, 9},
	"Interval.Minor7th":      {0, 10},
	"Interval.Major7th":      {0, 11},
	"Interval.Octave":        {0, 12},
	"Scale.Major":            {0, 2, 4, 5, 7, 9, 11, 12},
	"Scale.NaturalMinor":     {0, 2, 3, 5, 7, 8, 10, 12},
}

// lower-case phrase -> canonical name
var aliases = map[string]string{
	"silent":              "Silent",
	"major triad":         "Triad.Major",
	"major chord":         "Triad.Major",
	"minor triad":         "Triad.Minor",
	"minor chord":         "Triad.Minor",
	"diminished triad":    "Triad.Diminished",
	"diminished chord":    "Triad.Diminished",
	"diminshed chord":     "Triad.Diminished", // misspelling kept for old content
	"unison":              "Interval.Unison",
	"semitone":            "Interval.Minor2nd",
	"tone":                "Interval.Major2nd",
	"minor 2nd":           "Interval.Minor2nd",
	"major 2nd":           "Interval.Major2nd",
	"minor 3rd":           "Interval.Minor3rd",
	"major 3rd":           "Interval.Major3rd",
	"perfect 4th":         "Interval.Perfect4th",
	"tritone":             "Interval.Diminished5th",
	"perfect 5th":         "Interval.Perfect5th",
	"minor 6th":           "Interval.Minor6th",
	"major 6th":           "Interval.Major6th",
	"minor 7th":           "Interval.Minor7th",
	"major 7th":           "Interval.Major7th",
	"octave":              "Interval.Octave",
	"major scale":         "Scale.Major",
	"minor scale":         "Scale.NaturalMinor",
	"natural minor scale": "Scale.NaturalMinor",
}

// Resolve returns the degrees for spec. Raw Degrees come back unchanged.
func Resolve(spec Spec) (Degrees, error) {
	if spec == nil {
		return nil, errors.Wrap(ErrUnknownAuralName, "nil spec")
	}
	return spec.degrees()
}

// Canonical maps a phrase to its canonical object name, e.g. "Major Chord" -> "Triad.Major"
func Canonical(phrase string) (string, error) {
	key := strings.ToLower(strings.Join(strings.Fields(phrase), " "))
	canonical, ok := aliases[key]
	if !ok {
		return "", errors.Wrapf(ErrUnknownAuralName, "%q", phrase)
	}
	if _, ok := objects[canonical]; !ok {
		return "", errors.Wrapf(ErrUnknownAuralName, "%q maps to missing %q", phrase, canonical)
	}
	return canonical, nil
}

// IsValidName reports whether phrase resolves
func IsValidName(phrase string) bool {
	_, err := Canonical(phrase)
	return err == nil
}

// Names lists every accepted phrase, sorted
func Names() []string {
	names := make([]string, 0, len(aliases))
	for k := range aliases {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// IsSilent reports whether spec resolves to the empty object
func IsSilent(spec Spec) bool {
	d, err := Resolve(spec)
	return err == nil && len(d) == 0
}

// ParseSpec reads user input as a phrase ("minor 3rd") or a degree list ("0,4,7" or "0 4 7")
func ParseSpec(input string) (Spec, error) {
	if IsValidName(input) {
		return Name(input), nil
	}
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return nil, errors.Wrapf(ErrUnknownAuralName, "%q", input)
	}
	deg := make(Degrees, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(ErrUnknownAuralName, "%q", input)
		}
		deg = append(deg, n)
	}
	return deg, nil
}
