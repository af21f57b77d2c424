package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-shorthand/aural"
	"go-shorthand/config"
	"go-shorthand/engine"
)

type auralFlags struct {
	list       bool
	degrees    string
	root       string
	transpose  string
	duration   string
	noArpeggio bool
	noChord    bool
}

var auralOpts auralFlags

func init() {
	f := auralCmd.Flags()
	f.BoolVar(&auralOpts.list, "list", false, "list the known object names")
	f.StringVar(&auralOpts.degrees, "degrees", "", "play raw semitone degrees, e.g. 0,4,7")
	f.StringVar(&auralOpts.root, "root", "", "root pitch (default from config)")
	f.StringVar(&auralOpts.transpose, "transpose", "", `semitones, or "random"`)
	f.StringVar(&auralOpts.duration, "duration", "", `seconds per note, or "auto"`)
	f.BoolVar(&auralOpts.noArpeggio, "no-arpeggio", false, "skip the note-by-note arpeggio")
	f.BoolVar(&auralOpts.noChord, "no-chord", false, "skip the closing chord")
	rootCmd.AddCommand(auralCmd)
}

// apply overrides the playback defaults with whatever flags were given
func (f auralFlags) apply(pc config.PlaybackConfig) config.PlaybackConfig {
	if f.root != "" {
		pc.Root = f.root
	}
	if f.transpose != "" {
		pc.Transpose = f.transpose
	}
	if f.duration != "" {
		pc.NoteDuration = f.duration
	}
	if f.noArpeggio {
		pc.Arpeggio = false
	}
	if f.noChord {
		pc.Chord = false
	}
	return pc
}

// spec reads the object to play from --degrees or the arguments
func (f auralFlags) spec(args []string) (aural.Spec, error) {
	if f.degrees != "" {
		return aural.ParseSpec(f.degrees)
	}
	return aural.ParseSpec(strings.Join(args, " "))
}

var auralCmd = &cobra.Command{
	Use:   "aural [name...]",
	Short: "Plays a named interval, triad or scale",
	Long: `Plays an aural object by name ("perfect 5th", "minor triad", "major scale") or
by raw degrees. The object is arpeggiated and then sounded as a chord unless told
otherwise.`,
	Example: `  go-shorthand aural minor 3rd
  go-shorthand aural --transpose random --no-chord major scale
  go-shorthand aural --degrees 0,3,7,10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if auralOpts.list {
			for _, name := range aural.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		spec, err := auralOpts.spec(args)
		if err != nil {
			return err
		}
		deg, err := aural.Resolve(spec)
		if err != nil {
			return err
		}
		ao, err := aural.OptionsFromConfig(auralOpts.apply(cfg.Playback))
		if err != nil {
			return err
		}
		score, transpose, err := aural.BuildScore(deg, ao)
		if err != nil {
			return err
		}
		if transpose != 0 {
			fmt.Fprintf(out, "transposed %+d\n", transpose)
		}

		eng, err := engine.FromConfig(cfg, out)
		if err != nil {
			return err
		}
		defer eng.Close()
		return playScore(cmd.Context(), score, eng, cfg.Tempo)
	},
}
