package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-shorthand/midi"
	"go-shorthand/playback"
)

var (
	exportFile string
	exportOut  string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "read shorthand from a file (- for stdin)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "out.mid", "output .mid path")
	rootCmd.AddCommand(exportCmd)
}

// smfOptions exports with the same timing and velocities as live playback
func smfOptions(bpm float64, channel int) (midi.SMFOptions, error) {
	ch, err := midi.Channel(channel)
	if err != nil {
		return midi.SMFOptions{}, err
	}
	return midi.SMFOptions{Tempo: bpm, Channel: ch, Policy: playback.Policy}, nil
}

var exportCmd = &cobra.Command{
	Use:   "export [shorthand...]",
	Short: "Writes shorthand as a Standard MIDI File",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args, exportFile)
		if err != nil {
			return err
		}
		m, err := compileText(cfg, text, 0)
		if err != nil {
			return err
		}
		opts, err := smfOptions(cfg.Tempo, cfg.Engine.MIDIChannel)
		if err != nil {
			return err
		}
		if err := midi.WriteSMFFile(exportOut, m, opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events (%v) to %s\n",
			len(m), lastRelease(m, cfg.Tempo).Round(time.Millisecond), exportOut)
		return nil
	},
}
