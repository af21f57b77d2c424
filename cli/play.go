package cli

import (
	"github.com/spf13/cobra"

	"go-shorthand/engine"
)

var playFile string

func init() {
	playCmd.Flags().StringVarP(&playFile, "file", "f", "", "read shorthand from a file (- for stdin)")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [shorthand...]",
	Short: "Plays shorthand on the configured engine",
	Long:  `Compiles shorthand and plays it, returning when the phrase ends. Ctrl+C stops playback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args, playFile)
		if err != nil {
			return err
		}
		m, err := compileText(cfg, text, 0)
		if err != nil {
			return err
		}

		eng, err := engine.FromConfig(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer eng.Close()
		return playScore(cmd.Context(), m, eng, cfg.Tempo)
	},
}
