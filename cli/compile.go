package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-shorthand/notation"
	"go-shorthand/theme"
	"go-shorthand/widgets"
)

var (
	compileFile      string
	compileFormat    bool
	compileTranspose int
)

func init() {
	compileCmd.Flags().StringVarP(&compileFile, "file", "f", "", "read shorthand from a file (- for stdin)")
	compileCmd.Flags().BoolVar(&compileFormat, "format", false, "print normalized shorthand instead of the event table")
	compileCmd.Flags().IntVar(&compileTranspose, "transpose", 0, "transpose by semitones")
	rootCmd.AddCommand(compileCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile [shorthand...]",
	Short: "Compiles shorthand and prints the timed events",
	Long: `Compiles shorthand and prints one row per event with its onset, notes and
duration. Tokens that do not parse are skipped with a warning.`,
	Example: `  go-shorthand compile "c4,8n d e5 f,2n g"
  go-shorthand compile --format --transpose 2 c d e`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args, compileFile)
		if err != nil {
			return err
		}
		m, err := compileText(cfg, text, compileTranspose)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if compileFormat {
			s, err := notation.Format(m, carry(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
			return nil
		}
		fmt.Fprintln(out, widgets.RenderEventTable(theme.Default(), m, cfg.Tempo))
		return nil
	},
}
