package cli

import (
	"io"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-shorthand/config"
	"go-shorthand/engine"
	"go-shorthand/midi"
	"go-shorthand/theme"
	"go-shorthand/tui"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Opens the interactive player",
	RunE: func(cmd *cobra.Command, args []string) error {
		// the log engine would draw over the screen
		eng, err := engine.FromConfig(cfg, io.Discard)
		if err != nil {
			return err
		}
		defer eng.Close()

		m := tui.NewModel(cfg, eng, theme.Default())
		if slices.Contains(cfg.Engines(), config.EngineMIDI) {
			m.Ports = midi.NewPortWatcher(0)
			go m.Ports.Run(cmd.Context())
		}

		p := tea.NewProgram(m, tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}
