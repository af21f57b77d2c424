package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"go-shorthand/config"
	"go-shorthand/debug"
	"go-shorthand/music"
)

var (
	configPath string
	debugFlag  bool
	tempoFlag  float64
	engineFlag string

	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "go-shorthand",
	Short: "Compile and play musical shorthand",
	Long: `go-shorthand turns compact note shorthand such as "c4,8n d e5 f,2n" into timed
events and plays them on a MIDI port, an OSC synth or the terminal. It also plays
named ear-training objects ("minor 3rd", "major triad").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/go-shorthand/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write a debug log (path from config, default ~/.config/go-shorthand/debug.log)")
	rootCmd.PersistentFlags().Float64Var(&tempoFlag, "tempo", 0, "tempo in BPM, overrides the config")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "engines to play on: log, midi, osc (comma separated)")
}

// Execute runs the root command. An interrupt cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func setup() error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if tempoFlag > 0 {
		cfg.Tempo = music.ClampTempo(tempoFlag)
	}
	if engineFlag != "" {
		cfg.Engine.Kind = engineFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if debugFlag {
		path := cfg.DebugLog
		if path == "" {
			path = debug.DefaultPath()
		}
		if err := debug.Enable(path); err != nil {
			return err
		}
		debug.Log("config", "tempo %.0f engine %s", cfg.Tempo, cfg.Engine.Kind)
	}
	return nil
}
