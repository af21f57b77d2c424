package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-shorthand/midi"
)

var portsWatch bool

func init() {
	portsCmd.Flags().BoolVarP(&portsWatch, "watch", "w", false, "keep running and report ports as they come and go")
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists MIDI output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if portsWatch {
			w := midi.NewPortWatcher(0)
			go w.Run(cmd.Context())
			for event := range w.Events() {
				fmt.Fprintf(out, "%s %s\n", event.Type, event.Name)
			}
			return nil
		}

		names, err := midi.OutPortNames(midi.PortTimeout)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "no MIDI outputs")
			return nil
		}
		for i, name := range names {
			fmt.Fprintf(out, "%d: %s\n", i, name)
		}
		return nil
	},
}
