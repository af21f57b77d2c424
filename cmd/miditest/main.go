package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-shorthand/engine"
	"go-shorthand/midi"
	"go-shorthand/music"
	"go-shorthand/playback"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "note":
		err = testNote(arg(2, ""), arg(3, "C4"))
	case "poll":
		pollPorts()
	case "smf":
		err = dumpSMF(arg(2, "out.mid"))
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List MIDI output ports")
	fmt.Println("  note [port] [note] - Play one note (default first port, C4)")
	fmt.Println("  poll               - Report ports as they come and go")
	fmt.Println("  smf [file]         - Print the notes in a .mid file")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Printf("(waiting up to %v...)\n", midi.PortTimeout)

	names, err := midi.OutPortNames(midi.PortTimeout)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func testNote(port, note string) error {
	key, err := midi.Key(note)
	if err != nil {
		return err
	}
	eng, err := engine.OpenMIDI(port, 1)
	if err != nil {
		return err
	}
	defer eng.Close()

	fmt.Printf("Sending %s (key %d) for one second...\n", note, key)
	err = eng.Trigger(playback.Trigger{
		Notes:    []string{note},
		Duration: music.Fixed(time.Second),
		Length:   time.Second,
		At:       time.Now(),
		Velocity: playback.VelocityNote,
	})
	if err != nil {
		return err
	}
	time.Sleep(1100 * time.Millisecond)
	fmt.Println("Done!")
	return nil
}

func pollPorts() {
	fmt.Println("Polling for port changes every 2 seconds...")
	fmt.Println("Connect/disconnect a device to test. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := midi.NewPortWatcher(2 * time.Second)
	go w.Run(ctx)
	for event := range w.Events() {
		fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), event.Type, event.Name)
	}
}

func dumpSMF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := midi.ReadSMF(f)
	if err != nil {
		return err
	}
	keys := midi.NoteOns(s)
	fmt.Printf("%s: %d tracks, %d notes\n", path, len(s.Tracks), len(keys))
	for _, k := range keys {
		fmt.Printf("  %d\n", k)
	}
	return nil
}
