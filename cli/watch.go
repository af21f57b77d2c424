package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"go-shorthand/debug"
	"go-shorthand/engine"
	"go-shorthand/playback"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchFile calls onChange with the file's contents now and after every save
// that changes them, until ctx is done. The directory is watched so editors
// that save by rename are picked up.
func watchFile(ctx context.Context, path string, onChange func(text string)) error {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(path))
	}

	var last string
	loaded := false
	load := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			debug.Log("watch", "read %s: %v", path, err)
			return
		}
		if loaded && string(data) == last {
			return
		}
		last, loaded = string(data), true
		onChange(last)
	}
	load()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				load()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.Log("watch", "watcher error: %v", err)
		}
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Replays a shorthand file every time it is saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engine.FromConfig(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer eng.Close()

		var current *playback.Handle
		defer func() {
			if current != nil {
				current.Stop()
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "watching %s, ctrl+c to stop\n", args[0])
		return watchFile(cmd.Context(), args[0], func(text string) {
			if current != nil {
				current.Stop()
			}
			m, err := compileText(cfg, text, 0)
			if err != nil {
				debug.Warn("watch", "%v", err)
				return
			}
			current, err = playback.Schedule(m, eng, playback.Options{Tempo: cfg.Tempo})
			if err != nil {
				debug.Warn("watch", "%v", err)
				return
			}
			debug.Log("watch", "replaying %d events", len(m))
		})
	},
}
