package source

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDir calls onChange once per burst of *.csv changes in dir, after the
// directory has been quiet for debounce. It blocks until ctx is cancelled.
// The directory is created if it does not exist yet.
func WatchDir(ctx context.Context, dir string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = time.Millisecond
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	slog.Info("source: watching directory", "dir", dir, "debounce", debounce)

	// Armed by the first relevant event.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isCSV(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			slog.Debug("source: file event", "file", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("source: watcher error", "dir", dir, "err", err)
		}
	}
}
