package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Philanthropists/autofinish/internal/logging"
)

// Watch reloads the file at path whenever it changes and passes every valid
// result to onChange. Invalid edits are logged and skipped. Bursts of writes
// within debounce are reloaded once. Watch blocks until ctx ends.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(Config)) error {
	log := logging.FromContext(ctx).Named("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() { _ = watcher.Close() }()

	path = filepath.Clean(path)
	// editors often replace the file, so the directory is watched instead
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return Error.Wrap(err)
	}

	settle := time.NewTimer(debounce)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settle.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", logging.Error(err))

		case <-settle.C:
			cfg, err := Load(path)
			if err != nil {
				log.Warn("ignoring invalid config", logging.String("path", path), logging.Error(err))
				continue
			}
			log.Info("config reloaded", logging.String("path", path))
			onChange(cfg)
		}
	}
}
