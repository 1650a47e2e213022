package escsettings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits for writes to settle before reloading
var WatchDebounce = 150 * time.Millisecond

// Watch reloads path whenever it changes on disk and hands the new store to
// onReload. Load failures go to onError (which may be nil); the watch keeps
// running. The containing directory is watched so atomic renames are seen.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onReload func(*Store), onError func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	report := func(err error) {
		if onError != nil {
			onError(err)
		}
	}

	// A nil channel blocks until the timer is armed.
	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(WatchDebounce)
			} else {
				timer.Reset(WatchDebounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			report(fmt.Errorf("file watcher: %w", err))

		case <-fire:
			fire = nil
			s, err := LoadFile(abs)
			if err != nil {
				report(err)
				continue
			}
			onReload(s)
		}
	}
}

// Differs reports whether two stores hold different settings
func Differs(a, b *Store) bool {
	return len(compareStores(a, b)) > 0
}
