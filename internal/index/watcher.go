package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/cpidash/internal/models"
)

const debounceDelay = 200 * time.Millisecond

// EventCallback is called after every watcher-driven sync attempt.
// kind is one of KindReloaded, KindUnchanged, KindFailed; err is set only
// for KindFailed.
type EventCallback func(kind string, info models.LoadInfo, err error)

// Watch watches the directory holding the source file and re-syncs after
// the file is created, written or replaced, until ctx is cancelled.
//
// Bursts of events are debounced so an editor save or an atomic rename
// produces a single reload. A failed reload leaves the previous snapshot
// in place.
func (s *Syncer) Watch(ctx context.Context, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(s.store.Path())
	dir := filepath.Dir(target)
	if err := w.Add(dir); err != nil {
		return err
	}

	s.logger.Info("watcher: started", slog.String("source", target))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounceDelay)
			timerCh = timer.C
		} else {
			timer.Reset(debounceDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			kind, info, syncErr := s.Sync()
			if syncErr != nil {
				s.logger.Error("watcher: reload failed, keeping previous snapshot",
					slog.String("source", target),
					slog.String("error", syncErr.Error()))
			} else {
				s.logger.Debug("watcher: synced", slog.String("kind", kind), slog.String("load_id", info.ID))
			}
			if cb != nil {
				cb(kind, info, syncErr)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.logger.Debug("watcher: source event", slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
