package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ganchinyao/tos-algo-trade/logx"
)

// Watch reloads the store whenever its file changes on disk, so edits made
// outside the admin API take effect without a restart. It watches the parent
// directory because editors and atomic writers replace the file by rename.
// Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	base := filepath.Base(s.path)

	// Debounce: a rename-based save emits several events back to back.
	var pending *time.Timer
	reload := func() {
		if err := s.Reload(); err != nil {
			logx.Warn("trading config reload failed", "err", err)
			return
		}
		logx.Info("trading config reloaded", "path", s.path)
	}

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(100*time.Millisecond, reload)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logx.Warn("trading config watcher error", "err", err)
		}
	}
}
