package batch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"meterocr/pkg/log"
)

const (
	debounceTick   = 250 * time.Millisecond
	debounceStable = 300 * time.Millisecond
)

func newDirWatcher(dir string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// watch submits files created in the directory once they stop changing.
// Every settled event is submitted, so a name reused after its first file
// was validated runs again.
func (r *runner) watch(ctx context.Context, w *fsnotify.Watcher) error {
	log.Infof("watching %s (debounced) ...", r.opts.Dir)

	// simple debounce map of pending files
	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !IsSupportedExt(name) {
				continue
			}
			pending[name] = time.Now()
		case now := <-ticker.C:
			for name, t := range pending {
				if now.Sub(t) > debounceStable { // stable
					delete(pending, name)
					r.submit(name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnf("watch error: %v", err)
		}
	}
}
