package speech

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/meteocli/wx/internal/trace"
)

// settleDelay is how long a changed file must stay quiet before it is
// re-synthesized. Editors save with bursts of events; acting on the first
// one reads a half-written file.
const settleDelay = 300 * time.Millisecond

// Watch re-runs fn whenever the file at path changes, until ctx is
// cancelled. The parent directory is watched rather than the file itself:
// editors that save by rename would otherwise silently detach the watch.
// An error from fn stops the loop; cancellation ends it with a nil error.
func Watch(ctx context.Context, path string, log *trace.Logger, fn func(context.Context) error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Operationf("Watching %s", abs)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(settleDelay)

		case <-pending:
			pending = nil
			if err := fn(ctx); err != nil {
				return err
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
