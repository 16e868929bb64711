package mapstore

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"SLClient/internal/mapping"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before reporting a change.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to the .slmap files of a catalog. Temporary files
// written by SaveFile are ignored; only the final rename is seen.
type Watcher struct {
	dir      string
	onChange func([]Entry)
	catalog  *Catalog
	debounce time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the catalog directory, creating it first when needed.
// onChange receives the refreshed listing after each settled burst.
func NewWatcher(c *Catalog, onChange func([]Entry), logger *zap.Logger) (*Watcher, error) {
	if err := c.EnsureDir(); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &IOError{Op: "watch maps", Path: c.Dir(), Err: err}
	}
	if err := fw.Add(c.Dir()); err != nil {
		fw.Close()
		return nil, &IOError{Op: "watch maps", Path: c.Dir(), Err: err}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      c.Dir(),
		onChange: onChange,
		catalog:  c,
		debounce: DefaultDebounce,
		logger:   logger.Named("mapstore"),
		watcher:  fw,
	}, nil
}

// Run delivers change notifications until ctx is cancelled, then releases
// the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("map file event", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			settle = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch maps directory", zap.String("dir", w.dir), zap.Error(err))
		case <-settle:
			settle = nil
			entries, err := w.catalog.List()
			if err != nil {
				w.logger.Warn("refresh map list", zap.Error(err))
				continue
			}
			if w.onChange != nil {
				w.onChange(entries)
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), mapping.FileExtension) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
