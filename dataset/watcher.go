package dataset

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
)

// ReloadCallback is called with each successfully reloaded dataset.
type ReloadCallback func(*Dataset) error

// Watcher keeps a dataset current while its files change on disk.
type Watcher struct {
	files     Files
	settings  *settings
	watcher   *fsnotify.Watcher
	watched   map[string]bool
	callbacks []ReloadCallback

	mu            sync.RWMutex
	current       *Dataset
	debounceTimer *time.Timer

	// reloadMu serializes Reload so an older read never replaces a newer one
	reloadMu sync.Mutex

	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher loads files once and prepares to watch them. Call Start to
// begin reacting to changes and Stop to release the watch.
func NewWatcher(ctx context.Context, files Files, opts ...Option) (*Watcher, error) {
	s := newSettings(opts)

	ds, err := load(ctx, files, s)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	watched := make(map[string]bool)
	for _, path := range files.Paths() {
		if err := fw.Add(path); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", path)
		}
		watched[filepath.Clean(path)] = true
	}

	return &Watcher{
		files:    files,
		settings: s,
		watcher:  fw,
		watched:  watched,
		current:  ds,
		done:     make(chan struct{}),
	}, nil
}

// Current returns the most recent successfully loaded dataset.
func (w *Watcher) Current() *Dataset {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnReload registers a callback for successful reloads.
func (w *Watcher) OnReload(callback ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.watched[filepath.Clean(event.Name)] {
				continue
			}
			w.settings.log.Debugw("Dataset watcher detected change",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.settings.log.Warnw("Dataset watcher error", logger.FieldError, err)

		case <-w.done:
			return
		}
	}
}

// scheduleReload coalesces bursts of events into one reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.settings.debounce, func() {
		if err := w.Reload(context.Background()); err != nil {
			w.settings.log.Errorw("Dataset reload failed", logger.FieldError, err)
		}
	})
}

// Reload loads the files again. On failure the current dataset is kept and
// the error returned; on success it replaces the current dataset and every
// callback runs with it. Reloads run one at a time, so callbacks must not
// call Reload.
func (w *Watcher) Reload(ctx context.Context) error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	ds, err := load(ctx, w.files, w.settings)
	if err != nil {
		return errors.Wrap(err, "reloading dataset")
	}

	w.mu.Lock()
	previous := w.current
	w.current = ds
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.settings.log.Infow("Dataset reloaded",
		logger.FieldDatasetID, ds.ID,
		"previous_id", previous.ID)

	for _, callback := range callbacks {
		if err := callback(ds); err != nil {
			w.settings.log.Warnw("Dataset reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
