package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/flowver/internal/adapters/driving/docfile"
	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driving"
	"github.com/custodia-labs/flowver/internal/logger"
)

// ErrMissingVersionService is returned when no version service is provided.
var ErrMissingVersionService = errors.New("watch: version service is required")

// Event reports the outcome of versioning one document.
type Event struct {
	Path       string
	WorkflowID string
	Result     *domain.BumpResult
	Err        error
}

// Watcher versions documents in a directory as they are written.
type Watcher struct {
	dir         string
	versions    driving.VersionService
	persistence driving.PersistenceService
	limiter     *rate.Limiter
	debounce    time.Duration
	log         *logger.Scoped

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// New creates a watcher for dir. persistence may be nil, in which case
// versions are kept in memory only.
func New(
	dir string,
	versions driving.VersionService,
	persistence driving.PersistenceService,
	settings domain.WatchSettings,
) (*Watcher, error) {
	if versions == nil {
		return nil, ErrMissingVersionService
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	defaults := domain.DefaultSettings().Watch
	if settings.Rate <= 0 {
		settings.Rate = defaults.Rate
	}
	if settings.Burst <= 0 {
		settings.Burst = defaults.Burst
	}
	if settings.Debounce < 0 {
		settings.Debounce = 0
	}

	return &Watcher{
		dir:         dir,
		versions:    versions,
		persistence: persistence,
		limiter:     rate.NewLimiter(rate.Limit(settings.Rate), settings.Burst),
		debounce:    settings.Debounce,
		log:         logger.For("watch"),
		pending:     make(map[string]*time.Timer),
		ready:       make(chan string, 64),
		done:        make(chan struct{}),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches the directory until ctx is cancelled, calling report for every
// processed document. report may be nil. A Watcher runs at most once.
func (w *Watcher) Run(ctx context.Context, report func(Event)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching %s", w.dir)

	defer func() {
		close(w.done)
		w.stopTimers()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.schedule(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error: %v", err)
		case path := <-w.ready:
			if err := w.limiter.Wait(ctx); err != nil {
				// Only fails once ctx is done.
				return nil
			}
			ev := w.Process(ctx, path)
			if report != nil {
				report(ev)
			}
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	if !docfile.IsDocument(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// Process versions the document at path once. The workflow ID is the
// document's id field or, failing that, the file name stem.
func (w *Watcher) Process(ctx context.Context, path string) Event {
	ev := Event{Path: path}

	doc, err := docfile.Read(path)
	if err != nil {
		ev.Err = err
		w.log.Warn("skipping %s: %v", path, err)
		return ev
	}
	ev.WorkflowID = docfile.ResolveOrStem("", doc, path)

	res, err := w.versions.VersionBump(ctx, ev.WorkflowID, doc, domain.BumpOptions{
		Label: "watch: " + filepath.Base(path),
	})
	if err != nil {
		ev.Err = err
		w.log.Warn("bumping %s: %v", ev.WorkflowID, err)
		return ev
	}
	ev.Result = res

	if res.Created && w.persistence != nil {
		if err := w.persistence.Save(ctx); err != nil {
			ev.Err = fmt.Errorf("saving store: %w", err)
			return ev
		}
	}
	w.log.Debug("%s -> %s (created=%t)", ev.WorkflowID, res.Version.Version, res.Created)
	return ev
}
