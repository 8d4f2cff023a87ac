// Package watcher monitors the uploads tree for flipbooks that appear on
// disk outside the API (bulk copies, legacy imports) and heals their records.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// Healer reconciles one physical book with the record store. Implemented by
// the flipbook service.
type Healer interface {
	HealBook(ctx context.Context, email, folder, book string) error
}

// Options configures the watcher.
type Options struct {
	// SettleDelay is how long a book directory must stay quiet before it is
	// healed. Bulk copies touch a book many times in quick succession.
	SettleDelay time.Duration
}

func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 2 * time.Second
	}
}

// Watcher debounces filesystem events under the uploads root into per-book
// heal calls.
type Watcher struct {
	root   string
	healer Healer
	opts   Options
	logger *slog.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[bookKey]*time.Timer
	wg      sync.WaitGroup
}

type bookKey struct {
	email, folder, book string
}

// New creates a watcher over the uploads root.
func New(root string, healer Healer, opts Options, logger *slog.Logger) (*Watcher, error) {
	opts.setDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:    root,
		healer:  healer,
		opts:    opts,
		logger:  logger,
		fsw:     fsw,
		pending: make(map[bookKey]*time.Timer),
	}, nil
}

// Start watches the uploads tree until the context is cancelled. Directories
// created while running are added to the watch as they appear.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watchTree(ctx, w.root); err != nil {
		return err
	}
	w.logger.Info("watching uploads tree", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			w.drainTimers()
			w.wg.Wait()
			return w.fsw.Close()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// watchTree registers dir and every directory below it. Book directories
// found during the walk are scheduled for healing: they may have been
// created before their parent was watched, so their events were never seen.
func (w *Watcher) watchTree(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Error("failed to add watch", "path", path, "error", err)
		}
		if key, ok := w.bookFromPath(path); ok {
			w.schedule(ctx, key)
		}
		return nil
	})
}

// handleEvent schedules a heal for the book a create/write event falls under.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	// New directories need their own watch before their contents produce
	// events.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(ctx, event.Name); err != nil {
				w.logger.Error("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	key, ok := w.bookFromPath(event.Name)
	if !ok {
		return
	}
	w.schedule(ctx, key)
}

// bookFromPath maps an event path to the book it belongs to. Only paths of
// the form <root>/<email>/My_Flipbooks/<folder>/<book>/... qualify; gallery
// directories and the folder level itself produce no heals.
func (w *Watcher) bookFromPath(path string) (bookKey, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return bookKey{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 4 || parts[1] != workspace.BooksSegment {
		return bookKey{}, false
	}
	return bookKey{email: parts[0], folder: parts[2], book: parts[3]}, true
}

// schedule arms (or re-arms) the settle timer for a book. A timer whose
// callback already fired must not be Reset: Reset would run the callback a
// second time for a single wg.Add. Stop tells the two states apart; a fired
// timer is abandoned to its in-flight callback and replaced outright.
func (w *Watcher) schedule(ctx context.Context, key bookKey) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[key]; ok && timer.Stop() {
		timer.Reset(w.opts.SettleDelay)
		return
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.opts.SettleDelay, func() {
		defer w.wg.Done()
		w.mu.Lock()
		// A replaced timer's callback must not delete its successor.
		if w.pending[key] == t {
			delete(w.pending, key)
		}
		w.mu.Unlock()
		w.heal(ctx, key)
	})
	w.pending[key] = t
}

// heal reconciles one settled book. A book with no pages yet (assets only,
// or still copying) is not an error worth surfacing.
func (w *Watcher) heal(ctx context.Context, key bookKey) {
	if ctx.Err() != nil {
		return
	}
	if err := w.healer.HealBook(ctx, key.email, key.folder, key.book); err != nil {
		w.logger.Debug("heal skipped",
			"user", key.email, "folder", key.folder, "book", key.book, "error", err)
		return
	}
	w.logger.Info("reconciled flipbook from filesystem",
		"user", key.email, "folder", key.folder, "book", key.book)
}

// drainTimers stops every pending settle timer.
func (w *Watcher) drainTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, timer := range w.pending {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, key)
	}
}
