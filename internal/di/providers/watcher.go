package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/flipbookapp/flipbook-server/internal/config"
	"github.com/flipbookapp/flipbook-server/internal/logger"
	"github.com/flipbookapp/flipbook-server/internal/service"
	"github.com/flipbookapp/flipbook-server/internal/watcher"
)

// UploadsWatcherHandle wraps the uploads watcher with shutdown capability.
// When watching is disabled by configuration the handle is inert.
type UploadsWatcherHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *UploadsWatcherHandle) Shutdown() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return nil
}

// ProvideUploadsWatcher provides the filesystem watcher that heals flipbooks
// dropped onto disk outside the API.
func ProvideUploadsWatcher(i do.Injector) (*UploadsWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Storage.WatchUploads {
		log.Info("uploads watcher disabled")
		return &UploadsWatcherHandle{}, nil
	}

	flipbooks := do.MustInvoke[*service.FlipbookService](i)

	w, err := watcher.New(cfg.Storage.UploadsPath, flipbooks, watcher.Options{}, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("uploads watcher stopped", "error", err)
		}
	}()

	log.Info("uploads watcher started", "root", cfg.Storage.UploadsPath)
	return &UploadsWatcherHandle{cancel: cancel, done: done}, nil
}
