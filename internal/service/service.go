// Package service implements the composite operations that keep the two
// replicas of a user's workspace consistent: the directory tree under the
// uploads root and the Flipbook/Asset collections in the document store.
//
// None of the operations are transactional across the two stores. Each one
// orders its steps filesystem-first, resolves physical paths fresh on every
// call, and treats secondary cascades (asset bookkeeping, HTML rewrites) as
// best-effort: a failing cascade is logged per item and never aborts the
// primary mutation.
package service

import (
	"log/slog"

	"github.com/flipbookapp/flipbook-server/internal/store"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// FlipbookService is the sync orchestrator for flipbook and folder
// operations.
type FlipbookService struct {
	store    *store.Store
	resolver *workspace.Resolver
	mover    *workspace.Mover
	logger   *slog.Logger

	// recentLimit bounds the "Recent Book" tag set per user.
	recentLimit int
}

// NewFlipbookService creates a flipbook service.
func NewFlipbookService(s *store.Store, resolver *workspace.Resolver, mover *workspace.Mover, recentLimit int, logger *slog.Logger) *FlipbookService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FlipbookService{
		store:       s,
		resolver:    resolver,
		mover:       mover,
		logger:      logger,
		recentLimit: recentLimit,
	}
}
