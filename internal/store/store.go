// Package store persists the document replica of the flipbook workspace: one
// Badger database holding the Flipbook and Asset collections as JSON values.
//
// The filesystem under the uploads root is the other replica; keeping the two
// consistent is the job of the service layer, not this package.
package store

import (
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
)

// Sentinel errors surfaced by entity operations. They are the shared domain
// sentinels so handlers can map them to HTTP statuses without translation.
var (
	ErrNotFound = apperrors.ErrNotFound
	ErrExists   = apperrors.ErrExists
)

// Store wraps a Badger database instance holding both collections.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Flipbooks *Entity[domain.Flipbook]
	Assets    *Entity[domain.Asset]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "open badger db")
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	s.initFlipbooks()
	s.initAssets()

	if logger != nil {
		logger.Info("document database opened", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing document database")
	}
	return s.db.Close()
}

// initFlipbooks wires the Flipbooks collection. Keyed by v_id; the user index
// lets List and the recency policy scan one user's books without a full scan.
func (s *Store) initFlipbooks() {
	s.Flipbooks = NewEntity[domain.Flipbook](s, "flipbook:").
		WithIndex("user", func(f *domain.Flipbook) []string {
			return []string{normalizeEmail(f.UserEmail)}
		})
}

// initAssets wires the Assets collection. Keyed by file_v_id; indexed by the
// owning flipbook (cascades) and by user (gallery listings).
func (s *Store) initAssets() {
	s.Assets = NewEntity[domain.Asset](s, "asset:").
		WithIndex("flipbook", func(a *domain.Asset) []string {
			if a.FlipbookVID == "" {
				return nil
			}
			return []string{a.FlipbookVID}
		}).
		WithIndex("user", func(a *domain.Asset) []string {
			return []string{normalizeEmail(a.UserEmail)}
		})
}
