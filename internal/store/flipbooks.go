package store

import (
	"context"
	"sort"
	"strings"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// normalizeEmail canonicalizes an email for index keys. Lookups are
// case-insensitive, and an address and its sanitized directory form map to
// the same key so records healed from the filesystem stay findable by the
// raw address.
func normalizeEmail(email string) string {
	return strings.ToLower(workspace.SanitizeEmail(email))
}

// GetFlipbook retrieves a flipbook by v_id.
func (s *Store) GetFlipbook(ctx context.Context, vid string) (*domain.Flipbook, error) {
	return s.Flipbooks.Get(ctx, vid)
}

// ListFlipbooksByUser returns all flipbooks owned by the user.
func (s *Store) ListFlipbooksByUser(ctx context.Context, email string) ([]*domain.Flipbook, error) {
	return s.Flipbooks.ListByIndex(ctx, "user", normalizeEmail(email))
}

// FindFlipbook locates a flipbook by its logical address: owner, folder tag
// and name. An empty folder matches any folder; the Recent tag matches books
// carrying it regardless of their physical folder.
// Returns ErrNotFound when no book matches.
func (s *Store) FindFlipbook(ctx context.Context, email, folder, name string) (*domain.Flipbook, error) {
	books, err := s.ListFlipbooksByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		if b.Name != name {
			continue
		}
		if folder == "" || b.FolderTags.Has(folder) {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

// ListFlipbooksInFolder returns the user's flipbooks carrying the given
// folder tag, in no particular order.
func (s *Store) ListFlipbooksInFolder(ctx context.Context, email, folder string) ([]*domain.Flipbook, error) {
	books, err := s.ListFlipbooksByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	out := books[:0]
	for _, b := range books {
		if b.FolderTags.Has(folder) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListRecentFlipbooks returns the user's flipbooks carrying the Recent tag,
// most recently updated first.
func (s *Store) ListRecentFlipbooks(ctx context.Context, email string) ([]*domain.Flipbook, error) {
	books, err := s.ListFlipbooksInFolder(ctx, email, domain.RecentTag)
	if err != nil {
		return nil, err
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].LastUpdated.After(books[j].LastUpdated)
	})
	return books, nil
}
