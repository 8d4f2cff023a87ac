package service

import (
	"context"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
)

// enforceRecentLimit prunes the Recent tag from every book beyond the N most
// recently updated. Idempotent; already-compliant state is a no-op. Runs
// after every save and is best-effort: a pruning failure never fails the
// save that triggered it.
func (s *FlipbookService) enforceRecentLimit(ctx context.Context, email string) {
	recent, err := s.store.ListRecentFlipbooks(ctx, email)
	if err != nil {
		s.logger.Error("failed to list recent flipbooks", "user", email, "error", err)
		return
	}
	if len(recent) <= s.recentLimit {
		return
	}
	for _, fb := range recent[s.recentLimit:] {
		fb.FolderTags = fb.FolderTags.WithoutTag(domain.RecentTag)
		if err := s.store.Flipbooks.Update(ctx, fb.VID, fb); err != nil {
			s.logger.Error("failed to evict flipbook from recent set",
				"v_id", fb.VID, "error", err)
		}
	}
}

// RemoveRecent strips the Recent tag from one flipbook. The book itself is
// untouched.
func (s *FlipbookService) RemoveRecent(ctx context.Context, email, bookName string) error {
	fb, err := s.store.FindFlipbook(ctx, email, domain.RecentTag, bookName)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFoundf("no recent flipbook named %q", bookName)
	}
	if err != nil {
		return err
	}

	fb.FolderTags = fb.FolderTags.WithoutTag(domain.RecentTag)
	if err := s.store.Flipbooks.Update(ctx, fb.VID, fb); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "update flipbook record")
	}
	return nil
}
