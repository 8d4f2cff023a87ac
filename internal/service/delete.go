package service

import (
	"context"
	"os"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// DeleteBook removes a flipbook's physical subtree, its record, and every
// dependent asset record. Asset files outside the subtree (stale URLs from
// before a move) are cleaned up best-effort. Gallery assets are untouched;
// they belong to the user, not to any book.
func (s *FlipbookService) DeleteBook(ctx context.Context, email, folderTag, bookName string) error {
	folder, err := s.resolver.RealFolder(ctx, email, folderTag, bookName)
	if err != nil {
		return apperrors.NotFoundf("flipbook %q not found", bookName)
	}

	dir := s.resolver.BookDir(email, folder, bookName)
	fb, findErr := s.store.FindFlipbook(ctx, email, folder, bookName)
	if !workspace.Exists(dir) && apperrors.Is(findErr, apperrors.ErrNotFound) {
		return apperrors.NotFoundf("flipbook %q not found in %q", bookName, folder)
	}

	if err := os.RemoveAll(dir); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "remove flipbook directory")
	}

	if findErr == nil {
		s.deleteBookRecords(ctx, fb)
	}

	s.logger.Info("flipbook deleted", "user", email, "folder", folder, "name", bookName)
	return nil
}

// DeleteFolder removes a folder's subtree and every flipbook record tagged
// with it, cascading to their assets.
func (s *FlipbookService) DeleteFolder(ctx context.Context, email, folderName string) error {
	if folderName == domain.RecentTag {
		return apperrors.Validation("the Recent folder cannot be deleted")
	}

	dir := s.resolver.FolderDir(email, folderName)
	books, listErr := s.store.ListFlipbooksInFolder(ctx, email, folderName)
	if !workspace.Exists(dir) && (listErr != nil || len(books) == 0) {
		return apperrors.NotFoundf("folder %q not found", folderName)
	}
	if listErr != nil {
		// The subtree still goes, leaving the folder's records stranded.
		s.logger.Error("failed to list folder flipbooks before delete",
			"user", email, "folder", folderName, "error", listErr)
	}

	if err := os.RemoveAll(dir); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "remove folder directory")
	}

	for _, fb := range books {
		s.deleteBookRecords(ctx, fb)
	}

	s.logger.Info("folder deleted", "user", email, "name", folderName, "flipbooks", len(books))
	return nil
}

// deleteBookRecords drops a flipbook's record and asset records, removing
// any asset file the subtree removal did not already cover. Best-effort:
// the physical tree is gone either way.
func (s *FlipbookService) deleteBookRecords(ctx context.Context, fb *domain.Flipbook) {
	assets, err := s.store.DeleteAssetsByFlipbook(ctx, fb.VID)
	if err != nil {
		s.logger.Error("failed to delete asset records",
			"v_id", fb.VID, "error", err)
	}
	for _, a := range assets {
		s.removeAssetFile(a)
	}
	if err := s.store.Flipbooks.Delete(ctx, fb.VID); err != nil {
		s.logger.Error("failed to delete flipbook record",
			"v_id", fb.VID, "error", err)
	}
}
