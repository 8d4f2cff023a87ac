package service

import (
	"context"
	"time"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// RenameBook renames a flipbook inside its folder: physical move first, then
// the record, then the asset and page-content cascades. The folder tag may
// be the virtual Recent tag; the real folder is resolved through the store.
func (s *FlipbookService) RenameBook(ctx context.Context, email, folderTag, oldName, newName string) error {
	folder, err := s.resolver.RealFolder(ctx, email, folderTag, oldName)
	if err != nil {
		return apperrors.NotFoundf("flipbook %q not found", oldName)
	}

	oldDir := s.resolver.BookDir(email, folder, oldName)
	newDir := s.resolver.BookDir(email, folder, newName)
	if !workspace.Exists(oldDir) {
		return apperrors.NotFoundf("flipbook %q not found in %q", oldName, folder)
	}
	if workspace.Exists(newDir) {
		return apperrors.Existsf("flipbook %q already exists in %q", newName, folder)
	}

	if err := s.mover.Move(oldDir, newDir); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "move flipbook directory")
	}

	fb, err := s.store.FindFlipbook(ctx, email, folder, oldName)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		// Legacy book without a record: the physical rename is all there is.
		s.logger.Warn("renamed flipbook has no record", "user", email, "name", oldName)
		return nil
	}
	if err != nil {
		return err
	}

	fb.Name = newName
	fb.LastUpdated = time.Now()
	if err := s.store.Flipbooks.Update(ctx, fb.VID, fb); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "update flipbook record")
	}

	s.cascadeAssetLocations(ctx, fb.VID, email, folder, newName)
	s.rewritePagePaths(newDir,
		workspace.BookURLSegment(folder, oldName),
		workspace.BookURLSegment(folder, newName))

	s.logger.Info("flipbook renamed",
		"v_id", fb.VID, "user", email, "folder", folder, "from", oldName, "to", newName)
	return nil
}

// RenameFolder renames a physical folder and cascades to every flipbook
// tagged with it: tag swap on the records, asset location rewrite, and page
// content rewrite under the new directory.
func (s *FlipbookService) RenameFolder(ctx context.Context, email, oldName, newName string) error {
	if oldName == domain.RecentTag || newName == domain.RecentTag {
		return apperrors.Validation("the Recent folder cannot be renamed")
	}

	oldDir := s.resolver.FolderDir(email, oldName)
	newDir := s.resolver.FolderDir(email, newName)
	if !workspace.Exists(oldDir) {
		return apperrors.NotFoundf("folder %q not found", oldName)
	}
	if workspace.Exists(newDir) {
		return apperrors.Existsf("folder %q already exists", newName)
	}

	if err := s.mover.Move(oldDir, newDir); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "move folder directory")
	}

	books, err := s.store.ListFlipbooksInFolder(ctx, email, oldName)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "list folder flipbooks")
	}
	for _, fb := range books {
		fb.FolderTags = fb.FolderTags.ReplaceTag(oldName, newName)
		if err := s.store.Flipbooks.Update(ctx, fb.VID, fb); err != nil {
			s.logger.Error("failed to retag flipbook after folder rename",
				"v_id", fb.VID, "error", err)
			continue
		}
		s.cascadeAssetLocations(ctx, fb.VID, email, newName, fb.Name)
	}

	s.rewritePagePaths(newDir,
		workspace.BooksSegment+"/"+workspace.Sanitize(oldName)+"/",
		workspace.BooksSegment+"/"+workspace.Sanitize(newName)+"/")

	s.logger.Info("folder renamed",
		"user", email, "from", oldName, "to", newName, "flipbooks", len(books))
	return nil
}

// rewritePagePaths swaps a literal path segment inside every page file under
// root. Best-effort per file; a failing walk is only logged because the
// primary mutation already happened.
func (s *FlipbookService) rewritePagePaths(root, oldSegment, newSegment string) {
	rw := workspace.NewRewriter(s.logger, workspace.Replacement{Old: oldSegment, New: newSegment})
	if err := rw.RewriteTree(root); err != nil {
		s.logger.Error("failed to rewrite page paths", "root", root, "error", err)
	}
}
