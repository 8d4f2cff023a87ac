package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// MoveBook moves a flipbook between folders. The folder tag is swapped in
// place so the virtual Recent tag, when present, survives the move. The
// source folder is resolved through the store when currentFolder is the
// virtual tag.
func (s *FlipbookService) MoveBook(ctx context.Context, email, bookName, currentFolder, targetFolder string) error {
	source, err := s.resolver.RealFolder(ctx, email, currentFolder, bookName)
	if err != nil {
		return apperrors.NotFoundf("flipbook %q not found", bookName)
	}
	if source == targetFolder {
		return apperrors.Validationf("flipbook %q is already in %q", bookName, targetFolder)
	}

	srcDir := s.resolver.BookDir(email, source, bookName)
	dstDir := s.resolver.BookDir(email, targetFolder, bookName)
	if !workspace.Exists(srcDir) {
		return apperrors.NotFoundf("flipbook %q not found in %q", bookName, source)
	}
	if workspace.Exists(dstDir) {
		return apperrors.Existsf("flipbook %q already exists in %q", bookName, targetFolder)
	}

	// The target folder may not exist yet; the move creates it implicitly.
	if err := os.MkdirAll(filepath.Dir(dstDir), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "create target folder")
	}

	if err := s.mover.Move(srcDir, dstDir); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "move flipbook directory")
	}

	fb, err := s.store.FindFlipbook(ctx, email, source, bookName)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("moved flipbook has no record", "user", email, "name", bookName)
		return nil
	}
	if err != nil {
		return err
	}

	fb.FolderTags = fb.FolderTags.ReplaceTag(source, targetFolder)
	fb.LastUpdated = time.Now()
	if err := s.store.Flipbooks.Update(ctx, fb.VID, fb); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "update flipbook record")
	}

	s.cascadeAssetLocations(ctx, fb.VID, email, targetFolder, bookName)
	s.rewritePagePaths(dstDir,
		workspace.BookURLSegment(source, bookName),
		workspace.BookURLSegment(targetFolder, bookName))

	s.logger.Info("flipbook moved",
		"v_id", fb.VID, "user", email, "name", bookName, "from", source, "to", targetFolder)
	return nil
}
