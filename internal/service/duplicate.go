package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/id"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// DuplicateBook copies a flipbook to an auto-generated non-colliding name
// inside the same folder and gives the copy a life of its own: fresh
// flipbook, page and asset identities, renamed asset files, and page HTML
// rewritten to reference the copy instead of the source.
// Returns the name of the new flipbook.
func (s *FlipbookService) DuplicateBook(ctx context.Context, email, folderTag, bookName string) (string, error) {
	folder, err := s.resolver.RealFolder(ctx, email, folderTag, bookName)
	if err != nil {
		return "", apperrors.NotFoundf("flipbook %q not found", bookName)
	}

	srcDir := s.resolver.BookDir(email, folder, bookName)
	if !workspace.Exists(srcDir) {
		return "", apperrors.NotFoundf("flipbook %q not found in %q", bookName, folder)
	}

	folderDir := s.resolver.FolderDir(email, folder)
	newName := workspace.ProbeCopyName(folderDir, workspace.Sanitize(bookName))
	newDir := filepath.Join(folderDir, newName)

	if err := workspace.CopyTree(srcDir, newDir); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "copy flipbook directory")
	}

	src, err := s.findOrHeal(ctx, email, folder, bookName)
	if err != nil {
		return "", err
	}

	if err := s.insertDuplicate(ctx, src, email, folder, newName, newDir); err != nil {
		return "", err
	}

	s.logger.Info("flipbook duplicated",
		"user", email, "folder", folder, "source", bookName, "copy", newName)
	return newName, nil
}

// DuplicateFolder copies a whole folder under an auto-generated name and
// duplicates every flipbook record inside it with fresh identities.
// Returns the name of the new folder.
func (s *FlipbookService) DuplicateFolder(ctx context.Context, email, folderName string) (string, error) {
	if folderName == domain.RecentTag {
		return "", apperrors.Validation("the Recent folder cannot be duplicated")
	}

	srcDir := s.resolver.FolderDir(email, folderName)
	if !workspace.Exists(srcDir) {
		return "", apperrors.NotFoundf("folder %q not found", folderName)
	}

	newFolder := workspace.ProbeCopyName(s.resolver.BooksRoot(email), workspace.Sanitize(folderName))
	newFolderDir := filepath.Join(s.resolver.BooksRoot(email), newFolder)

	if err := workspace.CopyTree(srcDir, newFolderDir); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "copy folder directory")
	}

	bookDirs, err := workspace.ListSubdirs(srcDir)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "list folder flipbooks")
	}
	for _, bookDir := range bookDirs {
		src, err := s.findOrHeal(ctx, email, folderName, bookDir)
		if err != nil {
			s.logger.Warn("skipping unrecoverable flipbook during folder duplicate",
				"user", email, "folder", folderName, "book", bookDir, "error", err)
			continue
		}
		newBookDir := filepath.Join(newFolderDir, bookDir)
		if err := s.insertDuplicate(ctx, src, email, newFolder, src.Name, newBookDir); err != nil {
			s.logger.Error("failed to duplicate flipbook records",
				"user", email, "folder", folderName, "book", src.Name, "error", err)
		}
	}

	s.logger.Info("folder duplicated",
		"user", email, "source", folderName, "copy", newFolder, "flipbooks", len(bookDirs))
	return newFolder, nil
}

// insertDuplicate creates the record side of a duplicate whose files were
// already copied to newDir: a fresh flipbook record with fresh page ids,
// fresh asset identities with renamed physical files, and page HTML
// rewritten from the source's path segment and asset references to the new
// ones. Legacy sources without assets still get fresh page ids.
func (s *FlipbookService) insertDuplicate(ctx context.Context, src *domain.Flipbook, email, newFolder, newName, newDir string) error {
	newVID, err := id.Generate(id.PrefixFlipbook)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "allocate flipbook id")
	}

	pageVIDs := make(map[string]string, len(src.Pages))
	pages := make([]domain.Page, len(src.Pages))
	for i, p := range src.Pages {
		fresh, err := id.Generate(id.PrefixPage)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "allocate page id")
		}
		pageVIDs[p.VID] = fresh
		pages[i] = domain.Page{Number: p.Number, Name: p.Name, FileName: p.FileName, VID: fresh}
	}

	replacements := []workspace.Replacement{{
		Old: workspace.BookURLSegment(src.Folder(), src.Name),
		New: workspace.BookURLSegment(newFolder, newName),
	}}

	assets, err := s.store.ListAssetsByFlipbook(ctx, src.VID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "list source assets")
	}
	for _, a := range assets {
		newFileVID, err := id.Generate(id.PrefixAsset)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "allocate asset id")
		}
		newFileName := newFileVID + filepath.Ext(a.FileName)

		// The copy inherited the source's asset file; rename it to the fresh
		// identity so the two books never share a file.
		assetDir := filepath.Join(newDir, workspace.AssetsSegment, string(a.Type))
		if err := os.Rename(filepath.Join(assetDir, a.FileName), filepath.Join(assetDir, newFileName)); err != nil {
			s.logger.Error("failed to rename duplicated asset file",
				"file_v_id", a.FileVID, "file", a.FileName, "error", err)
			continue
		}

		pageVID := a.PageVID
		if mapped, ok := pageVIDs[pageVID]; ok {
			pageVID = mapped
		}

		dup := &domain.Asset{
			FileVID:      newFileVID,
			FlipbookVID:  newVID,
			PageVID:      pageVID,
			Type:         a.Type,
			UserEmail:    a.UserEmail,
			FileName:     newFileName,
			FlipbookName: newName,
			FolderName:   newFolder,
			URL:          s.resolver.AssetURL(email, newFolder, newName, a.Type, newFileName),
			Size:         a.Size,
			UploadedAt:   time.Now(),
		}
		if err := s.store.Assets.Create(ctx, newFileVID, dup); err != nil {
			s.logger.Error("failed to insert duplicated asset record",
				"file_v_id", newFileVID, "error", err)
			continue
		}

		replacements = append(replacements,
			workspace.Replacement{Old: a.FileName, New: newFileName},
			workspace.Replacement{Old: a.FileVID, New: newFileVID},
		)
	}

	rw := workspace.NewRewriter(s.logger, replacements...)
	if err := rw.RewriteTree(newDir); err != nil {
		s.logger.Error("failed to rewrite duplicated pages", "root", newDir, "error", err)
	}

	now := time.Now()
	dup := &domain.Flipbook{
		VID:         newVID,
		UserEmail:   src.UserEmail,
		FolderTags:  domain.NewFolderTags(newFolder),
		Name:        newName,
		Pages:       pages,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.store.Flipbooks.Create(ctx, newVID, dup); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "insert duplicated flipbook record")
	}
	return nil
}
