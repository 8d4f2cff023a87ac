package service

import (
	"context"
	"os"
	"strings"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/id"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// HealBook ensures a physical book has a matching record, creating or
// completing it from the filesystem. Used by the uploads watcher when books
// appear on disk outside the API.
func (s *FlipbookService) HealBook(ctx context.Context, email, folder, book string) error {
	_, err := s.findOrHeal(ctx, email, folder, book)
	return err
}

// findOrHeal resolves a flipbook record by its logical address, rebuilding a
// missing or page-less record from the filesystem when the physical book
// exists without a database counterpart (legacy data, or books dropped onto
// disk directly). A non-empty record is never overwritten.
func (s *FlipbookService) findOrHeal(ctx context.Context, email, folder, book string) (*domain.Flipbook, error) {
	existing, err := s.store.FindFlipbook(ctx, email, folder, book)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil && len(existing.Pages) > 0 {
		return existing, nil
	}
	return s.healBook(ctx, existing, email, folder, book)
}

// healBook synthesizes page entries from the naturally sorted .html listing
// of the book's directory and inserts (or completes) the record, using
// filesystem timestamps for createdAt/lastUpdated.
func (s *FlipbookService) healBook(ctx context.Context, existing *domain.Flipbook, email, folder, book string) (*domain.Flipbook, error) {
	dir := s.resolver.BookDir(email, folder, book)
	files, err := workspace.ListHTML(dir)
	if err != nil || len(files) == 0 {
		return nil, apperrors.NotFoundf("flipbook %q not found in %q", book, folder)
	}

	pages := make([]domain.Page, len(files))
	for i, file := range files {
		pageVID, err := id.Generate(id.PrefixPage)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "allocate page id")
		}
		pages[i] = domain.Page{
			Number:   i + 1,
			Name:     strings.TrimSuffix(file, ".html"),
			FileName: file,
			VID:      pageVID,
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "stat flipbook directory")
	}

	if existing != nil {
		// Record exists but carries no pages; complete it in place.
		existing.Pages = pages
		existing.LastUpdated = info.ModTime()
		if err := s.store.Flipbooks.Update(ctx, existing.VID, existing); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "update healed flipbook record")
		}
		s.logger.Info("healed page-less flipbook record",
			"v_id", existing.VID, "user", email, "folder", folder, "name", book, "pages", len(pages))
		return existing, nil
	}

	vid, err := id.Generate(id.PrefixFlipbook)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "allocate flipbook id")
	}
	fb := &domain.Flipbook{
		VID:       vid,
		UserEmail: email,
		// Healed books were never saved through the API, so they do not
		// enter the Recent set.
		FolderTags:  domain.FolderTags{folder},
		Name:        book,
		Pages:       pages,
		CreatedAt:   info.ModTime(),
		LastUpdated: info.ModTime(),
	}
	if err := s.store.Flipbooks.Create(ctx, vid, fb); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "insert healed flipbook record")
	}

	s.logger.Info("healed flipbook from filesystem",
		"v_id", vid, "user", email, "folder", folder, "name", book, "pages", len(pages))
	return fb, nil
}
