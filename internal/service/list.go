package service

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// BookSummary is one row of a workspace listing.
type BookSummary struct {
	ID        string    `json:"id"`
	VID       string    `json:"v_id"`
	RealName  string    `json:"realName"`
	Title     string    `json:"title"`
	Folder    string    `json:"folder"`
	Pages     int       `json:"pages"`
	Created   time.Time `json:"created"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"mtime"`
}

// List walks the user's physical folder tree and returns one summary per
// flipbook, healing records for books that exist only on disk, then appends
// the virtual Recent view on top. The filesystem is the source of truth for
// which books exist; the database fills in identity and timestamps.
func (s *FlipbookService) List(ctx context.Context, email string) ([]BookSummary, error) {
	folders, err := workspace.ListSubdirs(s.resolver.BooksRoot(email))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "list folders")
	}

	var out []BookSummary
	for _, folder := range folders {
		books, err := workspace.ListSubdirs(s.resolver.FolderDir(email, folder))
		if err != nil {
			s.logger.Warn("failed to list folder", "user", email, "folder", folder, "error", err)
			continue
		}
		for _, book := range books {
			fb, err := s.findOrHeal(ctx, email, folder, book)
			if err != nil {
				s.logger.Warn("skipping unresolvable flipbook",
					"user", email, "folder", folder, "book", book, "error", err)
				continue
			}
			out = append(out, s.summarize(email, folder, book, fb))
		}
	}

	recent, err := s.store.ListRecentFlipbooks(ctx, email)
	if err != nil {
		s.logger.Error("failed to list recent flipbooks", "user", email, "error", err)
		return out, nil
	}
	for _, fb := range recent {
		out = append(out, s.summarize(email, domain.RecentTag, fb.Name, fb))
	}
	return out, nil
}

// summarize builds one listing row from a record and its physical subtree.
// folder is the listing folder (possibly the virtual Recent tag); physical
// measurements always come from the book's real location.
func (s *FlipbookService) summarize(email, folder, book string, fb *domain.Flipbook) BookSummary {
	dir := s.resolver.BookDir(email, fb.Folder(), fb.Name)
	size, err := workspace.TreeSize(dir)
	if err != nil {
		s.logger.Warn("failed to measure flipbook size", "v_id", fb.VID, "error", err)
	}
	return BookSummary{
		ID:        path.Join(workspace.Sanitize(folder), workspace.Sanitize(book)),
		VID:       fb.VID,
		RealName:  workspace.Sanitize(book),
		Title:     fb.Name,
		Folder:    folder,
		Pages:     len(fb.Pages),
		Created:   fb.CreatedAt,
		Size:      size,
		UpdatedAt: fb.LastUpdated,
	}
}

// ListFolders returns the user's folder names: the virtual Recent folder
// first, then the physical folders in natural order.
func (s *FlipbookService) ListFolders(ctx context.Context, email string) ([]string, error) {
	physical, err := workspace.ListSubdirs(s.resolver.BooksRoot(email))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "list folders")
	}
	return append([]string{domain.RecentTag}, physical...), nil
}

// CreateFolder creates an empty folder directory. Folders are purely
// physical until a flipbook inside them is saved; no record is written.
func (s *FlipbookService) CreateFolder(ctx context.Context, email, folderName string) error {
	name := workspace.Sanitize(folderName)
	if name == "" || name == domain.RecentTag {
		return apperrors.Validationf("invalid folder name %q", folderName)
	}

	dir := s.resolver.FolderDir(email, name)
	if workspace.Exists(dir) {
		return apperrors.Existsf("folder %q already exists", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "create folder directory")
	}

	s.logger.Info("folder created", "user", email, "name", name)
	return nil
}
