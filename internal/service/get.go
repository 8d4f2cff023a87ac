package service

import (
	"context"
	"os"
	"path/filepath"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
)

// PageContent is one page of a fetched flipbook.
type PageContent struct {
	Name string `json:"name"`
	HTML string `json:"html"`
	VID  string `json:"v_id"`
}

// BookMeta identifies a fetched flipbook.
type BookMeta struct {
	FlipbookName string `json:"flipbookName"`
	FolderName   string `json:"folderName"`
	VID          string `json:"v_id"`
}

// GetResult is a flipbook with its page contents.
type GetResult struct {
	Pages []PageContent `json:"pages"`
	Meta  BookMeta      `json:"meta"`
}

// Get fetches a flipbook by v_id or by logical address and reads its page
// contents from disk. Books that exist physically without a (complete)
// record are healed on the way.
func (s *FlipbookService) Get(ctx context.Context, email, vid, folder, book string) (*GetResult, error) {
	var fb *domain.Flipbook
	var err error

	if vid != "" {
		fb, err = s.store.GetFlipbook(ctx, vid)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("flipbook %q not found", vid)
		}
		if err != nil {
			return nil, err
		}
		if !sameUser(fb.UserEmail, email) {
			return nil, apperrors.Forbidden("flipbook belongs to another user")
		}
		if len(fb.Pages) == 0 {
			fb, err = s.findOrHeal(ctx, email, fb.Folder(), fb.Name)
			if err != nil {
				return nil, err
			}
		}
	} else {
		fb, err = s.findOrHeal(ctx, email, folder, book)
		if err != nil {
			return nil, err
		}
	}

	dir := s.resolver.BookDir(email, fb.Folder(), fb.Name)
	pages := make([]PageContent, len(fb.Pages))
	for i, p := range fb.Pages {
		content, err := os.ReadFile(filepath.Join(dir, p.FileName))
		if err != nil {
			// A record can momentarily outrun the filesystem replica; serve
			// what exists and log the gap.
			s.logger.Warn("page file missing",
				"v_id", fb.VID, "file", p.FileName, "error", err)
		}
		pages[i] = PageContent{Name: p.Name, HTML: string(content), VID: p.VID}
	}

	return &GetResult{
		Pages: pages,
		Meta: BookMeta{
			FlipbookName: fb.Name,
			FolderName:   fb.Folder(),
			VID:          fb.VID,
		},
	}, nil
}
