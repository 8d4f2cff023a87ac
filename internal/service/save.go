package service

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/id"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// PageInput is one page submitted to Save.
type PageInput struct {
	Name    string
	Content string
	VID     string
}

// SaveRequest describes a Save operation.
type SaveRequest struct {
	EmailID      string
	FlipbookName string
	FolderName   string
	Pages        []PageInput
	Overwrite    bool
	VID          string
}

// SaveResult is the outcome of a Save.
type SaveResult struct {
	VID          string
	FlipbookName string
	SavedPages   int
	Location     string
}

// Save writes the flipbook's pages under its physical directory and upserts
// the matching record, preserving page identities across saves. Steps, in
// order: conflict check, page writes, orphan cleanup (files, asset records,
// asset files), record upsert, recency eviction. A failure mid-way leaves
// earlier steps in place; re-running is safe because every path and identity
// is resolved fresh.
func (s *FlipbookService) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	existing, err := s.findForSave(ctx, req)
	if err != nil {
		return nil, err
	}

	folder := req.FolderName
	if existing != nil {
		folder = existing.Folder()
	} else if folder == "" || folder == domain.RecentTag {
		folder = domain.DefaultFolder
	}

	dir := s.resolver.BookDir(req.EmailID, folder, req.FlipbookName)
	if !req.Overwrite && workspace.Exists(dir) {
		return nil, apperrors.Existsf("flipbook %q already exists in %q", req.FlipbookName, folder)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "create flipbook directory")
	}

	var prior []domain.Page
	if existing != nil {
		prior = existing.Pages
	}

	pages := make([]domain.Page, 0, len(req.Pages))
	for i, in := range req.Pages {
		page := domain.Page{
			Number:   i + 1,
			Name:     in.Name,
			FileName: pageFileName(in.Name),
			VID:      matchPageVID(prior, in),
		}
		if page.VID == "" {
			page.VID, err = id.Generate(id.PrefixPage)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeInternal, "allocate page id")
			}
		}
		if err := os.WriteFile(filepath.Join(dir, page.FileName), []byte(in.Content), 0o644); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.CodeInternal, "write page %q", page.FileName)
		}
		pages = append(pages, page)
	}

	if existing != nil {
		s.cleanupOrphanPages(ctx, existing, pages, dir)
	}

	now := time.Now()
	fb := &domain.Flipbook{
		UserEmail:   req.EmailID,
		FolderTags:  domain.NewFolderTags(folder),
		Name:        req.FlipbookName,
		Pages:       pages,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if existing != nil {
		fb.VID = existing.VID
		fb.CreatedAt = existing.CreatedAt
	} else {
		fb.VID, err = id.Generate(id.PrefixFlipbook)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "allocate flipbook id")
		}
	}

	if err := s.store.Flipbooks.Put(ctx, fb.VID, fb); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "store flipbook record")
	}

	s.enforceRecentLimit(ctx, req.EmailID)

	s.logger.Info("flipbook saved",
		"v_id", fb.VID, "user", req.EmailID, "folder", folder,
		"name", req.FlipbookName, "pages", len(pages))

	return &SaveResult{
		VID:          fb.VID,
		FlipbookName: fb.Name,
		SavedPages:   len(pages),
		Location:     path.Join(workspace.Sanitize(folder), workspace.Sanitize(req.FlipbookName)),
	}, nil
}

// findForSave resolves the record a Save should update: by v_id when the
// caller supplied one (with an ownership check), otherwise by logical
// address. A missing record is not an error; it means a fresh create.
func (s *FlipbookService) findForSave(ctx context.Context, req SaveRequest) (*domain.Flipbook, error) {
	if req.VID != "" {
		fb, err := s.store.GetFlipbook(ctx, req.VID)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("flipbook %q not found", req.VID)
		}
		if err != nil {
			return nil, err
		}
		if !sameUser(fb.UserEmail, req.EmailID) {
			return nil, apperrors.Forbidden("flipbook belongs to another user")
		}
		return fb, nil
	}

	fb, err := s.store.FindFlipbook(ctx, req.EmailID, req.FolderName, req.FlipbookName)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// cleanupOrphanPages deletes page files that dropped out of the page list,
// together with their dependent asset records and physical asset files.
// Everything here is best-effort: the save already succeeded.
func (s *FlipbookService) cleanupOrphanPages(ctx context.Context, existing *domain.Flipbook, pages []domain.Page, dir string) {
	kept := make(map[string]bool, len(pages))
	for _, p := range pages {
		kept[p.VID] = true
	}

	for _, old := range existing.Pages {
		if kept[old.VID] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, old.FileName)); err != nil && !os.IsNotExist(err) {
			s.logger.Error("failed to delete orphan page file",
				"v_id", existing.VID, "file", old.FileName, "error", err)
		}

		assets, err := s.store.ListAssetsByPage(ctx, existing.VID, old.VID)
		if err != nil {
			s.logger.Error("failed to list assets of orphan page",
				"v_id", existing.VID, "page_v_id", old.VID, "error", err)
			continue
		}
		for _, a := range assets {
			s.deleteAssetBestEffort(ctx, a)
		}
	}
}

// matchPageVID preserves a page's identity across saves: match by v_id
// first, then by display name. Empty means the page is new.
func matchPageVID(prior []domain.Page, in PageInput) string {
	if in.VID != "" {
		for _, p := range prior {
			if p.VID == in.VID {
				return p.VID
			}
		}
	}
	for _, p := range prior {
		if p.Name == in.Name {
			return p.VID
		}
	}
	return ""
}

// pageFileName derives the physical file name from a page's display name,
// suffixing .html when absent.
func pageFileName(name string) string {
	fileName := workspace.Sanitize(strings.TrimSuffix(name, ".html"))
	return fileName + ".html"
}

func sameUser(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
