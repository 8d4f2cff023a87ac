package service

import (
	"context"
	"os"

	"github.com/flipbookapp/flipbook-server/internal/domain"
)

// cascadeAssetLocations rewrites the denormalized location fields and URL of
// every asset owned by the flipbook after its folder or name changed. The
// physical files moved together with the book's directory, so only the
// records need touching. Per-asset failures are logged and skipped.
func (s *FlipbookService) cascadeAssetLocations(ctx context.Context, flipbookVID, email, folder, book string) {
	assets, err := s.store.ListAssetsByFlipbook(ctx, flipbookVID)
	if err != nil {
		s.logger.Error("failed to list assets for cascade",
			"v_id", flipbookVID, "error", err)
		return
	}
	for _, a := range assets {
		a.FolderName = folder
		a.FlipbookName = book
		a.URL = s.resolver.AssetURL(email, folder, book, a.Type, a.FileName)
		if err := s.store.Assets.Update(ctx, a.FileVID, a); err != nil {
			s.logger.Error("failed to update asset location",
				"file_v_id", a.FileVID, "v_id", flipbookVID, "error", err)
		}
	}
}

// deleteAssetBestEffort removes an asset's record and physical file. Used by
// cascades where one bad asset must not abort the operation.
func (s *FlipbookService) deleteAssetBestEffort(ctx context.Context, a *domain.Asset) {
	if err := s.store.Assets.Delete(ctx, a.FileVID); err != nil {
		s.logger.Error("failed to delete asset record",
			"file_v_id", a.FileVID, "error", err)
	}
	s.removeAssetFile(a)
}

// removeAssetFile deletes an asset's physical file if it still exists.
func (s *FlipbookService) removeAssetFile(a *domain.Asset) {
	path := s.resolver.PhysicalFromURL(a.URL)
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to delete asset file",
			"file_v_id", a.FileVID, "path", path, "error", err)
	}
}
