package store

import (
	"context"

	"github.com/flipbookapp/flipbook-server/internal/domain"
)

// GetAsset retrieves an asset by file_v_id.
func (s *Store) GetAsset(ctx context.Context, fileVID string) (*domain.Asset, error) {
	return s.Assets.Get(ctx, fileVID)
}

// ListAssetsByFlipbook returns every asset owned by the flipbook.
func (s *Store) ListAssetsByFlipbook(ctx context.Context, flipbookVID string) ([]*domain.Asset, error) {
	return s.Assets.ListByIndex(ctx, "flipbook", flipbookVID)
}

// ListAssetsByPage returns the flipbook's assets scoped to one page.
func (s *Store) ListAssetsByPage(ctx context.Context, flipbookVID, pageVID string) ([]*domain.Asset, error) {
	assets, err := s.ListAssetsByFlipbook(ctx, flipbookVID)
	if err != nil {
		return nil, err
	}
	out := assets[:0]
	for _, a := range assets {
		if a.PageVID == pageVID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListGalleryAssets returns the user's unscoped assets, optionally filtered
// by type. Gallery assets have no owning flipbook.
func (s *Store) ListGalleryAssets(ctx context.Context, email string, typ domain.AssetType) ([]*domain.Asset, error) {
	assets, err := s.Assets.ListByIndex(ctx, "user", normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	out := assets[:0]
	for _, a := range assets {
		if !a.IsGallery() {
			continue
		}
		if typ != "" && a.Type != typ {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// DeleteAssetsByFlipbook removes every asset record owned by the flipbook
// and returns the deleted records so callers can clean up physical files.
func (s *Store) DeleteAssetsByFlipbook(ctx context.Context, flipbookVID string) ([]*domain.Asset, error) {
	assets, err := s.ListAssetsByFlipbook(ctx, flipbookVID)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if err := s.Assets.Delete(ctx, a.FileVID); err != nil {
			return nil, err
		}
	}
	return assets, nil
}
