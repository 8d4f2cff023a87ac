package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/id"
	"github.com/flipbookapp/flipbook-server/internal/store"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

// AssetService handles uploaded media: flipbook-scoped assets living under a
// book's assets tree, and gallery assets scoped only to the user.
type AssetService struct {
	store    *store.Store
	resolver *workspace.Resolver
	books    *FlipbookService
	logger   *slog.Logger
}

// NewAssetService creates an asset service. The flipbook service is used to
// resolve (and heal) the owning book of a scoped upload.
func NewAssetService(s *store.Store, resolver *workspace.Resolver, books *FlipbookService, logger *slog.Logger) *AssetService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AssetService{store: s, resolver: resolver, books: books, logger: logger}
}

// UploadRequest describes an incoming asset upload. Exactly one of two scopes
// applies: gallery (IsGallery) or flipbook-scoped, where the owner is
// addressed by VID or by folder+name.
type UploadRequest struct {
	EmailID          string
	Type             domain.AssetType
	VID              string
	FolderName       string
	FlipbookName     string
	PageVID          string
	ReplacingFileVID string
	IsGallery        bool

	// FileName is the client's original file name; only its extension
	// survives into the stored name.
	FileName string
}

// UploadResult points the client at the stored asset.
type UploadResult struct {
	URL      string `json:"url"`
	FileVID  string `json:"file_v_id"`
	Filename string `json:"filename"`
}

// UploadAsset streams an uploaded file into the workspace and records it.
// The stored file is named after its allocated file_v_id so renames of the
// owning book never have to touch asset file names. When ReplacingFileVID is
// set, the superseded asset is removed best-effort after the new one lands.
func (s *AssetService) UploadAsset(ctx context.Context, req UploadRequest, content io.Reader) (*UploadResult, error) {
	if !req.Type.IsValid() {
		return nil, apperrors.Validationf("unsupported asset type %q", req.Type)
	}

	fileVID, err := id.Generate(id.PrefixAsset)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "allocate asset id")
	}
	fileName := fileVID + filepath.Ext(req.FileName)

	asset := &domain.Asset{
		FileVID:    fileVID,
		PageVID:    domain.GlobalPageVID,
		Type:       req.Type,
		UserEmail:  req.EmailID,
		FileName:   fileName,
		UploadedAt: time.Now(),
	}

	var dir string
	if req.IsGallery {
		dir = s.resolver.GalleryDir(req.EmailID, req.Type)
		asset.URL = s.resolver.GalleryURL(req.EmailID, req.Type, fileName)
	} else {
		fb, err := s.resolveOwner(ctx, req)
		if err != nil {
			return nil, err
		}
		dir = s.resolver.AssetDir(req.EmailID, fb.Folder(), fb.Name, req.Type)
		asset.FlipbookVID = fb.VID
		asset.FlipbookName = fb.Name
		asset.FolderName = fb.Folder()
		asset.URL = s.resolver.AssetURL(req.EmailID, fb.Folder(), fb.Name, req.Type, fileName)
		if req.PageVID != "" {
			asset.PageVID = req.PageVID
		}
	}

	size, err := s.writeAssetFile(filepath.Join(dir, fileName), content)
	if err != nil {
		return nil, err
	}
	asset.Size = size

	if err := s.store.Assets.Create(ctx, fileVID, asset); err != nil {
		// Keep the two replicas consistent: an unrecorded file is invisible
		// to every cascade, so take it back out.
		if rmErr := os.Remove(filepath.Join(dir, fileName)); rmErr != nil {
			s.logger.Error("failed to remove unrecorded asset file",
				"file_v_id", fileVID, "error", rmErr)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "insert asset record")
	}

	if req.ReplacingFileVID != "" {
		s.removeReplaced(ctx, req.EmailID, req.ReplacingFileVID)
	}

	s.logger.Info("asset uploaded",
		"file_v_id", fileVID, "user", req.EmailID, "type", req.Type,
		"gallery", req.IsGallery, "size", size)
	return &UploadResult{URL: asset.URL, FileVID: fileVID, Filename: fileName}, nil
}

// resolveOwner finds the flipbook a scoped upload belongs to, by v_id or by
// logical address.
func (s *AssetService) resolveOwner(ctx context.Context, req UploadRequest) (*domain.Flipbook, error) {
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
	if req.FlipbookName == "" {
		return nil, apperrors.Validation("either v_id or flipbookName is required for a flipbook asset")
	}
	return s.books.findOrHeal(ctx, req.EmailID, req.FolderName, req.FlipbookName)
}

// writeAssetFile streams content into path, creating parents, and returns the
// number of bytes written.
func (s *AssetService) writeAssetFile(path string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeInternal, "create asset directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeInternal, "create asset file")
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		os.Remove(path)
		return 0, apperrors.Wrap(err, apperrors.CodeInternal, "write asset file")
	}
	return size, nil
}

// removeReplaced drops the asset an upload superseded. Best-effort: the new
// asset is already live, a stale leftover only wastes disk.
func (s *AssetService) removeReplaced(ctx context.Context, email, fileVID string) {
	old, err := s.store.GetAsset(ctx, fileVID)
	if err != nil {
		s.logger.Warn("replaced asset not found", "file_v_id", fileVID, "error", err)
		return
	}
	if !sameUser(old.UserEmail, email) {
		s.logger.Warn("replaced asset belongs to another user", "file_v_id", fileVID)
		return
	}
	s.books.deleteAssetBestEffort(ctx, old)
}

// DeleteAsset removes an asset's file and record.
func (s *AssetService) DeleteAsset(ctx context.Context, email, fileVID string) error {
	a, err := s.store.GetAsset(ctx, fileVID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFoundf("asset %q not found", fileVID)
	}
	if err != nil {
		return err
	}
	if !sameUser(a.UserEmail, email) {
		return apperrors.Forbidden("asset belongs to another user")
	}

	if path := s.resolver.PhysicalFromURL(a.URL); path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrap(err, apperrors.CodeInternal, "delete asset file")
		}
	}
	if err := s.store.Assets.Delete(ctx, fileVID); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "delete asset record")
	}

	s.logger.Info("asset deleted", "file_v_id", fileVID, "user", email)
	return nil
}

// GalleryAsset is one row of a gallery listing.
type GalleryAsset struct {
	Name       string           `json:"name"`
	URL        string           `json:"url"`
	Type       domain.AssetType `json:"type"`
	Size       int64            `json:"size"`
	UploadedAt time.Time        `json:"uploadedAt"`
}

// ListGalleryAssets returns the user's gallery assets, optionally filtered by
// type.
func (s *AssetService) ListGalleryAssets(ctx context.Context, email string, typ domain.AssetType) ([]GalleryAsset, error) {
	if typ != "" && !typ.IsValid() {
		return nil, apperrors.Validationf("unsupported asset type %q", typ)
	}
	assets, err := s.store.ListGalleryAssets(ctx, email, typ)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "list gallery assets")
	}
	out := make([]GalleryAsset, len(assets))
	for i, a := range assets {
		out[i] = GalleryAsset{
			Name:       a.FileName,
			URL:        a.URL,
			Type:       a.Type,
			Size:       a.Size,
			UploadedAt: a.UploadedAt,
		}
	}
	return out, nil
}
