package api

import (
	"net/http"
	"strconv"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	"github.com/flipbookapp/flipbook-server/internal/http/response"
	"github.com/flipbookapp/flipbook-server/internal/service"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in memory
// before spilling to a temp file.
const maxUploadMemory = 32 << 20

func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		response.BadRequest(w, "Invalid multipart body", s.logger)
		return
	}

	email := r.FormValue("emailId")
	if email == "" {
		response.BadRequest(w, "emailId is required", s.logger)
		return
	}

	// The editor sends the type under either name depending on the upload
	// path it took.
	typ := r.FormValue("type")
	if typ == "" {
		typ = r.FormValue("assetType")
	}

	isGallery, _ := strconv.ParseBool(r.FormValue("isGallery"))

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required", s.logger)
		return
	}
	defer file.Close()

	res, err := s.assets.UploadAsset(r.Context(), service.UploadRequest{
		EmailID:          email,
		Type:             domain.AssetType(typ),
		VID:              r.FormValue("v_id"),
		FolderName:       r.FormValue("folderName"),
		FlipbookName:     r.FormValue("flipbookName"),
		PageVID:          r.FormValue("page_v_id"),
		ReplacingFileVID: r.FormValue("replacing_file_v_id"),
		IsGallery:        isGallery,
		FileName:         header.Filename,
	}, file)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, res, s.logger)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("emailId")
	fileVID := q.Get("fileVId")
	if email == "" || fileVID == "" {
		response.BadRequest(w, "emailId and fileVId are required", s.logger)
		return
	}

	if err := s.assets.DeleteAsset(r.Context(), email, fileVID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, nil, s.logger)
}

// GalleryAssetsResponse is the body of GET /get-gallery-assets.
type GalleryAssetsResponse struct {
	Assets []service.GalleryAsset `json:"assets"`
}

func (s *Server) handleGetGalleryAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("emailId")
	if email == "" {
		response.BadRequest(w, "emailId is required", s.logger)
		return
	}

	assets, err := s.assets.ListGalleryAssets(r.Context(), email, domain.AssetType(q.Get("type")))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if assets == nil {
		assets = []service.GalleryAsset{}
	}
	response.Success(w, GalleryAssetsResponse{Assets: assets}, s.logger)
}
