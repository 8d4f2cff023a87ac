package domain

import "time"

// GlobalPageVID marks an asset as unscoped: it belongs to the user's gallery
// rather than to a particular page.
const GlobalPageVID = "global"

// AssetType classifies an uploaded media file.
type AssetType string

// Supported asset types. The value doubles as the physical subdirectory name
// under a flipbook's assets tree.
const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
	AssetGif   AssetType = "gif"
)

// IsValid reports whether the asset type is one of the supported kinds.
func (a AssetType) IsValid() bool {
	switch a {
	case AssetImage, AssetVideo, AssetGif:
		return true
	}
	return false
}

// Asset is a stored media file referenced from page HTML.
//
// FlipbookName and FolderName are denormalized copies of the owning
// flipbook's current location. They exist so the URL can be rebuilt without
// a join; every rename/move/duplicate of the owner must rewrite them
// together with URL and the physical file path.
type Asset struct {
	FileVID      string    `json:"file_v_id"`
	FlipbookVID  string    `json:"flipbook_v_id"`
	PageVID      string    `json:"page_v_id"`
	Type         AssetType `json:"assetType"`
	UserEmail    string    `json:"userEmail"`
	FileName     string    `json:"fileName"`
	FlipbookName string    `json:"flipbookName"`
	FolderName   string    `json:"folderName"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// IsGallery reports whether the asset is user-scoped (gallery) rather than
// owned by a flipbook.
func (a *Asset) IsGallery() bool {
	return a.FlipbookVID == ""
}
