// Package domain contains the core types shared between the store, the
// workspace and the services: flipbooks, their pages, and media assets.
package domain

import "time"

// RecentTag is the virtual folder tag marking a flipbook as recently updated.
// It never corresponds to a physical directory.
const RecentTag = "Recent Book"

// DefaultFolder is the label used when a flipbook's tag set contains no real
// folder (legacy records that only carry the Recent tag).
const DefaultFolder = "My Flipbooks"

// Flipbook is one logical paginated document. Its VID is the stable
// cross-store identity: it survives renames, moves and folder changes, and a
// duplicate always gets a fresh one.
type Flipbook struct {
	VID         string     `json:"v_id"`
	UserEmail   string     `json:"userEmail"`
	FolderTags  FolderTags `json:"folderName"`
	Name        string     `json:"flipbookName"`
	Pages       []Page     `json:"pages"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// Page is a single HTML page embedded in a flipbook. VID is stable across
// saves as long as the page survives; only a brand-new page gets a new one.
type Page struct {
	Number   int    `json:"pageNumber"`
	Name     string `json:"name"`
	FileName string `json:"fileName"`
	VID      string `json:"v_id"`
}

// Folder returns the flipbook's real (physical) folder, falling back to
// DefaultFolder when the tag set holds nothing but virtual tags.
func (f *Flipbook) Folder() string {
	return f.FolderTags.Primary()
}

// IsRecent reports whether the flipbook carries the Recent tag.
func (f *Flipbook) IsRecent() bool {
	return f.FolderTags.Has(RecentTag)
}

// PageByVID returns the page with the given id, or nil.
func (f *Flipbook) PageByVID(vid string) *Page {
	for i := range f.Pages {
		if f.Pages[i].VID == vid {
			return &f.Pages[i]
		}
	}
	return nil
}

// PageByName returns the page with the given display name, or nil.
func (f *Flipbook) PageByName(name string) *Page {
	for i := range f.Pages {
		if f.Pages[i].Name == name {
			return &f.Pages[i]
		}
	}
	return nil
}
