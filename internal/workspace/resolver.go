// Package workspace owns the filesystem replica of the flipbook data: it
// resolves logical identities to physical paths, moves directory trees with
// retry, and rewrites asset references inside page HTML.
//
// No other package computes paths under the uploads root. The resolver is the
// single translation boundary between logical (user, folder, book) addresses
// and physical locations.
package workspace

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/flipbookapp/flipbook-server/internal/domain"
)

// BooksSegment is the fixed directory between a user's root and their
// folders.
const BooksSegment = "My_Flipbooks"

// AssetsSegment is the directory under a book holding its media files.
const AssetsSegment = "assets"

// BookLookup resolves flipbook records when a virtual folder tag has to be
// translated to a physical one. Implemented by the store.
type BookLookup interface {
	GetFlipbook(ctx context.Context, vid string) (*domain.Flipbook, error)
	FindFlipbook(ctx context.Context, email, folder, name string) (*domain.Flipbook, error)
}

// Resolver maps logical flipbook addresses to directories under the uploads
// root. It holds no per-request state; every resolution reads fresh from its
// inputs and, for virtual tags, from the database.
type Resolver struct {
	root  string
	books BookLookup
}

// NewResolver creates a resolver rooted at the uploads directory.
func NewResolver(root string, books BookLookup) *Resolver {
	return &Resolver{root: root, books: books}
}

// Root returns the uploads root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Sanitize strips every character outside [A-Za-z0-9 _-] from a name so it
// is safe as a path segment. Path separators and dots cannot survive.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ', c == '_', c == '-':
			b.WriteRune(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// SanitizeEmail converts an email into a per-user directory name. Unsafe
// characters are replaced rather than stripped so distinct addresses stay
// distinct ("a.b@c" and "ab@c" must not collide).
func SanitizeEmail(email string) string {
	var b strings.Builder
	b.Grow(len(email))
	for _, c := range strings.TrimSpace(email) {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '_', c == '-':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// UserRoot returns the user's workspace directory.
func (r *Resolver) UserRoot(email string) string {
	return filepath.Join(r.root, SanitizeEmail(email))
}

// BooksRoot returns the directory holding the user's folders.
func (r *Resolver) BooksRoot(email string) string {
	return filepath.Join(r.UserRoot(email), BooksSegment)
}

// FolderDir returns the physical directory of a folder.
func (r *Resolver) FolderDir(email, folder string) string {
	return filepath.Join(r.BooksRoot(email), Sanitize(folder))
}

// BookDir returns the physical directory of a flipbook.
func (r *Resolver) BookDir(email, folder, book string) string {
	return filepath.Join(r.FolderDir(email, folder), Sanitize(book))
}

// AssetDir returns the directory holding a book's assets of one type.
func (r *Resolver) AssetDir(email, folder, book string, typ domain.AssetType) string {
	return filepath.Join(r.BookDir(email, folder, book), AssetsSegment, string(typ))
}

// AssetURL builds the absolute-from-root URL of a flipbook asset. The URL
// mirrors the physical layout so the static file server can serve it as-is.
func (r *Resolver) AssetURL(email, folder, book string, typ domain.AssetType, fileName string) string {
	return "/" + path.Join("uploads", SanitizeEmail(email), BooksSegment,
		Sanitize(folder), Sanitize(book), AssetsSegment, string(typ), fileName)
}

// BookURLSegment returns the "<folder>/<book>" path fragment as it appears in
// both directory paths and asset URLs. This is the literal substring the
// content rewriter swaps on rename and move.
func BookURLSegment(folder, book string) string {
	return path.Join(Sanitize(folder), Sanitize(book))
}

// galleryDirNames maps asset types to the fixed gallery directory names.
var galleryDirNames = map[domain.AssetType]string{
	domain.AssetImage: "Images",
	domain.AssetVideo: "Videos",
	domain.AssetGif:   "gifs",
}

// GalleryDir returns the user's gallery directory for an asset type.
func (r *Resolver) GalleryDir(email string, typ domain.AssetType) string {
	return filepath.Join(r.UserRoot(email), galleryDirNames[typ])
}

// GalleryURL builds the URL of a gallery asset.
func (r *Resolver) GalleryURL(email string, typ domain.AssetType, fileName string) string {
	return "/" + path.Join("uploads", SanitizeEmail(email), galleryDirNames[typ], fileName)
}

// PhysicalFromURL maps a stored asset URL back to the physical file path
// under the uploads root. Returns "" for URLs outside the uploads tree.
func (r *Resolver) PhysicalFromURL(url string) string {
	rest, ok := strings.CutPrefix(url, "/uploads/")
	if !ok {
		return ""
	}
	return filepath.Join(r.root, filepath.FromSlash(rest))
}

// RealFolder resolves a folder tag to the physical folder of a book. The
// virtual Recent tag has no directory of its own, so it is resolved through
// the database to the book's primary tag. Non-virtual tags pass through.
func (r *Resolver) RealFolder(ctx context.Context, email, folderTag, bookName string) (string, error) {
	if folderTag != domain.RecentTag {
		if folderTag == "" {
			return domain.DefaultFolder, nil
		}
		return folderTag, nil
	}
	book, err := r.books.FindFlipbook(ctx, email, domain.RecentTag, bookName)
	if err != nil {
		return "", fmt.Errorf("resolve virtual folder for %q: %w", bookName, err)
	}
	return book.Folder(), nil
}

// ResolveByVID derives the physical location of a flipbook from its stable
// identity: the owning record's primary tag and current name.
func (r *Resolver) ResolveByVID(ctx context.Context, vid string) (folder, book, dir string, err error) {
	fb, err := r.books.GetFlipbook(ctx, vid)
	if err != nil {
		return "", "", "", err
	}
	folder = fb.Folder()
	book = fb.Name
	return folder, book, r.BookDir(fb.UserEmail, folder, book), nil
}
