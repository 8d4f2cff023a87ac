package service

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
	"github.com/flipbookapp/flipbook-server/internal/store"
	"github.com/flipbookapp/flipbook-server/internal/workspace"
)

const testEmail = "user@example.com"

type testEnv struct {
	svc    *FlipbookService
	assets *AssetService
	store  *store.Store
	root   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	root := t.TempDir()
	resolver := workspace.NewResolver(root, st)
	mover := workspace.NewMover(workspace.DefaultMovePolicy, nil)
	svc := NewFlipbookService(st, resolver, mover, 10, nil)
	assets := NewAssetService(st, resolver, svc, nil)
	return &testEnv{svc: svc, assets: assets, store: st, root: root}
}

func (e *testEnv) save(t *testing.T, folder, name string, pages ...PageInput) *SaveResult {
	t.Helper()
	res, err := e.svc.Save(context.Background(), SaveRequest{
		EmailID:      testEmail,
		FlipbookName: name,
		FolderName:   folder,
		Pages:        pages,
		Overwrite:    true,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) bookDir(folder, name string) string {
	return filepath.Join(e.root, workspace.SanitizeEmail(testEmail),
		workspace.BooksSegment, workspace.Sanitize(folder), workspace.Sanitize(name))
}

func TestSaveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report",
		PageInput{Name: "Cover", Content: "<h1>Cover</h1>"},
		PageInput{Name: "Intro", Content: "<p>Intro</p>"},
	)
	assert.NotEmpty(t, res.VID)
	assert.Equal(t, 2, res.SavedPages)
	assert.Equal(t, "Work/Report", res.Location)

	// Pages land as physical files.
	assert.FileExists(t, filepath.Join(env.bookDir("Work", "Report"), "Cover.html"))
	assert.FileExists(t, filepath.Join(env.bookDir("Work", "Report"), "Intro.html"))

	got, err := env.svc.Get(ctx, testEmail, "", "Work", "Report")
	require.NoError(t, err)
	assert.Equal(t, res.VID, got.Meta.VID)
	assert.Equal(t, "Report", got.Meta.FlipbookName)
	assert.Equal(t, "Work", got.Meta.FolderName)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, "Cover", got.Pages[0].Name)
	assert.Equal(t, "<h1>Cover</h1>", got.Pages[0].HTML)
	assert.Equal(t, "<p>Intro</p>", got.Pages[1].HTML)
}

func TestSaveConflictWithoutOverwrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "original"})

	_, err := env.svc.Save(ctx, SaveRequest{
		EmailID:      testEmail,
		FlipbookName: "Report",
		FolderName:   "Work",
		Pages:        []PageInput{{Name: "Cover", Content: "clobbered"}},
	})
	assert.ErrorIs(t, err, apperrors.ErrExists)

	// The existing book is untouched.
	content, err := os.ReadFile(filepath.Join(env.bookDir("Work", "Report"), "Cover.html"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestSavePreservesIdentities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.save(t, "Work", "Report",
		PageInput{Name: "Cover", Content: "v1"},
		PageInput{Name: "Intro", Content: "v1"},
	)
	got, err := env.svc.Get(ctx, testEmail, "", "Work", "Report")
	require.NoError(t, err)
	coverVID, introVID := got.Pages[0].VID, got.Pages[1].VID

	second := env.save(t, "Work", "Report",
		PageInput{Name: "Cover", Content: "v2"},
		PageInput{Name: "Intro", Content: "v2"},
	)
	assert.Equal(t, first.VID, second.VID, "flipbook identity must survive a re-save")

	got, err = env.svc.Get(ctx, testEmail, "", "Work", "Report")
	require.NoError(t, err)
	assert.Equal(t, coverVID, got.Pages[0].VID, "page identity must survive a re-save")
	assert.Equal(t, introVID, got.Pages[1].VID)
	assert.Equal(t, "v2", got.Pages[0].HTML)
}

func TestSaveOrphanPageCleanup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report",
		PageInput{Name: "Cover", Content: "x"},
		PageInput{Name: "Extra", Content: "x"},
	)
	got, err := env.svc.Get(ctx, testEmail, "", "Work", "Report")
	require.NoError(t, err)
	extraVID := got.Pages[1].VID

	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:  testEmail,
		Type:     domain.AssetImage,
		VID:      res.VID,
		PageVID:  extraVID,
		FileName: "photo.png",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	// Re-save without the Extra page.
	env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	assert.NoFileExists(t, filepath.Join(env.bookDir("Work", "Report"), "Extra.html"))
	_, err = env.store.GetAsset(ctx, up.FileVID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "orphan page's asset record must be deleted")
	assert.NoFileExists(t, filepath.Join(env.bookDir("Work", "Report"),
		workspace.AssetsSegment, "image", up.Filename))
}

func TestRenameBookCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "placeholder"})
	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:  testEmail,
		Type:     domain.AssetImage,
		VID:      res.VID,
		FileName: "photo.png",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	// Embed the asset URL the way the editor does, then re-save the page.
	env.save(t, "Work", "Report",
		PageInput{Name: "Cover", Content: `<img src="` + up.URL + `">`})

	require.NoError(t, env.svc.RenameBook(ctx, testEmail, "Work", "Report", "Annual"))

	assert.NoDirExists(t, env.bookDir("Work", "Report"))
	assert.DirExists(t, env.bookDir("Work", "Annual"))

	fb, err := env.store.GetFlipbook(ctx, res.VID)
	require.NoError(t, err)
	assert.Equal(t, "Annual", fb.Name)

	a, err := env.store.GetAsset(ctx, up.FileVID)
	require.NoError(t, err)
	assert.Equal(t, "Annual", a.FlipbookName)
	assert.Contains(t, a.URL, "/Work/Annual/")
	assert.NotContains(t, a.URL, "/Work/Report/")

	content, err := os.ReadFile(filepath.Join(env.bookDir("Work", "Annual"), "Cover.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "Work/Report",
		"page HTML must not reference the old path segment")
	assert.Contains(t, string(content), "Work/Annual")
}

func TestRenameFolderCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Drafts", "Report", PageInput{Name: "Cover", Content: "x"})
	require.NoError(t, env.svc.RenameFolder(ctx, testEmail, "Drafts", "Archive"))

	assert.NoDirExists(t, filepath.Join(env.root, workspace.SanitizeEmail(testEmail),
		workspace.BooksSegment, "Drafts"))
	assert.DirExists(t, env.bookDir("Archive", "Report"))

	fb, err := env.store.GetFlipbook(ctx, res.VID)
	require.NoError(t, err)
	assert.Equal(t, "Archive", fb.Folder())
	assert.True(t, fb.FolderTags.Has(domain.RecentTag), "recency tag must survive a folder rename")

	err = env.svc.RenameFolder(ctx, testEmail, domain.RecentTag, "Whatever")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMoveBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	require.NoError(t, env.svc.MoveBook(ctx, testEmail, "Report", "Work", "Archive"))
	assert.NoDirExists(t, env.bookDir("Work", "Report"))
	assert.DirExists(t, env.bookDir("Archive", "Report"))

	fb, err := env.store.GetFlipbook(ctx, res.VID)
	require.NoError(t, err)
	assert.Equal(t, "Archive", fb.Folder())
	assert.True(t, fb.FolderTags.Has(domain.RecentTag), "recency tag must survive a move")

	err = env.svc.MoveBook(ctx, testEmail, "Report", "Archive", "Archive")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRecencyBound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B09", "B10", "B11"} {
		env.save(t, "Work", name, PageInput{Name: "Cover", Content: "x"})
	}

	recent, err := env.store.ListRecentFlipbooks(ctx, testEmail)
	require.NoError(t, err)
	require.Len(t, recent, 10, "recency set must hold exactly the 10 most recent books")

	names := make([]string, len(recent))
	for i, fb := range recent {
		names[i] = fb.Name
	}
	assert.NotContains(t, names, "B01", "oldest save must be evicted")
	assert.Contains(t, names, "B11")

	// The evicted book itself is untouched.
	_, err = env.svc.Get(ctx, testEmail, "", "Work", "B01")
	require.NoError(t, err)
}

func TestRemoveRecent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})
	require.NoError(t, env.svc.RemoveRecent(ctx, testEmail, "Report"))

	recent, err := env.store.ListRecentFlipbooks(ctx, testEmail)
	require.NoError(t, err)
	assert.Empty(t, recent)

	_, err = env.svc.Get(ctx, testEmail, "", "Work", "Report")
	require.NoError(t, err, "removing from recent must not touch the book")

	err = env.svc.RemoveRecent(ctx, testEmail, "Report")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDuplicateBookIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})
	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:  testEmail,
		Type:     domain.AssetImage,
		VID:      res.VID,
		FileName: "photo.png",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	copyName, err := env.svc.DuplicateBook(ctx, testEmail, "Work", "Report")
	require.NoError(t, err)
	assert.Equal(t, "Report Copy", copyName)
	assert.DirExists(t, env.bookDir("Work", copyName))

	dup, err := env.svc.Get(ctx, testEmail, "", "Work", copyName)
	require.NoError(t, err)
	assert.NotEqual(t, res.VID, dup.Meta.VID, "duplicate must get its own identity")

	dupAssets, err := env.store.ListAssetsByFlipbook(ctx, dup.Meta.VID)
	require.NoError(t, err)
	require.Len(t, dupAssets, 1)
	assert.NotEqual(t, up.FileVID, dupAssets[0].FileVID)

	// Deleting the duplicate must not touch the source's assets or files.
	require.NoError(t, env.svc.DeleteBook(ctx, testEmail, "Work", copyName))
	_, err = env.store.GetAsset(ctx, up.FileVID)
	require.NoError(t, err)
	assert.DirExists(t, env.bookDir("Work", "Report"))
}

func TestDuplicateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	copyName, err := env.svc.DuplicateFolder(ctx, testEmail, "Work")
	require.NoError(t, err)
	assert.Equal(t, "Work Copy", copyName)

	dup, err := env.svc.Get(ctx, testEmail, "", copyName, "Report")
	require.NoError(t, err)
	assert.NotEqual(t, res.VID, dup.Meta.VID)

	_, err = env.svc.DuplicateFolder(ctx, testEmail, domain.RecentTag)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})
	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:  testEmail,
		Type:     domain.AssetImage,
		VID:      res.VID,
		FileName: "photo.png",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteBook(ctx, testEmail, "Work", "Report"))
	assert.NoDirExists(t, env.bookDir("Work", "Report"))

	_, err = env.store.GetFlipbook(ctx, res.VID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = env.store.GetAsset(ctx, up.FileVID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = env.svc.DeleteBook(ctx, testEmail, "Work", "Report")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})
	b := env.save(t, "Work", "Notes", PageInput{Name: "Cover", Content: "x"})

	require.NoError(t, env.svc.DeleteFolder(ctx, testEmail, "Work"))
	assert.NoDirExists(t, filepath.Join(env.root, workspace.SanitizeEmail(testEmail),
		workspace.BooksSegment, "Work"))

	for _, vid := range []string{a.VID, b.VID} {
		_, err := env.store.GetFlipbook(ctx, vid)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}

	err := env.svc.DeleteFolder(ctx, testEmail, domain.RecentTag)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteFolderLogsRecordListFailure(t *testing.T) {
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)

	root := t.TempDir()
	resolver := workspace.NewResolver(root, st)
	mover := workspace.NewMover(workspace.DefaultMovePolicy, nil)

	var logs bytes.Buffer
	svc := NewFlipbookService(st, resolver, mover, 10,
		slog.New(slog.NewTextHandler(&logs, nil)))

	dir := resolver.FolderDir(testEmail, "Work")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// A closed database fails every record read.
	require.NoError(t, st.Close())

	// The physical tree still goes; the stranded records are logged, not
	// silently dropped.
	require.NoError(t, svc.DeleteFolder(context.Background(), testEmail, "Work"))
	assert.NoDirExists(t, dir)
	assert.Contains(t, logs.String(), "failed to list folder flipbooks before delete")
}

func TestAutoHealFromFilesystem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A book dropped onto disk with no database counterpart.
	dir := env.bookDir("Legacy", "Old Book")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, f := range []string{"page10.html", "page1.html", "page2.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("<p>"+f+"</p>"), 0o644))
	}

	got, err := env.svc.Get(ctx, testEmail, "", "Legacy", "Old Book")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Meta.VID)
	require.Len(t, got.Pages, 3)

	// Pages come back in natural order, not lexicographic.
	assert.Equal(t, "page1", got.Pages[0].Name)
	assert.Equal(t, "page2", got.Pages[1].Name)
	assert.Equal(t, "page10", got.Pages[2].Name)

	fb, err := env.store.GetFlipbook(ctx, got.Meta.VID)
	require.NoError(t, err)
	assert.False(t, fb.FolderTags.Has(domain.RecentTag),
		"healed books were never saved and must not enter the recent set")

	// A second fetch reuses the healed record instead of re-healing.
	again, err := env.svc.Get(ctx, testEmail, "", "Legacy", "Old Book")
	require.NoError(t, err)
	assert.Equal(t, got.Meta.VID, again.Meta.VID)
}

func TestGetOwnerMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	_, err := env.svc.Get(ctx, "intruder@example.com", res.VID, "", "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestListMergesRecentView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	books, err := env.svc.List(ctx, testEmail)
	require.NoError(t, err)
	require.Len(t, books, 2, "one physical row plus its recent view")

	folders := []string{books[0].Folder, books[1].Folder}
	assert.Contains(t, folders, "Work")
	assert.Contains(t, folders, domain.RecentTag)
	assert.Equal(t, books[0].VID, books[1].VID)
	assert.Positive(t, books[0].Size)
	assert.Equal(t, 1, books[0].Pages)
}

func TestCreateAndListFolders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.CreateFolder(ctx, testEmail, "Projects"))
	err := env.svc.CreateFolder(ctx, testEmail, "Projects")
	assert.ErrorIs(t, err, apperrors.ErrExists)

	err = env.svc.CreateFolder(ctx, testEmail, domain.RecentTag)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	folders, err := env.svc.ListFolders(ctx, testEmail)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RecentTag, "Projects"}, folders)
}
