package store

import (
	"context"
	"testing"
	"time"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testFlipbook(vid, email, folder, name string) *domain.Flipbook {
	now := time.Now()
	return &domain.Flipbook{
		VID:         vid,
		UserEmail:   email,
		FolderTags:  domain.NewFolderTags(folder),
		Name:        name,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func TestFlipbookCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fb := testFlipbook("fb-1", "user@example.com", "Work", "Report")
	require.NoError(t, s.Flipbooks.Create(ctx, fb.VID, fb))

	got, err := s.GetFlipbook(ctx, "fb-1")
	require.NoError(t, err)
	assert.Equal(t, "Report", got.Name)
	assert.Equal(t, domain.FolderTags{"Work", domain.RecentTag}, got.FolderTags)

	// Create with the same id conflicts.
	err = s.Flipbooks.Create(ctx, fb.VID, fb)
	assert.ErrorIs(t, err, ErrExists)

	// Update changes the record in place.
	got.Name = "Annual Report"
	require.NoError(t, s.Flipbooks.Update(ctx, got.VID, got))
	got, err = s.GetFlipbook(ctx, "fb-1")
	require.NoError(t, err)
	assert.Equal(t, "Annual Report", got.Name)

	// Delete is idempotent.
	require.NoError(t, s.Flipbooks.Delete(ctx, "fb-1"))
	require.NoError(t, s.Flipbooks.Delete(ctx, "fb-1"))
	_, err = s.GetFlipbook(ctx, "fb-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFlipbooksByUserIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Flipbooks.Create(ctx, "fb-1", testFlipbook("fb-1", "User@Example.com", "Work", "A")))
	require.NoError(t, s.Flipbooks.Create(ctx, "fb-2", testFlipbook("fb-2", "user@example.com", "Work", "B")))
	require.NoError(t, s.Flipbooks.Create(ctx, "fb-3", testFlipbook("fb-3", "other@example.com", "Work", "C")))

	books, err := s.ListFlipbooksByUser(ctx, "USER@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestFindFlipbook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Flipbooks.Create(ctx, "fb-1", testFlipbook("fb-1", "u@e.com", "Work", "Report")))

	got, err := s.FindFlipbook(ctx, "u@e.com", "Work", "Report")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", got.VID)

	// Recent tag matches regardless of physical folder.
	got, err = s.FindFlipbook(ctx, "u@e.com", domain.RecentTag, "Report")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", got.VID)

	// Empty folder matches any folder.
	got, err = s.FindFlipbook(ctx, "u@e.com", "", "Report")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", got.VID)

	_, err = s.FindFlipbook(ctx, "u@e.com", "Personal", "Report")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReindexesUserBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fb := testFlipbook("fb-1", "u@e.com", "Work", "Report")
	require.NoError(t, s.Flipbooks.Create(ctx, fb.VID, fb))

	fb.FolderTags = fb.FolderTags.ReplaceTag("Work", "Archive")
	require.NoError(t, s.Flipbooks.Update(ctx, fb.VID, fb))

	inWork, err := s.ListFlipbooksInFolder(ctx, "u@e.com", "Work")
	require.NoError(t, err)
	assert.Empty(t, inWork)

	inArchive, err := s.ListFlipbooksInFolder(ctx, "u@e.com", "Archive")
	require.NoError(t, err)
	assert.Len(t, inArchive, 1)
}

func TestListRecentFlipbooksOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, vid := range []string{"fb-a", "fb-b", "fb-c"} {
		fb := testFlipbook(vid, "u@e.com", "Work", vid)
		fb.LastUpdated = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Flipbooks.Create(ctx, vid, fb))
	}

	recent, err := s.ListRecentFlipbooks(ctx, "u@e.com")
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "fb-c", recent[0].VID)
	assert.Equal(t, "fb-a", recent[2].VID)
}

func TestAssetQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(fileVID, bookVID, pageVID string, typ domain.AssetType) *domain.Asset {
		return &domain.Asset{
			FileVID:     fileVID,
			FlipbookVID: bookVID,
			PageVID:     pageVID,
			Type:        typ,
			UserEmail:   "u@e.com",
			UploadedAt:  time.Now(),
		}
	}

	require.NoError(t, s.Assets.Create(ctx, "ast-1", mk("ast-1", "fb-1", "pg-1", domain.AssetImage)))
	require.NoError(t, s.Assets.Create(ctx, "ast-2", mk("ast-2", "fb-1", "pg-2", domain.AssetVideo)))
	require.NoError(t, s.Assets.Create(ctx, "ast-3", mk("ast-3", "", domain.GlobalPageVID, domain.AssetImage)))

	byBook, err := s.ListAssetsByFlipbook(ctx, "fb-1")
	require.NoError(t, err)
	assert.Len(t, byBook, 2)

	byPage, err := s.ListAssetsByPage(ctx, "fb-1", "pg-2")
	require.NoError(t, err)
	require.Len(t, byPage, 1)
	assert.Equal(t, "ast-2", byPage[0].FileVID)

	gallery, err := s.ListGalleryAssets(ctx, "u@e.com", domain.AssetImage)
	require.NoError(t, err)
	require.Len(t, gallery, 1)
	assert.Equal(t, "ast-3", gallery[0].FileVID)

	deleted, err := s.DeleteAssetsByFlipbook(ctx, "fb-1")
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	byBook, err = s.ListAssetsByFlipbook(ctx, "fb-1")
	require.NoError(t, err)
	assert.Empty(t, byBook)

	// Gallery assets survive flipbook cascades.
	gallery, err = s.ListGalleryAssets(ctx, "u@e.com", "")
	require.NoError(t, err)
	assert.Len(t, gallery, 1)
}

func TestEntityList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, vid := range []string{"fb-1", "fb-2", "fb-3"} {
		require.NoError(t, s.Flipbooks.Create(ctx, vid, testFlipbook(vid, "u@e.com", "Work", vid)))
	}

	var count int
	for fb, err := range s.Flipbooks.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, fb)
		count++
	}
	assert.Equal(t, 3, count)
}
