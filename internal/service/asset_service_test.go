package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipbookapp/flipbook-server/internal/domain"
	apperrors "github.com/flipbookapp/flipbook-server/internal/errors"
)

func TestUploadGalleryAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:   testEmail,
		Type:      domain.AssetImage,
		IsGallery: true,
		FileName:  "holiday.png",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.URL, "/uploads/"))
	assert.Contains(t, up.URL, "/Images/")
	assert.Equal(t, ".png", filepath.Ext(up.Filename))
	assert.FileExists(t, env.svc.resolver.PhysicalFromURL(up.URL))

	a, err := env.store.GetAsset(ctx, up.FileVID)
	require.NoError(t, err)
	assert.True(t, a.IsGallery())
	assert.Equal(t, domain.GlobalPageVID, a.PageVID)
	assert.EqualValues(t, len("png-bytes"), a.Size)
}

func TestUploadFlipbookAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:      testEmail,
		Type:         domain.AssetVideo,
		FolderName:   "Work",
		FlipbookName: "Report",
		FileName:     "clip.mp4",
	}, strings.NewReader("mp4-bytes"))
	require.NoError(t, err)

	assert.Contains(t, up.URL, "/Work/Report/assets/video/")
	assert.FileExists(t, env.svc.resolver.PhysicalFromURL(up.URL))

	a, err := env.store.GetAsset(ctx, up.FileVID)
	require.NoError(t, err)
	assert.False(t, a.IsGallery())
	assert.Equal(t, "Report", a.FlipbookName)
	assert.Equal(t, "Work", a.FolderName)
	assert.Equal(t, domain.GlobalPageVID, a.PageVID, "uploads without a page scope are global")
}

func TestUploadRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.assets.UploadAsset(context.Background(), UploadRequest{
		EmailID:   testEmail,
		Type:      "audio",
		IsGallery: true,
		FileName:  "song.mp3",
	}, strings.NewReader("mp3-bytes"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUploadReplacesSupersededAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	old, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:  testEmail,
		Type:     domain.AssetImage,
		VID:      res.VID,
		FileName: "v1.png",
	}, strings.NewReader("old-bytes"))
	require.NoError(t, err)
	oldPath := env.svc.resolver.PhysicalFromURL(old.URL)

	fresh, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:          testEmail,
		Type:             domain.AssetImage,
		VID:              res.VID,
		ReplacingFileVID: old.FileVID,
		FileName:         "v2.png",
	}, strings.NewReader("new-bytes"))
	require.NoError(t, err)

	_, err = env.store.GetAsset(ctx, old.FileVID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, env.svc.resolver.PhysicalFromURL(fresh.URL))
}

func TestDeleteAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:   testEmail,
		Type:      domain.AssetImage,
		IsGallery: true,
		FileName:  "holiday.png",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	path := env.svc.resolver.PhysicalFromURL(up.URL)

	err = env.assets.DeleteAsset(ctx, "intruder@example.com", up.FileVID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.FileExists(t, path)

	require.NoError(t, env.assets.DeleteAsset(ctx, testEmail, up.FileVID))
	assert.NoFileExists(t, path)
	_, err = env.store.GetAsset(ctx, up.FileVID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = env.assets.DeleteAsset(ctx, testEmail, up.FileVID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListGalleryAssets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, f := range []struct {
		typ  domain.AssetType
		name string
	}{
		{domain.AssetImage, "a.png"},
		{domain.AssetImage, "b.jpg"},
		{domain.AssetGif, "c.gif"},
	} {
		_, err := env.assets.UploadAsset(ctx, UploadRequest{
			EmailID:   testEmail,
			Type:      f.typ,
			IsGallery: true,
			FileName:  f.name,
		}, strings.NewReader("bytes"))
		require.NoError(t, err)
	}

	all, err := env.assets.ListGalleryAssets(ctx, testEmail, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	images, err := env.assets.ListGalleryAssets(ctx, testEmail, domain.AssetImage)
	require.NoError(t, err)
	assert.Len(t, images, 2)
	for _, a := range images {
		assert.Equal(t, domain.AssetImage, a.Type)
		assert.Positive(t, a.Size)
	}

	_, err = env.assets.ListGalleryAssets(ctx, testEmail, "audio")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGalleryAssetsSurviveBookCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})
	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:   testEmail,
		Type:      domain.AssetImage,
		IsGallery: true,
		FileName:  "holiday.png",
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteBook(ctx, testEmail, "Work", "Report"))

	a, err := env.store.GetAsset(ctx, up.FileVID)
	require.NoError(t, err, "gallery assets belong to the user, not to any book")
	assert.FileExists(t, env.svc.resolver.PhysicalFromURL(a.URL))

	// An uploaded gallery file never moves, so its record needs no cascade.
	env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})
	require.NoError(t, env.svc.RenameBook(ctx, testEmail, "Work", "Report", "Annual"))
	a, err = env.store.GetAsset(ctx, up.FileVID)
	require.NoError(t, err)
	assert.Contains(t, a.URL, "/Images/")
}

func TestUploadRequiresOwnerForVIDScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.save(t, "Work", "Report", PageInput{Name: "Cover", Content: "x"})

	_, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:  "intruder@example.com",
		Type:     domain.AssetImage,
		VID:      res.VID,
		FileName: "photo.png",
	}, strings.NewReader("png-bytes"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:  testEmail,
		Type:     domain.AssetImage,
		FileName: "photo.png",
	}, strings.NewReader("png-bytes"))
	assert.ErrorIs(t, err, apperrors.ErrValidation, "a flipbook asset needs v_id or flipbookName")
}

func TestUploadStreamsContentVerbatim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	up, err := env.assets.UploadAsset(ctx, UploadRequest{
		EmailID:   testEmail,
		Type:      domain.AssetGif,
		IsGallery: true,
		FileName:  "loop.gif",
	}, strings.NewReader("gif-bytes"))
	require.NoError(t, err)

	content, err := os.ReadFile(env.svc.resolver.PhysicalFromURL(up.URL))
	require.NoError(t, err)
	assert.Equal(t, "gif-bytes", string(content))
}
