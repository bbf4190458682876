package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost:8000/media/")

	require.NoError(t, store.Upload(ctx, "profile_images/uid-1 a.jpg", strings.NewReader("jpeg"), "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(dir, "profile_images", "uid-1 a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	url, err := store.DownloadURL(ctx, "profile_images/uid-1 a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/media/profile_images/uid-1%20a.jpg", url)

	_, err = store.DownloadURL(ctx, "profile_images/missing.jpg")
	assert.Equal(t, core.ErrBlobNotFound, err)
}

func TestLocalStoreStaysInDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(filepath.Join(dir, "media"), "/media")

	require.NoError(t, store.Upload(ctx, "../../escape.jpg", strings.NewReader("x"), "image/jpeg"))
	_, err := os.Stat(filepath.Join(dir, "media", "escape.jpg"))
	assert.NoError(t, err)

	assert.Error(t, store.Upload(ctx, "/", strings.NewReader("x"), "image/jpeg"))
}

func TestDownloadURL(t *testing.T) {
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/school.appspot.com/o/profile_images%2Fuid-1.jpg?alt=media&token=abc",
		downloadURL("school.appspot.com", "profile_images/uid-1.jpg", "abc"),
	)
}
