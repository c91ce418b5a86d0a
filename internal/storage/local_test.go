package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("CreatesBaseDirectory", func(t *testing.T) {
		tempDir := t.TempDir()
		basePath := filepath.Join(tempDir, "storage")

		store, err := NewLocalStorage(basePath)
		require.NoError(t, err)
		require.NotNil(t, store)

		info, err := os.Stat(basePath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("EmptyPathDefaults", func(t *testing.T) {
		origDir, err := os.Getwd()
		require.NoError(t, err)
		defer os.Chdir(origDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		store, err := NewLocalStorage("")
		require.NoError(t, err)
		assert.Equal(t, "./storage", store.GetBasePath())
	})
}

func TestLocalStorage_UploadDownload(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("UploadFromReader", func(t *testing.T) {
		content := []byte(`{"stores":[]}`)
		require.NoError(t, store.Upload(ctx, "dumps/job-1.json", bytes.NewReader(content)))

		rc, err := store.Download(ctx, "dumps/job-1.json")
		require.NoError(t, err)
		defer rc.Close()

		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("Download_NotFound", func(t *testing.T) {
		_, err := store.Download(ctx, "dumps/missing.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file not found")
	})

	t.Run("UploadFile", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "table.json")
		require.NoError(t, os.WriteFile(src, []byte(`{"0x7f010000":"0x7f010010"}`), 0644))

		require.NoError(t, store.UploadFile(ctx, "tables/job-1.json", src))

		ok, err := store.Exists(ctx, "tables/job-1.json")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("DownloadFile", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "nested", "copy.json")
		require.NoError(t, store.DownloadFile(ctx, "tables/job-1.json", dest))

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Contains(t, string(data), "0x7f010010")
	})
}

func TestLocalStorage_DeleteAndExists(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "outputs/job-1.json", bytes.NewReader([]byte("x"))))

	ok, err := store.Exists(ctx, "outputs/job-1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "outputs/job-1.json"))

	ok, err = store.Exists(ctx, "outputs/job-1.json")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing object is not an error.
	assert.NoError(t, store.Delete(ctx, "outputs/job-1.json"))
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Upload(ctx, "k", bytes.NewReader(nil)))
	_, err = store.Download(ctx, "k")
	assert.Error(t, err)
}

func TestLocalStorage_GetURL(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "dumps/job-1.json"), store.GetURL("dumps/job-1.json"))
}

func TestArtifactKeys(t *testing.T) {
	assert.Equal(t, "outputs/job-1.json.zst", OutputKeyFor("dumps/job-1.json.zst"))
	assert.Equal(t, "outputs/custom/job-2.json", OutputKeyFor("custom/job-2.json"))
	assert.Equal(t, "reports/job-1.json", ReportKeyFor("job-1"))
	assert.Equal(t, "job-1.json.gz", BaseName("dumps/job-1.json.gz"))
}
