package usecases

import (
	"archive/zip"
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayan-1005/skyhook/internal/adapters/localstorage"
	"github.com/rayan-1005/skyhook/internal/config"
	"github.com/rayan-1005/skyhook/internal/domain"
	"github.com/rayan-1005/skyhook/internal/security"
)

// newTestService собирает сервис на настоящей ФС во временной директории.
func newTestService(t *testing.T) (*FileService, string) {
	t.Helper()
	tmpDir := t.TempDir()
	resolver, err := security.NewResolver(tmpDir)
	require.NoError(t, err)
	cfg := config.Default()
	svc := NewFileService(localstorage.NewLocalStorage(0o755), resolver, cfg)
	return svc, resolver.Root()
}

func TestFileService_List(t *testing.T) {
	t.Run("directories first, case-insensitive names", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "zeta"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "Beta"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "b.TXT"), []byte("bb"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "Apple.txt"), []byte("aa"), 0o644))

		files, err := svc.List("")
		require.NoError(t, err)
		require.Len(t, files, 4)

		names := []string{files[0].Name, files[1].Name, files[2].Name, files[3].Name}
		assert.Equal(t, []string{"Beta", "zeta", "Apple.txt", "b.TXT"}, names)
		assert.True(t, files[0].IsDir)
		assert.True(t, files[1].IsDir)
		assert.False(t, files[2].IsDir)
	})

	t.Run("entry metadata", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("hello world!"), 0o644))

		files, err := svc.List("docs")
		require.NoError(t, err)
		require.Len(t, files, 1)

		assert.Equal(t, "a.txt", files[0].Name)
		assert.Equal(t, int64(12), files[0].Size)
		assert.Equal(t, "docs/a.txt", files[0].RelPath)
		assert.False(t, files[0].ModTime.IsZero())
	})

	t.Run("traversal rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.List("../../etc")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPathTraversal))
	})

	t.Run("nonexistent directory", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.List("missing")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrFileNotFound))
	})

	t.Run("listing a file", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

		_, err := svc.List("a.txt")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotADirectory))
	})
}

func TestFileService_ServeFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world!"), 0o644))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/download?path=a.txt", nil)
		err := svc.ServeFile(rec, req, "a.txt")

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, rec.Body.Bytes(), 12)
		assert.NotEmpty(t, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="a.txt"`)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := svc.ServeFile(rec, req, "../outside")

		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPathTraversal))
	})

	t.Run("not found", func(t *testing.T) {
		svc, _ := newTestService(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := svc.ServeFile(rec, req, "missing.txt")

		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrFileNotFound))
	})

	t.Run("directory is not a file", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := svc.ServeFile(rec, req, "docs")

		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotAFile))
	})
}

func TestFileService_ServeFolderAsZip(t *testing.T) {
	t.Run("archives visible files only", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "sub"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("aa"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "sub", "b.txt"), []byte("bb"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "docs", ".hidden"), []byte("no"), 0o644))

		rec := httptest.NewRecorder()
		err := svc.ServeFolderAsZip(rec, "docs")
		require.NoError(t, err)

		assert.Equal(t, domain.MIMEZip, rec.Header().Get("Content-Type"))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)

		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, names)
	})

	t.Run("file is not a folder", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

		rec := httptest.NewRecorder()
		err := svc.ServeFolderAsZip(rec, "a.txt")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotADirectory))
	})
}

func TestFileService_CreateFolder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, root := newTestService(t)

		require.NoError(t, svc.CreateFolder("newfolder"))

		info, err := os.Stat(filepath.Join(root, "newfolder"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("hidden name rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		err := svc.CreateFolder(".secrets")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidName))
	})

	t.Run("traversal rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		err := svc.CreateFolder("../escape")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPathTraversal))
	})
}

func TestFileService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "doomed.txt"), []byte("x"), 0o644))

		require.NoError(t, svc.Delete("doomed.txt"))

		_, err := os.Stat(filepath.Join(root, "doomed.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("serve root refused", func(t *testing.T) {
		svc, _ := newTestService(t)

		err := svc.Delete("")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidName))
	})
}

func TestFileService_Rename(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "old.txt"), []byte("data"), 0o644))

		require.NoError(t, svc.Rename("old.txt", "new.txt"))

		data, err := os.ReadFile(filepath.Join(root, "new.txt"))
		require.NoError(t, err)
		assert.Equal(t, "data", string(data))
	})

	t.Run("traversal in target rejected", func(t *testing.T) {
		svc, root := newTestService(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "old.txt"), []byte("data"), 0o644))

		err := svc.Rename("old.txt", "../stolen.txt")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPathTraversal))
	})
}
