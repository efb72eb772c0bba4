package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayan-1005/skyhook/internal/domain"
)

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	tmpDir := t.TempDir()
	rv, err := NewResolver(tmpDir)
	require.NoError(t, err)
	return rv, rv.Root()
}

func TestNewResolver(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		rv, err := NewResolver(tmpDir)
		require.NoError(t, err)

		// Root() канонический: t.TempDir может сам жить за симлинком
		expected, err := filepath.EvalSymlinks(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, expected, rv.Root())
	})

	t.Run("nonexistent root", func(t *testing.T) {
		_, err := NewResolver(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		tmpDir := t.TempDir()
		file := filepath.Join(tmpDir, "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		_, err := NewResolver(file)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotADirectory))
	})
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		wantRoot  bool
		wantErr   error
	}{
		{"empty path is root", "", true, nil},
		{"dot is root", ".", true, nil},
		{"slash is root", "/", true, nil},
		{"simple relative path", "docs/readme.txt", false, nil},
		{"nonexistent path is not an error", "no/such/file.bin", false, nil},
		{"leading slash is stripped", "/docs/readme.txt", false, nil},
		{"backslash separators", "docs\\readme.txt", false, nil},
		{"parent traversal", "../../etc/passwd", false, domain.ErrPathTraversal},
		{"sneaky traversal", "docs/../../../etc/passwd", false, domain.ErrPathTraversal},
		{"NUL byte", "docs/\x00evil", false, domain.ErrPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rv, root := newTestResolver(t)
			require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

			resolved, err := rv.Resolve(tt.requested)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				assert.Empty(t, resolved)
				return
			}

			require.NoError(t, err)
			if tt.wantRoot {
				assert.Equal(t, root, resolved)
			} else {
				assert.True(t, strings.HasPrefix(resolved, root+string(filepath.Separator)),
					"resolved %q must stay under root %q", resolved, root)
			}
		})
	}
}

func TestResolver_Resolve_PrefixConfusion(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "files")
	evil := filepath.Join(parent, "files-evil")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(evil, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(evil, "secret"), []byte("x"), 0o644))

	rv, err := NewResolver(root)
	require.NoError(t, err)

	_, err = rv.Resolve("../files-evil/secret")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPathTraversal))
}

func TestResolver_Resolve_SymlinkEscape(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "share")
	outside := filepath.Join(parent, "outside")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("top secret"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	rv, err := NewResolver(root)
	require.NoError(t, err)

	t.Run("symlink itself", func(t *testing.T) {
		_, err := rv.Resolve("link")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPathTraversal))
	})

	t.Run("file behind symlink", func(t *testing.T) {
		_, err := rv.Resolve("link/secret.txt")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPathTraversal))
	})

	t.Run("nonexistent file behind symlink", func(t *testing.T) {
		_, err := rv.Resolve("link/missing.txt")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPathTraversal))
	})
}

func TestResolver_Resolve_Idempotent(t *testing.T) {
	rv, root := newTestResolver(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("hi"), 0o644))

	first, err := rv.Resolve("docs/a.txt")
	require.NoError(t, err)

	rel, err := filepath.Rel(root, first)
	require.NoError(t, err)

	second, err := rv.Resolve(filepath.ToSlash(rel))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
