package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndResolve(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)

	rel, err := s.Put(42, "will.pdf", strings.NewReader("last wishes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "uploads/42/"), "path must be owner-scoped: %s", rel)
	assert.True(t, strings.HasSuffix(rel, ".pdf"), "original extension must survive: %s", rel)
	assert.NotContains(t, rel, "\\")
	assert.NotContains(t, rel, "will", "stored name must not reuse the original filename")

	data, err := os.ReadFile(s.Resolve(rel))
	require.NoError(t, err)
	assert.Equal(t, "last wishes", string(data))
}

func TestPutGeneratesUniqueNames(t *testing.T) {
	s := NewFileStore(t.TempDir())

	a, err := s.Put(1, "same.txt", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := s.Put(1, "same.txt", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestResolveNeutralizesTraversal(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)

	for _, rel := range []string{
		"../../etc/passwd",
		"..\\..\\etc\\passwd",
		"/etc/passwd",
		"uploads/../../../etc/passwd",
		"uploads/1/../../secret",
	} {
		abs := s.Resolve(rel)
		resolved, err := filepath.Abs(abs)
		require.NoError(t, err)
		rootAbs, err := filepath.Abs(root)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resolved, rootAbs),
			"%q escaped the storage root: %s", rel, resolved)
	}
}

func TestDeleteIsBestEffort(t *testing.T) {
	s := NewFileStore(t.TempDir())

	rel, err := s.Put(7, "note.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(rel))
	_, err = os.Stat(s.Resolve(rel))
	assert.True(t, os.IsNotExist(err))

	// Second delete of the same path is a no-op, not an error.
	assert.NoError(t, s.Delete(rel))
	assert.NoError(t, s.Delete("uploads/7/never-existed.bin"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeFor("will.pdf"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("photo.JPG"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("photo.jpeg"))
	assert.Equal(t, "image/png", ContentTypeFor("scan.png"))
	assert.Equal(t, "image/gif", ContentTypeFor("anim.gif"))
	assert.Equal(t, "text/plain", ContentTypeFor("letter.txt"))
	assert.Equal(t, "application/json", ContentTypeFor("export.json"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("archive.zip"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("noext"))
}
