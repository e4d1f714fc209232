// Package storage implements the on-disk blob store for item file
// attachments.  Blobs live under an owner-scoped directory and are recorded
// on the item as a forward-slash relative path of the form
// uploads/<ownerID>/<uuid><ext>.  The store itself performs no
// authorization; the file endpoint gates every read through the access rule
// before resolving a path here.
package storage

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FileStore stores blobs under a single root directory.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore { return &FileStore{root: root} }

// Put writes the blob under the owner's directory with a collision-resistant
// generated name that keeps the original extension, and returns the relative
// path to record on the item.  The owner directory is created on demand.
func (s *FileStore) Put(ownerID uint64, originalFilename string, src io.Reader) (string, error) {
	owner := strconv.FormatUint(ownerID, 10)
	dir := filepath.Join(s.root, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(path.Ext(originalFilename))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path.Join("uploads", owner, name), nil
}

// Resolve maps a recorded relative path to an absolute path under the
// storage root.  Traversal segments and leading separators are neutralized
// before joining so a hostile path cannot escape the root; the historical
// "uploads/" prefix on recorded paths is stripped because the root already
// points at that directory.
func (s *FileStore) Resolve(rel string) string {
	sanitized := strings.ReplaceAll(rel, "\\", "/")
	sanitized = strings.ReplaceAll(sanitized, "..", "")
	sanitized = strings.TrimLeft(sanitized, "/")
	sanitized = strings.TrimPrefix(sanitized, "uploads/")
	sanitized = path.Clean(sanitized)
	if sanitized == "." || sanitized == "/" {
		sanitized = ""
	}
	return filepath.Join(s.root, filepath.FromSlash(sanitized))
}

// Delete removes a blob best-effort: a path that no longer exists is not an
// error, so record deletion can proceed even when the blob is already gone.
func (s *FileStore) Delete(rel string) error {
	abs := s.Resolve(rel)
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(abs)
}

// contentTypes maps the small fixed set of extensions the vault serves with
// a precise type; everything else streams as application/octet-stream.
var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".txt":  "text/plain",
	".json": "application/json",
}

// ContentTypeFor derives the Content-Type header value from a filename.
func ContentTypeFor(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
