package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// textureExts maps the texture MIME types the processor emits to the file
// extension they are stored under.
var textureExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadStore keeps encoded textures on disk keyed by asset ID, so bounds
// inference can reuse them later without re-decoding the upload.
type UploadStore struct {
	dir string
}

// NewUploadStore creates the backing directory if needed.
func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Save writes one encoded texture under an extension derived from its MIME
// type.
func (s *UploadStore) Save(id, mime string, data []byte) error {
	if !validID(id) {
		return fmt.Errorf("invalid asset id %q", id)
	}
	ext, ok := textureExts[mime]
	if !ok {
		return fmt.Errorf("unstorable texture type %q", mime)
	}
	return os.WriteFile(filepath.Join(s.dir, id+ext), data, 0o644)
}

// Load finds the texture with the given ID and reports its MIME type.
func (s *UploadStore) Load(id string) (data []byte, mime string, err error) {
	if !validID(id) {
		return nil, "", fmt.Errorf("invalid asset id %q", id)
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, id+".*"))
	if err != nil || len(matches) == 0 {
		return nil, "", os.ErrNotExist
	}
	data, err = os.ReadFile(matches[0])
	if err != nil {
		return nil, "", err
	}
	ext := filepath.Ext(matches[0])
	for m, e := range textureExts {
		if e == ext {
			return data, m, nil
		}
	}
	return nil, "", fmt.Errorf("unrecognized stored texture %q", matches[0])
}

// validID guards against path traversal in client-supplied IDs.
func validID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
		if !ok {
			return false
		}
	}
	return !strings.Contains(id, "..")
}
