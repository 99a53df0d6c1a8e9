package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"classifieds/apperr"
)

// LocalStore writes images to a directory that the router serves
// statically. Used when no Cloudinary URL is configured.
type LocalStore struct {
	dir    string
	prefix string
}

func NewLocalStore(dir, prefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload directory: %w", err)
	}
	return &LocalStore{dir: dir, prefix: prefix}, nil
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, filename string) (string, error) {
	name := uuid.NewString() + safeExt(filename)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: image upload failed", apperr.ErrUpstream)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: image upload failed", apperr.ErrUpstream)
	}

	return path.Join(s.prefix, name), nil
}

// safeExt keeps a short alphanumeric extension and drops anything else the
// client sent in the filename.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
