package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/realtyhub/realtyhub/internal/models"
)

// DiskStore keeps files under a root directory and serves them under a URL
// prefix such as "/uploads".
type DiskStore struct {
	root      string
	urlPrefix string
}

// NewDiskStore creates root and the image directory if missing.
func NewDiskStore(root, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, ImagePrefix), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create upload dir: %v", models.ErrStorage, err)
	}
	return &DiskStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Save writes r to a new file.
func (s *DiskStore) Save(_ context.Context, prefix, filename, _ string, r io.Reader, _ int64) (string, error) {
	key := newKey(prefix, filename)
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: create file: %v", models.ErrStorage, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("%w: write file: %v", models.ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("%w: close file: %v", models.ErrStorage, err)
	}
	return key, nil
}

// Delete removes the file behind key.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove file: %v", models.ErrStorage, err)
	}
	return nil
}

// URL returns the path the file is served at.
func (s *DiskStore) URL(key string) string {
	return s.urlPrefix + "/" + key
}

// Handler serves stored images; mount it at the URL prefix. Directories
// and files without an image extension are not found.
func (s *DiskStore) Handler() http.Handler {
	files := http.StripPrefix(s.urlPrefix+"/", http.FileServer(imagesOnly{http.Dir(s.root)}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cleanExt(r.URL.Path) == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

// imagesOnly refuses to open directories, so nothing is listed.
type imagesOnly struct {
	http.FileSystem
}

func (fsys imagesOnly) Open(name string) (http.File, error) {
	f, err := fsys.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// path resolves key inside root and rejects keys that escape it.
func (s *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: invalid key %q", models.ErrStorage, key)
	}
	return filepath.Join(s.root, clean), nil
}
