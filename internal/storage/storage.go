// Package storage keeps listing images on local disk or in S3-compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImagePrefix is the key prefix of listing images.
const ImagePrefix = "properties"

// ImageStore saves and removes image files addressed by key.
type ImageStore interface {
	// Save stores r under a fresh key derived from filename and returns it.
	// size is -1 when unknown.
	Save(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (string, error)
	// Delete removes the file. A missing file is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key.
	URL(key string) string
}

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// imageTypes maps accepted image content types to the extension files of
// that type are stored with.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// imageExts lists the extensions a stored key may carry.
var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// SniffImage detects the type of the image in r from its content. It
// returns the content type, the extension to store it with and a reader
// replaying the whole stream. contentType is empty when the content is not
// an accepted image.
func SniffImage(r io.Reader) (contentType, ext string, body io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", "", nil, err
	}
	head = head[:n]
	body = io.MultiReader(bytes.NewReader(head), r)

	detected := http.DetectContentType(head)
	ext, ok := imageTypes[detected]
	if !ok {
		return "", "", body, nil
	}
	return detected, ext, body, nil
}

// newKey returns "<prefix>/images-<uuid><ext>". The extension is kept only
// when it is one of the accepted image extensions.
func newKey(prefix, filename string) string {
	return path.Join(prefix, "images-"+uuid.NewString()+cleanExt(filename))
}

func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		return ""
	}
	return ext
}
