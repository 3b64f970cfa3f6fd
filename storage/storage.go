// Package storage holds uploaded image blobs under generated names.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"quill/config"
)

// Uploads is the blob store behind avatar and thumbnail files. Remove is
// best-effort at every call site: failures are logged by the caller and
// never abort the surrounding mutation.
type Uploads interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
	URL(name string) string
}

// UploadName derives a collision-resistant filename from an uploaded file's
// original name: the stem, a random unique token, then the original extension.
func UploadName(original string) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + uuid.NewString() + ext
}

// FromConfig builds the configured backend. Disk is the default; minio is
// selected with STORAGE_BACKEND=minio.
func FromConfig(cfg config.StorageConfig) (Uploads, error) {
	switch cfg.Backend {
	case "", "disk":
		return NewDisk(cfg.UploadDir, cfg.AssetBaseURL)
	case "minio":
		return NewMinio(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
