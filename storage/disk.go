package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores uploads as files in a single directory.
type Disk struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (d *Disk) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	f, err := os.Create(filepath.Join(d.dir, filepath.Base(name)))
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	return f.Close()
}

func (d *Disk) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.dir, filepath.Base(name)))
}

func (d *Disk) Remove(ctx context.Context, name string) error {
	return os.Remove(filepath.Join(d.dir, filepath.Base(name)))
}

func (d *Disk) URL(name string) string {
	return d.baseURL + "/uploads/" + filepath.Base(name)
}
