package upload

import (
	"context"
	"fmt"
	"io"

	"mynotes/config"
)

// Storage persists an uploaded file under name and returns the URL it is
// served from. size is the number of bytes that will be read from r.
type Storage interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// NewStorage creates the Storage selected by the upload config.
func NewStorage(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "disk":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("disk upload backend requires upload.dir to be set")
		}
		return NewDiskStorage(cfg.Dir, cfg.URLPrefix)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown upload backend: %s", cfg.Backend)
	}
}
