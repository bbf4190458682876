package core

import (
	"context"
	"errors"
	"io"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores binary objects (profile photos) and hands out URLs to download them.
type BlobStore interface {
	Upload(ctx context.Context, path string, r io.Reader, contentType string) error
	DownloadURL(ctx context.Context, path string) (string, error)
}
