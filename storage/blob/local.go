// Package blobstore stores profile photos on the local disk or in Firebase Storage.
package blobstore

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

// LocalStore keeps blobs under a directory served at baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ core.BlobStore = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) filePath(path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	if clean == string(filepath.Separator) {
		return "", errors.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *LocalStore) Upload(ctx context.Context, path string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fp, err := s.filePath(path)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return errors.Wrap(err, "creating blob directory")
	}
	f, err := os.Create(fp)
	if err != nil {
		return errors.Wrap(err, "creating blob")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return errors.Wrap(err, "writing blob")
	}
	return f.Close()
}

func (s *LocalStore) DownloadURL(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fp, err := s.filePath(path)
	if err != nil {
		return "", err
	}
	if _, err = os.Stat(fp); err != nil {
		if os.IsNotExist(err) {
			return "", core.ErrBlobNotFound
		}
		return "", errors.Wrap(err, "checking blob")
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/"), nil
}
