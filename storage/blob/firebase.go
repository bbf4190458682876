package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

// downloadTokenKey is the object metadata key Firebase Storage reads download tokens from.
const downloadTokenKey = "firebaseStorageDownloadTokens"

// FirebaseStore keeps blobs in a Firebase Storage bucket and hands out tokenized download URLs.
type FirebaseStore struct {
	bucket *storage.BucketHandle
	name   string
}

var _ core.BlobStore = (*FirebaseStore)(nil)

func NewFirebaseStore(bucket *storage.BucketHandle, name string) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, name: name}
}

func (s *FirebaseStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) error {
	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokenKey: uuid.NewString()}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing object writer")
	}
	return nil
}

func (s *FirebaseStore) DownloadURL(ctx context.Context, path string) (string, error) {
	attrs, err := s.bucket.Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", core.ErrBlobNotFound
		}
		return "", errors.Wrap(err, "reading object attributes")
	}

	token := attrs.Metadata[downloadTokenKey]
	if token == "" {
		// objects uploaded by other tools have no download token yet
		token = uuid.NewString()
		_, err = s.bucket.Object(path).Update(ctx, storage.ObjectAttrsToUpdate{
			Metadata: map[string]string{downloadTokenKey: token},
		})
		if err != nil {
			return "", errors.Wrap(err, "setting download token")
		}
	}
	return downloadURL(s.name, path, token), nil
}

func downloadURL(bucket, path, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(path), url.QueryEscape(token),
	)
}
