package teacher

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound     = errors.New("profile not found")
	ErrMissingPhoto = errors.New("missing photo")
)

type (
	Repository interface {
		// GetProfile returns ErrNotFound when uid has no profile yet.
		GetProfile(ctx context.Context, uid string) (Profile, error)
		// SaveProfile fully replaces the profile of p.UID.
		SaveProfile(ctx context.Context, p Profile) error
	}

	Service struct {
		repo  Repository
		blobs core.BlobStore
	}
)

func NewService(repo Repository, blobs core.BlobStore) *Service {
	return &Service{repo: repo, blobs: blobs}
}

// Get returns the profile of uid; a teacher without a stored profile gets an empty one.
func (svc *Service) Get(ctx context.Context, uid string) (Profile, error) {
	p, err := svc.repo.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{UID: uid}, nil
		}
		return Profile{}, err
	}
	return p, nil
}

func (svc *Service) Save(ctx context.Context, uid string, up UpdateProfile) (Profile, error) {
	p := up.profile(uid)
	if err := svc.repo.SaveProfile(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// UploadPhoto stores a profile photo of uid and returns its download URL.
func (svc *Service) UploadPhoto(ctx context.Context, uid string, r io.Reader, contentType string) (string, error) {
	if r == nil {
		return "", core.NewValidationError(
			ErrMissingPhoto,
			core.FieldError{Field: "photo", Error: "this field is required"},
		)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	path := fmt.Sprintf("profile_images/%s-%s.jpg", uid, uuid.NewString())
	if err := svc.blobs.Upload(ctx, path, r, contentType); err != nil {
		return "", core.NewRemoteError("failed to upload image", err)
	}
	url, err := svc.blobs.DownloadURL(ctx, path)
	if err != nil {
		return "", core.NewRemoteError("failed to get image URL", err)
	}
	return url, nil
}

// UpdatePhoto uploads a profile photo of uid and stores its URL in the profile.
func (svc *Service) UpdatePhoto(ctx context.Context, uid string, r io.Reader, contentType string) (Profile, error) {
	url, err := svc.UploadPhoto(ctx, uid, r, contentType)
	if err != nil {
		return Profile{}, err
	}
	p, err := svc.Get(ctx, uid)
	if err != nil {
		return Profile{}, pkgerrors.Wrap(err, "getting profile")
	}
	p.ProfilePhotoURL = url
	if err := svc.repo.SaveProfile(ctx, p); err != nil {
		return Profile{}, pkgerrors.Wrap(err, "saving profile")
	}
	return p, nil
}
