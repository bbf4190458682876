package docrepos

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/teacher"
)

type profileRepository struct {
	store core.DocumentStore
}

var _ teacher.Repository = (*profileRepository)(nil)

func NewProfileRepository(store core.DocumentStore) *profileRepository {
	return &profileRepository{store: store}
}

func nullable(s null.String) interface{} {
	if !s.Valid {
		return nil
	}
	return s.String
}

func (repo *profileRepository) GetProfile(ctx context.Context, uid string) (teacher.Profile, error) {
	doc, err := repo.store.GetDocument(ctx, core.JoinPath(teachersCollection, uid))
	if err != nil {
		if isNotFound(err) {
			return teacher.Profile{}, teacher.ErrNotFound
		}
		return teacher.Profile{}, core.NewRemoteError("getting profile", err)
	}
	f := doc.Fields
	return teacher.Profile{
		UID:             uid,
		FullName:        f.String("fullName"),
		Email:           f.String("email"),
		PhoneNumber:     f.String("phoneNumber"),
		ProfilePhotoURL: f.String("profilePhotoUrl"),
		ICNumber:        f.Text("icNumber"),
		DateOfBirth:     f.Text("dateOfBirth"),
		Gender:          f.Text("gender"),
		Address:         f.Text("address"),
	}, nil
}

func (repo *profileRepository) SaveProfile(ctx context.Context, p teacher.Profile) error {
	err := repo.store.SetDocument(ctx, core.JoinPath(teachersCollection, p.UID), core.Fields{
		"fullName":        p.FullName,
		"email":           p.Email,
		"phoneNumber":     p.PhoneNumber,
		"profilePhotoUrl": p.ProfilePhotoURL,
		"icNumber":        nullable(p.ICNumber),
		"dateOfBirth":     nullable(p.DateOfBirth),
		"gender":          nullable(p.Gender),
		"address":         nullable(p.Address),
	})
	return core.NewRemoteError("saving profile", err)
}
