package docrepos

import (
	"context"
	"time"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

type userRepository struct {
	store core.DocumentStore
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(store core.DocumentStore) *userRepository {
	return &userRepository{store: store}
}

func timeField(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func userFields(usr user.User) core.Fields {
	return core.Fields{
		"name":         usr.Name,
		"email":        usr.Email,
		"isActive":     usr.IsActive,
		"passwordHash": string(usr.PasswordHash),
		"createdAt":    timeField(usr.CreatedAt),
		"updatedAt":    timeField(usr.UpdatedAt),
		"lastLogin":    timeField(usr.LastLogin),
	}
}

func toUser(doc core.Document) user.User {
	f := doc.Fields
	return user.User{
		ID:           doc.ID,
		Name:         f.String("name"),
		Email:        f.String("email"),
		IsActive:     f.Bool("isActive"),
		PasswordHash: []byte(f.String("passwordHash")),
		CreatedAt:    f.Time("createdAt"),
		UpdatedAt:    f.Time("updatedAt"),
		LastLogin:    f.Time("lastLogin"),
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := repo.store.AddDocument(ctx, usersCollection, userFields(usr))
	if err != nil {
		return user.User{}, core.NewRemoteError("creating user", err)
	}
	usr.ID = id
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if !core.IsPathSegment(id) {
		return user.User{}, user.ErrNotFound
	}
	doc, err := repo.store.GetDocument(ctx, core.JoinPath(usersCollection, id))
	if err != nil {
		if isNotFound(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, core.NewRemoteError("getting user", err)
	}
	return toUser(doc), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	docs, err := repo.store.GetDocuments(ctx, usersCollection, core.Eq("email", email))
	if err != nil {
		return user.User{}, core.NewRemoteError("querying users", err)
	}
	if len(docs) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return toUser(docs[0]), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.store.SetDocument(ctx, core.JoinPath(usersCollection, usr.ID), userFields(usr)); err != nil {
		return user.User{}, core.NewRemoteError("updating user", err)
	}
	return usr, nil
}
