// Package authsvc provides the session authorities: local accounts and Firebase Authentication.
package authsvc

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/session"
	"github.com/trezcool/gradebook/core/user"
)

// LocalAuthority authenticates against the local user accounts.
type LocalAuthority struct {
	users *user.Service
}

var _ session.Authority = (*LocalAuthority)(nil)

func NewLocalAuthority(users *user.Service) *LocalAuthority {
	return &LocalAuthority{users: users}
}

func principal(usr user.User) session.Principal {
	return session.Principal{UID: usr.ID, Email: usr.Email}
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return session.ErrInvalidCredentials
	case errors.Is(err, user.ErrAccountDeactivated):
		return session.ErrAccountDisabled
	}
	return err
}

func (a *LocalAuthority) SignIn(ctx context.Context, email, password string) (session.Principal, error) {
	usr, err := a.users.Authenticate(ctx, email, password)
	if err != nil {
		return session.Principal{}, sessionError(err)
	}
	return principal(usr), nil
}

// SignOut is a no-op: local sessions only live in the client's token.
func (a *LocalAuthority) SignOut(context.Context, session.Principal) error {
	return nil
}

func (a *LocalAuthority) Reauthenticate(ctx context.Context, email, password string) (session.Principal, error) {
	usr, err := a.users.CheckCredentials(ctx, email, password)
	if err != nil {
		return session.Principal{}, sessionError(err)
	}
	return principal(usr), nil
}

func (a *LocalAuthority) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	usr, err := a.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return session.ErrNotAuthenticated
		}
		return pkgerrors.Wrap(err, "finding user")
	}
	_, err = a.users.SetPassword(ctx, usr, newPassword)
	return err
}

// SendPasswordReset does not reveal whether email belongs to an account.
func (a *LocalAuthority) SendPasswordReset(ctx context.Context, email string) error {
	err := a.users.RequestPasswordReset(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return nil
	}
	return err
}
