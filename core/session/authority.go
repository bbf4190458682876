package session

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Authority authenticates users and manages their passwords.
type Authority interface {
	SignIn(ctx context.Context, email, password string) (Principal, error)
	SignOut(ctx context.Context, p Principal) error
	// Reauthenticate confirms the credentials of an already signed in user.
	Reauthenticate(ctx context.Context, email, password string) (Principal, error)
	UpdatePassword(ctx context.Context, uid, newPassword string) error
	SendPasswordReset(ctx context.Context, email string) error
}

// PasswordChange holds a password change request of a signed in user.
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,pwdminlen"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=NewPassword"`
}

func (pc PasswordChange) Validate(validate *validator.Validate) error {
	return validate.Struct(pc)
}

func cleanCredentials(email, password string) (string, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}
	return email, nil
}

// SignIn checks both credentials are present before asking auth to sign in.
func SignIn(ctx context.Context, auth Authority, email, password string) (Principal, error) {
	email, err := cleanCredentials(email, password)
	if err != nil {
		return Principal{}, err
	}
	return auth.SignIn(ctx, email, password)
}

// ChangePassword reauthenticates p with the current password, then sets the new one.
// pc must have been validated.
func ChangePassword(ctx context.Context, auth Authority, p Principal, pc PasswordChange) error {
	if _, err := auth.Reauthenticate(ctx, p.Email, pc.CurrentPassword); err != nil {
		return pkgerrors.Wrap(err, "reauthenticating")
	}
	if err := auth.UpdatePassword(ctx, p.UID, pc.NewPassword); err != nil {
		return pkgerrors.Wrap(err, "updating password")
	}
	return nil
}

// SendPasswordReset asks the authority to mail a reset link to email.
func SendPasswordReset(ctx context.Context, auth Authority, email string) error {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return core.NewValidationError(
			errors.New("email is required"),
			core.FieldError{Field: "email", Error: "this field is required"},
		)
	}
	return auth.SendPasswordReset(ctx, email)
}
