package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		tokens  tokenGenerator
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string) error {
	_, err := svc.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// CheckCredentials returns the active user matching email and password.
func (svc *Service) CheckCredentials(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return usr, nil
}

// Authenticate checks the credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.CheckCredentials(ctx, email, pwd)
	if err != nil {
		return User{}, err
	}
	usr.LastLogin = time.Now().UTC().Truncate(time.Microsecond)
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetActive(ctx context.Context, usr User, active bool) (User, error) {
	usr.IsActive = active
	usr.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset mails a password reset link to the active user holding email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return nil
	}
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return pkgerrors.Wrap(err, "making token")
	}
	svc.sendPasswordResetMail(usr, token)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User, token string) {
	q := make(url.Values)
	q.Set("uid", encodeUID(usr))
	q.Set("token", token)
	link := fmt.Sprintf("%s/password-reset?%s", svc.conf.FrontendBaseURL, q.Encode())

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name": usr.Name,
			"Link": link,
		},
	})
}

// ResetPassword sets a new password after checking the reset token.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	errInvalidLink := core.NewValidationError(errors.New("invalid password reset link"))

	id, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, errInvalidLink
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, errInvalidLink
		}
		return User{}, pkgerrors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return User{}, core.NewValidationError(err)
	}
	return svc.SetPassword(ctx, usr, rp.Password)
}
