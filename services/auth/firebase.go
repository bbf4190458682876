package authsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"firebase.google.com/go/v4/auth"
	pkgerrors "github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/session"
)

const signInURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// sendRequest is swapped in tests.
var sendRequest = rest.SendWithContext

// firebaseUsers is the part of the Firebase Auth admin client used by FirebaseAuthority.
type firebaseUsers interface {
	RevokeRefreshTokens(ctx context.Context, uid string) error
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
}

// FirebaseAuthority authenticates with Firebase Authentication email/password accounts.
// Password sign-in goes through the Identity Toolkit REST API, everything else through the admin SDK.
type FirebaseAuthority struct {
	users   firebaseUsers
	apiKey  string
	mailSvc core.EmailService
}

var _ session.Authority = (*FirebaseAuthority)(nil)

func NewFirebaseAuthority(client *auth.Client, conf *core.Config, mailSvc core.EmailService) *FirebaseAuthority {
	return newFirebaseAuthority(client, conf.Firebase.APIKey, mailSvc)
}

func newFirebaseAuthority(users firebaseUsers, apiKey string, mailSvc core.EmailService) *FirebaseAuthority {
	return &FirebaseAuthority{users: users, apiKey: apiKey, mailSvc: mailSvc}
}

type signInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func signInError(body string) error {
	var res errorResponse
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return pkgerrors.Wrap(err, "decoding sign in error")
	}
	// e.g.: "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled"
	code := strings.TrimSpace(strings.SplitN(res.Error.Message, ":", 2)[0])
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "MISSING_PASSWORD":
		return session.ErrInvalidCredentials
	case "USER_DISABLED":
		return session.ErrAccountDisabled
	}
	return pkgerrors.Errorf("sign in failed: %s", res.Error.Message)
}

func (a *FirebaseAuthority) signIn(ctx context.Context, email, password string) (session.Principal, error) {
	body, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return session.Principal{}, err
	}

	res, err := sendRequest(ctx, rest.Request{
		Method:      rest.Post,
		BaseURL:     signInURL,
		Headers:     map[string]string{"Content-Type": "application/json"},
		QueryParams: map[string]string{"key": a.apiKey},
		Body:        body,
	})
	if err != nil {
		return session.Principal{}, core.NewRemoteError("signing in", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return session.Principal{}, signInError(res.Body)
	}

	var out signInResponse
	if err = json.Unmarshal([]byte(res.Body), &out); err != nil {
		return session.Principal{}, pkgerrors.Wrap(err, "decoding sign in response")
	}
	return session.Principal{UID: out.LocalID, Email: out.Email}, nil
}

func (a *FirebaseAuthority) SignIn(ctx context.Context, email, password string) (session.Principal, error) {
	return a.signIn(ctx, core.CleanString(email, true /* lower */), password)
}

// SignOut revokes the refresh tokens of p on every device.
func (a *FirebaseAuthority) SignOut(ctx context.Context, p session.Principal) error {
	if p.UID == "" {
		return nil
	}
	return core.NewRemoteError("revoking refresh tokens", a.users.RevokeRefreshTokens(ctx, p.UID))
}

func (a *FirebaseAuthority) Reauthenticate(ctx context.Context, email, password string) (session.Principal, error) {
	return a.signIn(ctx, core.CleanString(email, true /* lower */), password)
}

func (a *FirebaseAuthority) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	_, err := a.users.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(newPassword))
	return core.NewRemoteError("updating password", err)
}

// SendPasswordReset mails a Firebase password reset link. Unknown emails are silently ignored.
func (a *FirebaseAuthority) SendPasswordReset(ctx context.Context, email string) error {
	usr, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil
		}
		return core.NewRemoteError("finding user", err)
	}
	if usr.Disabled {
		return nil
	}

	link, err := a.users.PasswordResetLink(ctx, email)
	if err != nil {
		return core.NewRemoteError("generating password reset link", err)
	}
	name := usr.DisplayName
	if name == "" {
		name = email
	}
	a.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName, Address: email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name": name,
			"Link": link,
		},
	})
	return nil
}
