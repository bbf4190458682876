package session

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

type fakeAuthority struct {
	passwords  map[string]string // email: password
	signInErr  error
	signOutErr error
	signIns    int
	signOuts   int
	signingIn  chan struct{} // when set, SignIn reports it started then waits for release
	release    chan struct{}
	updated    map[string]string // uid: password
	resets     []string
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{
		passwords: map[string]string{"ali@test.my": "secret1"},
		updated:   make(map[string]string),
	}
}

func (a *fakeAuthority) SignIn(_ context.Context, email, password string) (Principal, error) {
	a.signIns++
	if a.signingIn != nil {
		a.signingIn <- struct{}{}
		<-a.release
	}
	if a.signInErr != nil {
		return Principal{}, a.signInErr
	}
	if pwd, ok := a.passwords[email]; !ok || pwd != password {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{UID: "uid-" + email, Email: email}, nil
}

func (a *fakeAuthority) SignOut(context.Context, Principal) error {
	a.signOuts++
	return a.signOutErr
}

func (a *fakeAuthority) Reauthenticate(ctx context.Context, email, password string) (Principal, error) {
	return a.SignIn(ctx, email, password)
}

func (a *fakeAuthority) UpdatePassword(_ context.Context, uid, newPassword string) error {
	a.updated[uid] = newPassword
	return nil
}

func (a *fakeAuthority) SendPasswordReset(_ context.Context, email string) error {
	a.resets = append(a.resets, email)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestMachine_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		m := NewMachine(newFakeAuthority(), nopLogger{})
		s := m.Login(ctx, " Ali@Test.my ", "secret1")
		assert.Equal(t, Authenticated, s.Phase)
		assert.Equal(t, "ali@test.my", s.User.Email)
		assert.Equal(t, s, m.State())
	})

	t.Run("wrong password", func(t *testing.T) {
		m := NewMachine(newFakeAuthority(), nopLogger{})
		s := m.Login(ctx, "ali@test.my", "nope")
		assert.Equal(t, State{Phase: Failed, Error: ErrInvalidCredentials.Error()}, s)
	})

	t.Run("empty credentials skip the authority", func(t *testing.T) {
		auth := newFakeAuthority()
		m := NewMachine(auth, nopLogger{})
		s := m.Login(ctx, "", "secret1")
		assert.Equal(t, Failed, s.Phase)
		assert.Equal(t, ErrMissingCredentials.Error(), s.Error)
		s = m.Login(ctx, "ali@test.my", "")
		assert.Equal(t, Failed, s.Phase)
		assert.Zero(t, auth.signIns)
	})

	t.Run("remote failure", func(t *testing.T) {
		auth := newFakeAuthority()
		auth.signInErr = core.NewRemoteError("signing in", errors.New("network down"))
		s := NewMachine(auth, nopLogger{}).Login(ctx, "ali@test.my", "secret1")
		assert.Equal(t, Failed, s.Phase)
		assert.Equal(t, "signing in: network down", s.Error)
	})

	t.Run("new attempt replaces the failure", func(t *testing.T) {
		m := NewMachine(newFakeAuthority(), nopLogger{})
		m.Login(ctx, "ali@test.my", "nope")
		s := m.Login(ctx, "ali@test.my", "secret1")
		assert.Equal(t, Authenticated, s.Phase)
		assert.Empty(t, s.Error)
	})
}

func TestMachine_Logout(t *testing.T) {
	ctx := context.Background()

	auth := newFakeAuthority()
	m := NewMachine(auth, nopLogger{})
	m.Login(ctx, "ali@test.my", "secret1")
	assert.Equal(t, State{}, m.Logout(ctx))
	assert.Equal(t, 1, auth.signOuts)

	// sign out failures are not surfaced
	m.Login(ctx, "ali@test.my", "secret1")
	auth.signOutErr = errors.New("boom")
	assert.Equal(t, State{}, m.Logout(ctx))

	// logging out from any state reaches the authority
	auth.signOutErr = nil
	m.Logout(ctx)
	assert.Equal(t, 3, auth.signOuts)
}

func TestMachine_LogoutDuringLogin(t *testing.T) {
	ctx := context.Background()
	auth := newFakeAuthority()
	auth.signingIn = make(chan struct{})
	auth.release = make(chan struct{})
	m := NewMachine(auth, nopLogger{})

	done := make(chan State)
	go func() { done <- m.Login(ctx, "ali@test.my", "secret1") }()

	<-auth.signingIn
	assert.True(t, m.State().IsLoading())
	assert.Equal(t, State{}, m.Logout(ctx))
	assert.Equal(t, 1, auth.signOuts)

	// the late sign in does not undo the logout
	close(auth.release)
	assert.Equal(t, State{}, <-done)
	assert.Equal(t, State{}, m.State())
	assert.Equal(t, RouteLogin, m.State().Route())

	t.Run("login again", func(t *testing.T) {
		auth.signingIn = nil
		s := m.Login(ctx, "ali@test.my", "secret1")
		assert.Equal(t, Authenticated, s.Phase)
	})
}

func TestMachine_Subscribe(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(newFakeAuthority(), nopLogger{})

	updates, cancel := m.Subscribe()
	defer cancel()

	// cold start goes to login
	s := <-updates
	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, RouteLogin, s.Route())

	m.Login(ctx, "ali@test.my", "secret1")
	// LoggingIn was conflated by the Authenticated state
	s = <-updates
	assert.Equal(t, Authenticated, s.Phase)
	assert.Equal(t, RouteStay, s.Route())

	m.Logout(ctx)
	s = <-updates
	assert.Equal(t, RouteLogin, s.Route())

	cancel()
	_, open := <-updates
	assert.False(t, open)
	cancel() // idempotent
}

func TestMachine_Redirects(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(newFakeAuthority(), nopLogger{})

	var routes []Route
	updates, cancel := m.Subscribe()
	record := func() { routes = append(routes, (<-updates).Route()) }

	record()
	m.Login(ctx, "ali@test.my", "secret1")
	record()
	m.Logout(ctx)
	record()
	cancel()

	assert.Equal(t, []Route{RouteLogin, RouteStay, RouteLogin}, routes)
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator, core.DefaultCatalog())
	return validate
}

func TestPasswordChange_Validate(t *testing.T) {
	validate := newValidator()
	tests := []struct {
		name    string
		pc      PasswordChange
		wantTag string
	}{
		{name: "valid", pc: PasswordChange{CurrentPassword: "secret1", NewPassword: "secret2", PasswordConfirm: "secret2"}},
		{name: "mismatch", pc: PasswordChange{CurrentPassword: "secret1", NewPassword: "secret2", PasswordConfirm: "secret3"}, wantTag: "eqfield"},
		{name: "too short", pc: PasswordChange{CurrentPassword: "secret1", NewPassword: "abc", PasswordConfirm: "abc"}, wantTag: "pwdminlen"},
		{name: "missing current", pc: PasswordChange{NewPassword: "secret2", PasswordConfirm: "secret2"}, wantTag: "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pc.Validate(validate)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs))
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestMachine_ChangePassword(t *testing.T) {
	ctx := context.Background()
	auth := newFakeAuthority()
	m := NewMachine(auth, nopLogger{})

	pc := PasswordChange{CurrentPassword: "secret1", NewPassword: "secret2", PasswordConfirm: "secret2"}
	assert.Equal(t, ErrNotAuthenticated, m.ChangePassword(ctx, pc))

	m.Login(ctx, "ali@test.my", "secret1")
	require.NoError(t, m.ChangePassword(ctx, pc))
	assert.Equal(t, "secret2", auth.updated["uid-ali@test.my"])

	pc.CurrentPassword = "wrong"
	err := m.ChangePassword(ctx, pc)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestSendPasswordReset(t *testing.T) {
	ctx := context.Background()
	auth := newFakeAuthority()

	err := SendPasswordReset(ctx, auth, "  ")
	assert.True(t, core.IsValidation(err))
	require.NoError(t, SendPasswordReset(ctx, auth, "Ali@Test.my"))
	assert.Equal(t, []string{"ali@test.my"}, auth.resets)
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	auth := newFakeAuthority()

	_, err := SignIn(ctx, auth, " ", "secret1")
	assert.Equal(t, ErrMissingCredentials, err)
	_, err = SignIn(ctx, auth, "ali@test.my", "")
	assert.Equal(t, ErrMissingCredentials, err)
	assert.Zero(t, auth.signIns)

	p, err := SignIn(ctx, auth, " Ali@Test.my", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ali@test.my", p.Email)
}
