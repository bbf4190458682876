package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/user"
)

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

var _ core.Logger = NopLogger{}

// NewConfig returns a TEST mode config that does not depend on the environment.
func NewConfig() *core.Config {
	conf := &core.Config{
		TestMode:                  true,
		AppName:                   "Gradebook",
		Env:                       "TEST",
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 24 * time.Hour,
	}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 24 * time.Hour
	conf.Server.DisableReqLogs = true
	conf.Store.Engine = core.StoreMemory
	conf.Auth.Provider = core.AuthLocal
	conf.SetDefaultFromEmail("Gradebook <noreply@test.my>")
	return conf
}

// NewValidator returns a validator set up with the default catalog and the user validators.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator, _ := ut.New(en.New()).GetTranslator("en")
	core.InitValidators(validate, translator, core.DefaultCatalog())
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, name, email, pwd string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	usr := user.User{
		Name:      name,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, name, bcn, gradeLevel string, subjects ...string) student.Student {
	t.Helper()
	if subjects == nil {
		subjects = []string{}
	}
	st, err := repo.CreateStudent(context.Background(), student.Student{
		FullName:        name,
		BirthCertNumber: bcn,
		GradeLevel:      gradeLevel,
		Subjects:        subjects,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}
