package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator, core.DefaultCatalog())
	InitValidators(validate, translator)
	return validate, translator
}

func TestNewUser_Validate(t *testing.T) {
	validate, translator := newValidator()

	tests := []struct {
		name      string
		nu        NewUser
		wantField string
		wantMsg   string
	}{
		{
			name: "valid",
			nu:   NewUser{Name: "Cikgu Aminah", Email: " Aminah@School.my ", Password: "kopi-O-99", PasswordConfirm: "kopi-O-99"},
		},
		{
			name:      "missing email",
			nu:        NewUser{Name: "Aminah", Password: "kopi-O-99", PasswordConfirm: "kopi-O-99"},
			wantField: "email",
			wantMsg:   "this field is required",
		},
		{
			name:      "password too short",
			nu:        NewUser{Name: "Aminah", Email: "a@school.my", Password: "abc", PasswordConfirm: "abc"},
			wantField: "password",
			wantMsg:   "password must contain at least 6 characters",
		},
		{
			name:      "password mismatch",
			nu:        NewUser{Name: "Aminah", Email: "a@school.my", Password: "kopi-O-99", PasswordConfirm: "kopi-O-98"},
			wantField: "password_confirm",
			wantMsg:   "passwords do not match",
		},
		{
			name:      "password with whitespace",
			nu:        NewUser{Name: "Aminah", Email: "a@school.my", Password: "kopi O 99", PasswordConfirm: "kopi O 99"},
			wantField: "password",
			wantMsg:   "password must not contain whitespace",
		},
		{
			name:      "password similar to name",
			nu:        NewUser{Name: "Aminah Yusof", Email: "a@school.my", Password: "aminahyusof", PasswordConfirm: "aminahyusof"},
			wantField: "password",
			wantMsg:   "password cannot be similar to user attributes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := tt.nu
			err := nu.Validate(validate)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "aminah@school.my", nu.Email)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "unexpected error: %v", err)
			msgs := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				msgs[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantMsg, msgs[tt.wantField])
		})
	}
}
