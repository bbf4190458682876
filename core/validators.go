package core

import (
	"fmt"
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// PasswordMinLen is the minimum length of any password.
const PasswordMinLen = 6

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	pathSafeTag  = "pathsafe"
	pathSafeText = "this field cannot be blank or contain '/'"

	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", PasswordMinLen)

	gradeLevelTag  = "gradelevel"
	gradeLevelText = "invalid grade level"

	subjectTag  = "subject"
	subjectText = "invalid subject"

	genderTag  = "gender"
	genderText = "invalid gender"

	nationalityTag  = "nationality"
	nationalityText = "invalid nationality"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	eqFieldTag  = "eqfield"
	eqFieldText = "passwords do not match"
)

// InitValidators instantiates the validator for use.
// The catalog backs the option tags: gradelevel, subject, gender and nationality.
func InitValidators(validate *validator.Validate, translator ut.Translator, catalog Catalog) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(pathSafeTag, pathSafeValidation)
	RegisterCustomTranslation(validate, translator, pathSafeTag, pathSafeText)

	_ = validate.RegisterValidation(pwdMinLenTag, pwdMinLenValidation)
	RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)

	_ = validate.RegisterValidation(gradeLevelTag, optionValidation(catalog.HasGradeLevel))
	RegisterCustomTranslation(validate, translator, gradeLevelTag, gradeLevelText)

	_ = validate.RegisterValidation(subjectTag, optionValidation(catalog.HasSubject))
	RegisterCustomTranslation(validate, translator, subjectTag, subjectText)

	_ = validate.RegisterValidation(genderTag, optionValidation(catalog.HasGender))
	RegisterCustomTranslation(validate, translator, genderTag, genderText)

	_ = validate.RegisterValidation(nationalityTag, optionValidation(catalog.HasNationality))
	RegisterCustomTranslation(validate, translator, nationalityTag, nationalityText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// pathSafeValidation only allows values usable as a single document path segment.
func pathSafeValidation(fl validator.FieldLevel) bool {
	return IsPathSegment(fl.Field().String())
}

func pwdMinLenValidation(fl validator.FieldLevel) bool {
	return len([]rune(fl.Field().String())) >= PasswordMinLen
}

func optionValidation(has func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return has(fl.Field().String())
	}
}
