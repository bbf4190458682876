package teacher

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

// Profile is the staff profile of a signed in teacher, keyed by their UID.
type Profile struct {
	UID             string      `json:"uid"`
	FullName        string      `json:"full_name"`
	Email           string      `json:"email"`
	PhoneNumber     string      `json:"phone_number"`
	ProfilePhotoURL string      `json:"profile_photo_url"`
	ICNumber        null.String `json:"ic_number"`
	DateOfBirth     null.String `json:"date_of_birth"`
	Gender          null.String `json:"gender"`
	Address         null.String `json:"address"`
}

// UpdateProfile replaces the editable fields of a Profile. Blank optional fields are cleared.
type UpdateProfile struct {
	FullName        string `json:"full_name" validate:"required,notblank"`
	Email           string `json:"email" validate:"omitempty,email"`
	PhoneNumber     string `json:"phone_number"`
	ProfilePhotoURL string `json:"profile_photo_url" validate:"omitempty,url"`
	ICNumber        string `json:"ic_number"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,gender"`
	Address         string `json:"address"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.FullName = core.CleanString(up.FullName)
	up.Email = core.CleanString(up.Email, true /* lower */)
	up.PhoneNumber = core.CleanString(up.PhoneNumber)
	up.ProfilePhotoURL = core.CleanString(up.ProfilePhotoURL)
	up.ICNumber = core.CleanString(up.ICNumber)
	up.DateOfBirth = core.CleanString(up.DateOfBirth)
	up.Gender = core.CleanString(up.Gender)
	up.Address = core.CleanString(up.Address)
	return validate.Struct(up)
}

func (up UpdateProfile) profile(uid string) Profile {
	return Profile{
		UID:             uid,
		FullName:        up.FullName,
		Email:           up.Email,
		PhoneNumber:     up.PhoneNumber,
		ProfilePhotoURL: up.ProfilePhotoURL,
		ICNumber:        optional(up.ICNumber),
		DateOfBirth:     optional(up.DateOfBirth),
		Gender:          optional(up.Gender),
		Address:         optional(up.Address),
	}
}

func optional(s string) null.String {
	return null.NewString(s, s != "")
}
