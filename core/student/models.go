package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

type Student struct {
	ID              string   `json:"id"`
	FullName        string   `json:"full_name"`
	BirthCertNumber string   `json:"birth_cert_number"`
	DateOfBirth     string   `json:"date_of_birth"`
	GradeLevel      string   `json:"grade_level"`
	Gender          string   `json:"gender"`
	Nationality     string   `json:"nationality"`
	ParentContact   string   `json:"parent_contact"`
	SchoolYear      string   `json:"school_year"`
	Subjects        []string `json:"subjects"`
}

// IsEnrolledIn reports whether the student takes subject.
func (s Student) IsEnrolledIn(subject string) bool {
	return core.ContainsString(s.Subjects, subject)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FullName        string   `json:"full_name" validate:"required,notblank"`
	BirthCertNumber string   `json:"birth_cert_number" validate:"required,pathsafe"`
	DateOfBirth     string   `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	GradeLevel      string   `json:"grade_level" validate:"required,gradelevel"`
	Gender          string   `json:"gender" validate:"omitempty,gender"`
	Nationality     string   `json:"nationality" validate:"omitempty,nationality"`
	ParentContact   string   `json:"parent_contact"`
	SchoolYear      string   `json:"school_year"`
	Subjects        []string `json:"subjects" validate:"dive,subject"`
}

func (ns *NewStudent) clean() {
	ns.FullName = core.CleanString(ns.FullName)
	ns.BirthCertNumber = core.CleanString(ns.BirthCertNumber)
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)
	ns.GradeLevel = core.CleanString(ns.GradeLevel)
	ns.Gender = core.CleanString(ns.Gender)
	ns.Nationality = core.CleanString(ns.Nationality)
	ns.ParentContact = core.CleanString(ns.ParentContact)
	ns.SchoolYear = core.CleanString(ns.SchoolYear)
	ns.Subjects = core.UniqueStrings(ns.Subjects)
	if ns.Subjects == nil {
		ns.Subjects = []string{}
	}
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	return validate.Struct(ns)
}

func (ns NewStudent) student(id string) Student {
	return Student{
		ID:              id,
		FullName:        ns.FullName,
		BirthCertNumber: ns.BirthCertNumber,
		DateOfBirth:     ns.DateOfBirth,
		GradeLevel:      ns.GradeLevel,
		Gender:          ns.Gender,
		Nationality:     ns.Nationality,
		ParentContact:   ns.ParentContact,
		SchoolYear:      ns.SchoolYear,
		Subjects:        ns.Subjects,
	}
}

// UpdateStudent replaces every field of an existing Student.
type UpdateStudent struct {
	NewStudent
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.clean()
	return validate.Struct(us)
}

type QueryFilter struct {
	GradeLevel string `query:"grade_level"`
	Subject    string `query:"subject"`
}

func (qf *QueryFilter) Clean() {
	qf.GradeLevel = core.CleanString(qf.GradeLevel)
	qf.Subject = core.CleanString(qf.Subject)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.GradeLevel == "" && qf.Subject == ""
}
