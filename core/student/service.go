package student

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound        = errors.New("student not found")
	ErrBirthCertExists = errors.New("a student with this birth certificate number already exists")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		// QueryStudents returns the students matching all non-empty filter fields, in store order.
		QueryStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		GetStudentsByBirthCert(ctx context.Context, birthCertNumber string) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// checkUniqueness fails when another student already holds birthCertNumber.
func (svc *Service) checkUniqueness(ctx context.Context, birthCertNumber string, excludedID string) error {
	matches, err := svc.repo.GetStudentsByBirthCert(ctx, birthCertNumber)
	if err != nil {
		return err
	}
	for _, st := range matches {
		if st.ID != excludedID {
			return core.NewValidationError(
				ErrBirthCertExists,
				core.FieldError{Field: "birth_cert_number", Error: ErrBirthCertExists.Error()},
			)
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkUniqueness(ctx, ns.BirthCertNumber, ""); err != nil {
		return Student{}, err
	}
	return svc.repo.CreateStudent(ctx, ns.student(""))
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, QueryFilter{})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter)
}

// GetByBirthCert returns the first student holding birthCertNumber.
func (svc *Service) GetByBirthCert(ctx context.Context, birthCertNumber string) (Student, error) {
	matches, err := svc.repo.GetStudentsByBirthCert(ctx, core.CleanString(birthCertNumber))
	if err != nil {
		return Student{}, err
	}
	if len(matches) == 0 {
		return Student{}, ErrNotFound
	}
	return matches[0], nil
}

// Update fully replaces the first student holding birthCertNumber.
func (svc *Service) Update(ctx context.Context, birthCertNumber string, us UpdateStudent) (Student, error) {
	orig, err := svc.GetByBirthCert(ctx, birthCertNumber)
	if err != nil {
		return Student{}, err
	}
	if us.BirthCertNumber != orig.BirthCertNumber {
		if err := svc.checkUniqueness(ctx, us.BirthCertNumber, orig.ID); err != nil {
			return Student{}, err
		}
	}
	return svc.repo.UpdateStudent(ctx, us.student(orig.ID))
}

// Delete removes every student holding birthCertNumber.
func (svc *Service) Delete(ctx context.Context, birthCertNumber string) error {
	matches, err := svc.repo.GetStudentsByBirthCert(ctx, core.CleanString(birthCertNumber))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return ErrNotFound
	}
	ids := make([]string, 0, len(matches))
	for _, st := range matches {
		ids = append(ids, st.ID)
	}
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

type (
	// ImportRow is a student read from line Line of an imported file.
	ImportRow struct {
		Line    int
		Student NewStudent
	}

	// ImportError reports why the student of line Line was not created.
	ImportError struct {
		Line int
		Err  error
	}

	ImportReport struct {
		Created []Student
		Errors  []ImportError
	}
)

// Import validates and creates every row. Invalid rows are reported and skipped;
// any other failure stops the import and is returned along with the rows created so far.
func (svc *Service) Import(ctx context.Context, validate *validator.Validate, rows []ImportRow) (ImportReport, error) {
	report := ImportReport{Created: make([]Student, 0, len(rows))}
	for _, row := range rows {
		ns := row.Student
		err := ns.Validate(validate)
		if err == nil {
			var st Student
			st, err = svc.Create(ctx, ns)
			if err == nil {
				report.Created = append(report.Created, st)
				continue
			}
		}

		var vErrs validator.ValidationErrors
		if core.IsValidation(err) || errors.As(err, &vErrs) {
			report.Errors = append(report.Errors, ImportError{Line: row.Line, Err: err})
			continue
		}
		return report, err
	}
	return report, nil
}
