package grade

import (
	"context"
	"errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

var errInvalidScope = errors.New("invalid grade level or subject")

type (
	// Roster lists the students enrolled in a grade level and subject.
	Roster interface {
		Filter(ctx context.Context, filter student.QueryFilter) ([]student.Student, error)
	}

	Repository interface {
		QueryMarks(ctx context.Context, gradeLevel, subject string) ([]MarkRecord, error)
		// SetMark fully overwrites the mark stored for birthCertNumber.
		SetMark(ctx context.Context, gradeLevel, subject, birthCertNumber string, mu MarkUpdate) error
	}

	Service struct {
		roster Roster
		repo   Repository
	}
)

func NewService(roster Roster, repo Repository) *Service {
	return &Service{roster: roster, repo: repo}
}

// scope is a grade level and subject, cleaned once so that the roster, the marks
// and every write resolve to the same path segments.
type scope struct {
	gradeLevel string
	subject    string
}

func cleanScope(gradeLevel, subject string, birthCertNumber ...*string) (scope, error) {
	sc := scope{gradeLevel: core.CleanString(gradeLevel), subject: core.CleanString(subject)}

	var flds []core.FieldError
	if !core.IsPathSegment(sc.gradeLevel) {
		flds = append(flds, core.FieldError{Field: "grade_level", Error: "invalid grade level"})
	}
	if !core.IsPathSegment(sc.subject) {
		flds = append(flds, core.FieldError{Field: "subject", Error: "invalid subject"})
	}
	for _, bcn := range birthCertNumber {
		*bcn = core.CleanString(*bcn)
		if !core.IsPathSegment(*bcn) {
			flds = append(flds, core.FieldError{Field: "birth_cert_number", Error: "invalid birth certificate number"})
		}
	}
	if flds != nil {
		return scope{}, core.NewValidationError(errInvalidScope, flds...)
	}
	return sc, nil
}

// LoadRoster joins the students enrolled in gradeLevel and subject with their stored marks.
// Every enrolled student appears once, in roster order; students without a stored mark
// get a null mark and are not absent. Marks of students outside the roster are ignored.
func (svc *Service) LoadRoster(ctx context.Context, gradeLevel, subject string) ([]StudentMark, error) {
	sc, err := cleanScope(gradeLevel, subject)
	if err != nil {
		return nil, err
	}

	students, err := svc.roster.Filter(ctx, student.QueryFilter{GradeLevel: sc.gradeLevel, Subject: sc.subject})
	if err != nil {
		return nil, core.NewRemoteError("querying roster", err)
	}
	records, err := svc.repo.QueryMarks(ctx, sc.gradeLevel, sc.subject)
	if err != nil {
		return nil, core.NewRemoteError("querying marks", err)
	}

	byBCN := make(map[string]MarkRecord, len(records))
	for _, rec := range records {
		byBCN[rec.BirthCertNumber] = rec
	}

	marks := make([]StudentMark, 0, len(students))
	for _, st := range students {
		sm := StudentMark{FullName: st.FullName, BirthCertNumber: st.BirthCertNumber}
		if rec, ok := byBCN[st.BirthCertNumber]; ok {
			sm.Mark = rec.Mark
			sm.IsAbsent = rec.IsAbsent
		}
		marks = append(marks, sm)
	}
	return marks, nil
}

// SaveMark overwrites the mark of birthCertNumber for gradeLevel and subject. It is not retried.
func (svc *Service) SaveMark(ctx context.Context, gradeLevel, subject, birthCertNumber string, mu MarkUpdate) error {
	sc, err := cleanScope(gradeLevel, subject, &birthCertNumber)
	if err != nil {
		return err
	}
	return core.NewRemoteError("saving mark", svc.repo.SetMark(ctx, sc.gradeLevel, sc.subject, birthCertNumber, mu))
}
