package student

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

type fakeRepo struct {
	students []Student
	nextID   int
	err      error
}

func (r *fakeRepo) CreateStudent(_ context.Context, st Student) (Student, error) {
	if r.err != nil {
		return Student{}, r.err
	}
	r.nextID++
	st.ID = strconv.Itoa(r.nextID)
	r.students = append(r.students, st)
	return st, nil
}

func (r *fakeRepo) QueryStudents(_ context.Context, filter QueryFilter) ([]Student, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]Student, 0)
	for _, st := range r.students {
		if filter.GradeLevel != "" && st.GradeLevel != filter.GradeLevel {
			continue
		}
		if filter.Subject != "" && !st.IsEnrolledIn(filter.Subject) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (r *fakeRepo) GetStudentsByBirthCert(_ context.Context, bcn string) ([]Student, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]Student, 0)
	for _, st := range r.students {
		if st.BirthCertNumber == bcn {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateStudent(_ context.Context, st Student) (Student, error) {
	for i := range r.students {
		if r.students[i].ID == st.ID {
			r.students[i] = st
		}
	}
	return st, nil
}

func (r *fakeRepo) DeleteStudentsByID(_ context.Context, ids ...string) error {
	kept := r.students[:0]
	for _, st := range r.students {
		if !core.ContainsString(ids, st.ID) {
			kept = append(kept, st)
		}
	}
	r.students = kept
	return nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator, core.DefaultCatalog())
	return validate
}

func validStudent(name, bcn string) NewStudent {
	return NewStudent{
		FullName:        name,
		BirthCertNumber: bcn,
		GradeLevel:      "Standard 1",
		Subjects:        []string{"Science"},
	}
}

func TestNewStudent_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name      string
		mutate    func(ns *NewStudent)
		wantField string
		wantTag   string
	}{
		{name: "valid", mutate: func(ns *NewStudent) {}},
		{name: "blank name", mutate: func(ns *NewStudent) { ns.FullName = "   " }, wantField: "full_name", wantTag: "required"},
		{name: "bcn with slash", mutate: func(ns *NewStudent) { ns.BirthCertNumber = "BC/1" }, wantField: "birth_cert_number", wantTag: "pathsafe"},
		{name: "unknown grade", mutate: func(ns *NewStudent) { ns.GradeLevel = "Year 9" }, wantField: "grade_level", wantTag: "gradelevel"},
		{name: "bad date", mutate: func(ns *NewStudent) { ns.DateOfBirth = "01/02/2015" }, wantField: "date_of_birth", wantTag: "datetime"},
		{name: "unknown subject", mutate: func(ns *NewStudent) { ns.Subjects = []string{"Science", "Alchemy"} }, wantField: "subjects[1]", wantTag: "subject"},
		{name: "unknown gender", mutate: func(ns *NewStudent) { ns.Gender = "X" }, wantField: "gender", wantTag: "gender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := validStudent(" Ali ", " BC1 ")
			tt.mutate(&ns)
			err := ns.Validate(validate)
			if tt.wantTag == "" {
				require.NoError(t, err)
				assert.Equal(t, "Ali", ns.FullName)
				assert.Equal(t, "BC1", ns.BirthCertNumber)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs))
			assert.Equal(t, tt.wantField, vErrs[0].Field())
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestNewStudent_CleanSubjects(t *testing.T) {
	ns := validStudent("Ali", "BC1")
	ns.Subjects = []string{" Science", "Science", "", "English"}
	require.NoError(t, ns.Validate(newValidator()))
	assert.Equal(t, []string{"Science", "English"}, ns.Subjects)

	ns.Subjects = nil
	require.NoError(t, ns.Validate(newValidator()))
	assert.Equal(t, []string{}, ns.Subjects)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	repo := new(fakeRepo)
	svc := NewService(repo)

	ali, err := svc.Create(ctx, validStudent("Ali", "BC1"))
	require.NoError(t, err)
	bala, err := svc.Create(ctx, NewStudent{FullName: "Bala", BirthCertNumber: "BC2", GradeLevel: "Standard 2", Subjects: []string{"English"}})
	require.NoError(t, err)

	t.Run("duplicate bcn", func(t *testing.T) {
		_, err := svc.Create(ctx, validStudent("Other", "BC1"))
		require.True(t, core.IsValidation(err))
		assert.Equal(t, ErrBirthCertExists, err.(*core.ValidationError).Err)
	})

	t.Run("filter", func(t *testing.T) {
		got, err := svc.Filter(ctx, QueryFilter{GradeLevel: " Standard 1 ", Subject: "Science"})
		require.NoError(t, err)
		assert.Equal(t, []Student{ali}, got)

		all, err := svc.QueryAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Student{ali, bala}, all)
	})

	t.Run("get", func(t *testing.T) {
		got, err := svc.GetByBirthCert(ctx, " BC2")
		require.NoError(t, err)
		assert.Equal(t, bala, got)

		_, err = svc.GetByBirthCert(ctx, "BC9")
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("update", func(t *testing.T) {
		us := UpdateStudent{NewStudent: validStudent("Ali bin Abu", "BC1")}
		got, err := svc.Update(ctx, "BC1", us)
		require.NoError(t, err)
		assert.Equal(t, ali.ID, got.ID)
		assert.Equal(t, "Ali bin Abu", got.FullName)

		// taking another student's bcn
		us.BirthCertNumber = "BC2"
		_, err = svc.Update(ctx, "BC1", us)
		assert.True(t, core.IsValidation(err))

		_, err = svc.Update(ctx, "BC9", us)
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, "BC2"))
		assert.Equal(t, ErrNotFound, svc.Delete(ctx, "BC2"))
	})
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	validate := newValidator()
	repo := new(fakeRepo)
	svc := NewService(repo)

	rows := []ImportRow{
		{Line: 2, Student: validStudent("Ali", "BC1")},
		{Line: 3, Student: NewStudent{FullName: "No Grade", BirthCertNumber: "BC2"}},
		{Line: 4, Student: validStudent("Ali again", "BC1")},
		{Line: 5, Student: validStudent("Chen", "BC3")},
	}
	report, err := svc.Import(ctx, validate, rows)
	require.NoError(t, err)
	require.Len(t, report.Created, 2)
	assert.Equal(t, "Ali", report.Created[0].FullName)
	assert.Equal(t, "Chen", report.Created[1].FullName)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 3, report.Errors[0].Line)
	assert.Equal(t, 4, report.Errors[1].Line)
	assert.True(t, core.IsValidation(report.Errors[1].Err))

	repo.err = errors.New("unavailable")
	_, err = svc.Import(ctx, validate, []ImportRow{{Line: 2, Student: validStudent("Dina", "BC4")}})
	assert.Error(t, err)
}
