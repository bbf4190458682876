package docrepos

import (
	"context"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

type studentRepository struct {
	store core.DocumentStore
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(store core.DocumentStore) *studentRepository {
	return &studentRepository{store: store}
}

func studentFields(st student.Student) core.Fields {
	subjects := st.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return core.Fields{
		"fullName":        st.FullName,
		"birthCertNumber": st.BirthCertNumber,
		"dateOfBirth":     st.DateOfBirth,
		"gradeLevel":      st.GradeLevel,
		"gender":          st.Gender,
		"nationality":     st.Nationality,
		"parentContact":   st.ParentContact,
		"schoolYear":      st.SchoolYear,
		"subjects":        subjects,
	}
}

func toStudent(doc core.Document) student.Student {
	f := doc.Fields
	subjects := f.Strings("subjects")
	if subjects == nil {
		subjects = []string{}
	}
	return student.Student{
		ID:              doc.ID,
		FullName:        f.String("fullName"),
		BirthCertNumber: f.String("birthCertNumber"),
		DateOfBirth:     f.String("dateOfBirth"),
		GradeLevel:      f.String("gradeLevel"),
		Gender:          f.String("gender"),
		Nationality:     f.String("nationality"),
		ParentContact:   f.String("parentContact"),
		SchoolYear:      f.String("schoolYear"),
		Subjects:        subjects,
	}
}

func (repo *studentRepository) query(ctx context.Context, filters ...core.Filter) ([]student.Student, error) {
	docs, err := repo.store.GetDocuments(ctx, studentsCollection, filters...)
	if err != nil {
		return nil, core.NewRemoteError("querying students", err)
	}
	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, toStudent(doc))
	}
	return students, nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	id, err := repo.store.AddDocument(ctx, studentsCollection, studentFields(st))
	if err != nil {
		return student.Student{}, core.NewRemoteError("creating student", err)
	}
	st.ID = id
	return st, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	var filters []core.Filter
	if filter.GradeLevel != "" {
		filters = append(filters, core.Eq("gradeLevel", filter.GradeLevel))
	}
	if filter.Subject != "" {
		filters = append(filters, core.ArrayContains("subjects", filter.Subject))
	}
	return repo.query(ctx, filters...)
}

func (repo *studentRepository) GetStudentsByBirthCert(ctx context.Context, birthCertNumber string) ([]student.Student, error) {
	return repo.query(ctx, core.Eq("birthCertNumber", birthCertNumber))
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if err := repo.store.SetDocument(ctx, core.JoinPath(studentsCollection, st.ID), studentFields(st)); err != nil {
		return student.Student{}, core.NewRemoteError("updating student", err)
	}
	return st, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := repo.store.DeleteDocument(ctx, core.JoinPath(studentsCollection, id)); err != nil {
			return core.NewRemoteError("deleting student", err)
		}
	}
	return nil
}
