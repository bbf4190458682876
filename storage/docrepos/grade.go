package docrepos

import (
	"context"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
)

type markRepository struct {
	store core.DocumentStore
}

var _ grade.Repository = (*markRepository)(nil)

func NewMarkRepository(store core.DocumentStore) *markRepository {
	return &markRepository{store: store}
}

// marksCollection is grade_records/{gradeLevel}/subjects/{subject}/students
func marksCollection(gradeLevel, subject string) string {
	return core.JoinPath(gradeRecordsCollection, gradeLevel, "subjects", subject, "students")
}

func (repo *markRepository) QueryMarks(ctx context.Context, gradeLevel, subject string) ([]grade.MarkRecord, error) {
	docs, err := repo.store.GetDocuments(ctx, marksCollection(gradeLevel, subject))
	if err != nil {
		return nil, err
	}
	records := make([]grade.MarkRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, grade.MarkRecord{
			BirthCertNumber: doc.ID,
			FullName:        doc.Fields.String("fullName"),
			Mark:            doc.Fields.Text("mark"),
			IsAbsent:        doc.Fields.Bool("isAbsent"),
		})
	}
	return records, nil
}

func (repo *markRepository) SetMark(ctx context.Context, gradeLevel, subject, birthCertNumber string, mu grade.MarkUpdate) error {
	var mark interface{}
	if mu.Mark.Valid {
		mark = int64(mu.Mark.Int)
	}
	path := core.JoinPath(marksCollection(gradeLevel, subject), birthCertNumber)
	return repo.store.SetDocument(ctx, path, core.Fields{
		"fullName": mu.FullName,
		"mark":     mark,
		"isAbsent": mu.IsAbsent,
	})
}
