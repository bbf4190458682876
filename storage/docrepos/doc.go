// Package docrepos implements the domain repositories on top of a core.DocumentStore.
// Store failures are reported as *core.RemoteError.
package docrepos

import (
	"errors"

	"github.com/trezcool/gradebook/core"
)

// Collections
const (
	studentsCollection     = "students"
	teachersCollection     = "teachers"
	usersCollection        = "users"
	gradeRecordsCollection = "grade_records"
)

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrDocumentNotFound)
}
