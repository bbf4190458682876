// Package sheetsvc reads student rosters from and writes mark sheets to Excel workbooks.
package sheetsvc

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
)

// ContentType of the workbooks written by this package.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrNoSheet = errors.New("workbook does not contain any sheet")

// roster columns, matched case-insensitively against the header row
var columns = map[string]func(ns *student.NewStudent, v string){
	"full name":         func(ns *student.NewStudent, v string) { ns.FullName = v },
	"birth cert number": func(ns *student.NewStudent, v string) { ns.BirthCertNumber = v },
	"date of birth":     func(ns *student.NewStudent, v string) { ns.DateOfBirth = v },
	"grade level":       func(ns *student.NewStudent, v string) { ns.GradeLevel = v },
	"gender":            func(ns *student.NewStudent, v string) { ns.Gender = v },
	"nationality":       func(ns *student.NewStudent, v string) { ns.Nationality = v },
	"parent contact":    func(ns *student.NewStudent, v string) { ns.ParentContact = v },
	"school year":       func(ns *student.NewStudent, v string) { ns.SchoolYear = v },
	"subjects":          func(ns *student.NewStudent, v string) { ns.Subjects = splitList(v) },
}

// RosterHeader lists the columns ReadStudents understands.
var RosterHeader = []string{
	"Full Name", "Birth Cert Number", "Date of Birth", "Grade Level", "Gender",
	"Nationality", "Parent Contact", "School Year", "Subjects",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func splitList(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReadStudents reads the first sheet of a workbook. The first row is the header;
// unknown columns are ignored and blank rows skipped. Rows are numbered as in the sheet.
func ReadStudents(r io.Reader) ([]student.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheetName)
	}
	if len(rows) == 0 {
		return []student.ImportRow{}, nil
	}

	setters := make([]func(ns *student.NewStudent, v string), len(rows[0]))
	var known bool
	for i, h := range rows[0] {
		if set, ok := columns[normalizeHeader(h)]; ok {
			setters[i] = set
			known = true
		}
	}
	if !known {
		return nil, errors.Errorf("sheet %s has no known column; expected: %s", sheetName, strings.Join(RosterHeader, ", "))
	}

	out := make([]student.ImportRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		var ns student.NewStudent
		for j, v := range row {
			if j < len(setters) && setters[j] != nil {
				setters[j](&ns, strings.TrimSpace(v))
			}
		}
		out = append(out, student.ImportRow{Line: i + 2, Student: ns})
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sheetName returns a valid sheet name: at most 31 chars, none of : \ / ? * [ ]
func sheetName(gradeLevel, subject string) string {
	name := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")").
		Replace(gradeLevel + " - " + subject)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// WriteMarks writes the mark sheet of gradeLevel and subject as a workbook.
// Absent students have an empty mark.
func WriteMarks(w io.Writer, gradeLevel, subject string, marks []grade.StudentMark) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := sheetName(gradeLevel, subject)
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := []interface{}{"No.", "Full Name", "Birth Cert Number", "Mark", "Absent"}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, m := range marks {
		var mark interface{}
		if em := m.EffectiveMark(); em.Valid {
			mark = em.String
		}
		absent := "No"
		if m.IsAbsent {
			absent = "Yes"
		}
		row := []interface{}{i + 1, m.FullName, m.BirthCertNumber, mark, absent}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(name, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// ExportFilename is the download name of a mark sheet.
func ExportFilename(gradeLevel, subject string) string {
	return fmt.Sprintf("%s.xlsx", strings.ReplaceAll(sheetName(gradeLevel, subject), " ", "_"))
}
