package sheetsvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf := new(bytes.Buffer)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf
}

func TestReadStudents(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"Full Name", "BIRTH_CERT_NUMBER", "Grade Level", "Notes", "Subjects"},
		[]interface{}{"Ali", "BC1", "Standard 1", "ignored", "Science, English"},
		[]interface{}{"", "", "", "", ""},
		[]interface{}{" Bala ", "BC2", "Standard 2", "", "Mathematics;Science"},
	)

	rows, err := ReadStudents(buf)
	require.NoError(t, err)
	assert.Equal(t, []student.ImportRow{
		{Line: 2, Student: student.NewStudent{
			FullName: "Ali", BirthCertNumber: "BC1", GradeLevel: "Standard 1", Subjects: []string{"Science", "English"},
		}},
		{Line: 4, Student: student.NewStudent{
			FullName: "Bala", BirthCertNumber: "BC2", GradeLevel: "Standard 2", Subjects: []string{"Mathematics", "Science"},
		}},
	}, rows)
}

func TestReadStudents_Errors(t *testing.T) {
	_, err := ReadStudents(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)

	_, err = ReadStudents(workbook(t, []interface{}{"Foo", "Bar"}, []interface{}{"1", "2"}))
	assert.Error(t, err)

	rows, err := ReadStudents(workbook(t))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteMarks(t *testing.T) {
	marks := []grade.StudentMark{
		{FullName: "Ali", BirthCertNumber: "BC1", Mark: null.StringFrom("78")},
		{FullName: "Bala", BirthCertNumber: "BC2", Mark: null.StringFrom("50"), IsAbsent: true},
		{FullName: "Chen", BirthCertNumber: "BC3"},
	}
	buf := new(bytes.Buffer)
	require.NoError(t, WriteMarks(buf, "Standard 1", "Science", marks))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "Standard 1 - Science", f.GetSheetName(0))
	rows, err := f.GetRows("Standard 1 - Science")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"No.", "Full Name", "Birth Cert Number", "Mark", "Absent"},
		{"1", "Ali", "BC1", "78", "No"},
		{"2", "Bala", "BC2", "", "Yes"},
		{"3", "Chen", "BC3", "", "No"},
	}, rows)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Standard 1 - Science", sheetName("Standard 1", "Science"))
	assert.Equal(t, "A B - C", sheetName("A/B", "C"))
	assert.Len(t, []rune(sheetName("Standard 1", "Pendidikan Jasmani dan Kesihatan")), 31)
	assert.Equal(t, "Standard_1_-_Science.xlsx", ExportFilename("Standard 1", "Science"))
}
