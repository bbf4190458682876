package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	sheetsvc "github.com/trezcool/gradebook/services/sheets"
)

func (cli *commandLine) importStudents(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	rows, err := sheetsvc.ReadStudents(f)
	if err != nil {
		return err
	}
	report, err := cli.students.Import(context.Background(), cli.validate, rows)
	if err != nil {
		return errors.Wrapf(err, "importing (%d students created)", len(report.Created))
	}

	for _, ie := range report.Errors {
		fmt.Fprintf(cli.out, "line %d: %s\n", ie.Line, cli.describe(ie.Err))
	}
	fmt.Fprintf(cli.out, "%d students created, %d lines skipped\n", len(report.Created), len(report.Errors))
	return nil
}

func (cli *commandLine) exportMarks(gradeLevel, subject, path string) (err error) {
	marks, err := cli.grades.LoadRoster(context.Background(), gradeLevel, subject)
	if err != nil {
		return err
	}
	if path == "" {
		path = sheetsvc.ExportFilename(gradeLevel, subject)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err = sheetsvc.WriteMarks(f, gradeLevel, subject, marks); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d students written to %s\n", len(marks), path)
	return nil
}
