package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/user"
	authsvc "github.com/trezcool/gradebook/services/auth"
	emailsvc "github.com/trezcool/gradebook/services/email"
	sheetsvc "github.com/trezcool/gradebook/services/sheets"
	"github.com/trezcool/gradebook/storage/docrepos"
	"github.com/trezcool/gradebook/storage/docstore/inmem"
	"github.com/trezcool/gradebook/tests"
)

var (
	usrRepo  user.Repository
	stRepo   student.Repository
	markRepo grade.Repository
)

func setup(t *testing.T, input ...string) (*commandLine, *bytes.Buffer) {
	conf := testutil.NewConfig()
	validate, translator := testutil.NewValidator()
	logger := testutil.NopLogger{}

	// set up store & repos
	store := inmem.NewStore()
	usrRepo = docrepos.NewUserRepository(store)
	stRepo = docrepos.NewStudentRepository(store)
	markRepo = docrepos.NewMarkRepository(store)

	// set up services
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf, logger), conf)
	students := student.NewService(stRepo)

	var out bytes.Buffer
	return &commandLine{
		conf:       conf,
		logger:     logger,
		validate:   validate,
		translator: translator,
		usrRepo:    usrRepo,
		students:   students,
		grades:     grade.NewService(students, markRepo),
		auth:       authsvc.NewLocalAuthority(usrSvc),
		openDB:     func() (*sql.DB, error) { return sql.Open("postgres", "postgres://localhost/gradebook_test?sslmode=disable") },
		in:         strings.NewReader(strings.Join(input, "\n")),
		out:        &out,
	}, &out
}

// mockPasswords makes readPasswordFunc return pwds in turn, then empty passwords.
func mockPasswords(t *testing.T, pwds ...string) {
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })
	readPasswordFunc = func(int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPasswords(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				require.NoError(t, err)
				if check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
	}, nil)
	assert.Contains(t, out.String(), "importstudents -file PATH")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	orig := migrateFunc
	t.Cleanup(func() { migrateFunc = orig })
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_indexes", "sql"}},
	}, nil)

	t.Run("not a postgres store", func(t *testing.T) {
		cli.openDB = func() (*sql.DB, error) { return openDB(cli.conf) }
		err := cli.run([]string{"admin", "migrate", "up"})
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "migrations only apply to the postgres store")
		}
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, usrRepo, "Cikgu Ahmad", "ahmad@school.my", "lama1234", false)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Siti", "-email", "siti@school.my"}, wantErr: errHelp},
		{name: "invalid email", args: []string{"adduser", "-name", "Siti", "-email", "lol"}, pwd: "rahsia123", wantErrStr: "email: email must be a valid email address"},
		{name: "short password", args: []string{"adduser", "-name", "Siti", "-email", "siti@school.my"}, pwd: "abc", wantErrStr: "password: password must contain at least 6 characters"},
		{name: "new user without name", args: []string{"adduser", "-email", "siti@school.my"}, pwd: "rahsia123", wantErrStr: "name: this field is required"},
		{name: "create", args: []string{"adduser", "-name", "Cikgu Siti", "-email", " Siti@School.my "}, pwd: "rahsia123"},
		{name: "reactivate", args: []string{"adduser", "-email", "ahmad@school.my"}, pwd: "baru12345"},
	}, nil)

	t.Run("created", func(t *testing.T) {
		usr, err := usrRepo.GetUserByEmail(ctx, "siti@school.my")
		require.NoError(t, err)
		assert.Equal(t, "Cikgu Siti", usr.Name)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("rahsia123"))
	})

	t.Run("reactivated", func(t *testing.T) {
		usr, err := usrRepo.GetUserByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cikgu Ahmad", usr.Name)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("baru12345"))
	})

	t.Run("firebase accounts", func(t *testing.T) {
		cli.conf.Auth.Provider = core.AuthFirebase
		defer func() { cli.conf.Auth.Provider = core.AuthLocal }()
		mockPasswords(t, "rahsia123")
		err := cli.run([]string{"admin", "adduser", "-name", "Siti", "-email", "siti@school.my"})
		assert.ErrorIs(t, err, errLocalOnly)
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Cikgu Siti", "siti@school.my", "rahsia123", true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@school.my"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@school.my"}, pwd: "baru12345", wantErr: user.ErrNotFound},
		{name: "short password", args: []string{"resetpassword", "-email", usr.Email}, pwd: "abc", wantErrStr: "password must contain at least 6 characters"},
		{name: "reset", args: []string{"resetpassword", "-email", "SITI@school.my"}, pwd: "baru12345"},
	}, func(t *testing.T, tt cliTest) {
		refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "failed to update new password")
		assert.NoError(t, refreshed.CheckPassword(tt.pwd))
	})
}

func writeRoster(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]interface{}, 0, len(sheetsvc.RosterHeader))
	for _, h := range sheetsvc.RosterHeader {
		header = append(header, h)
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func Test_commandLine_importStudents(t *testing.T) {
	cli, out := setup(t)
	roster := writeRoster(t,
		[]interface{}{"Ali bin Abu", "BC001", "", "Standard 1", "Male", "", "", "2024", "Science, Mathematics"},
		[]interface{}{"Bala a/l Muthu", "", "", "Standard 1", "", "", "", "", "English"},
		[]interface{}{"Chen Mei Ling", "BC003", "", "Standard 1", "", "", "", "", "Science"},
	)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"importstudents"}, wantErr: errHelp},
		{name: "missing file", args: []string{"importstudents", "-file", filepath.Join(t.TempDir(), "lol.xlsx")}, wantErr: os.ErrNotExist},
		{name: "import", args: []string{"importstudents", "-file", roster}},
	}, nil)

	assert.Contains(t, out.String(), "line 3: birth_cert_number: this field is required")
	assert.Contains(t, out.String(), "2 students created, 1 lines skipped")

	got, err := stRepo.QueryStudents(context.Background(), student.QueryFilter{GradeLevel: "Standard 1", Subject: "Science"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BC001", got[0].BirthCertNumber)
	assert.Equal(t, []string{"Science", "Mathematics"}, got[0].Subjects)
	assert.Equal(t, "BC003", got[1].BirthCertNumber)
}

func Test_commandLine_exportMarks(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()
	testutil.CreateStudent(t, stRepo, "Ali bin Abu", "BC001", "Standard 1", "Science")
	require.NoError(t, cli.grades.SaveMark(ctx, "Standard 1", "Science", "BC001", grade.MarkUpdate{FullName: "Ali bin Abu", Mark: null.IntFrom(77)}))

	path := filepath.Join(t.TempDir(), "marks.xlsx")
	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"exportmarks", "-grade", "Standard 1"}, wantErr: errHelp},
		{name: "export", args: []string{"exportmarks", "-grade", "Standard 1", "-subject", "Science", "-out", path}},
	}, nil)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Standard 1 - Science")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"No.", "Full Name", "Birth Cert Number", "Mark", "Absent"},
		{"1", "Ali bin Abu", "BC001", "77", "No"},
	}, rows)
}
