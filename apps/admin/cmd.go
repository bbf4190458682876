package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/session"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/user"
	pgstore "github.com/trezcool/gradebook/storage/docstore/postgres"
)

var (
	readPasswordFunc = term.ReadPassword       // mockable
	migrateFunc      = pgstore.RunMigrations // mockable

	errHelp      = errors.New("help provided")
	errLocalOnly = errors.New("only local accounts can be managed from here")
)

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	usrRepo  user.Repository
	students *student.Service
	grades   *grade.Service
	auth     session.Authority
	openDB   func() (*sql.DB, error)

	in  io.Reader
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL                        - create or reactivate a local account")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                             - reset a local account's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]                              - run goose migrations on the postgres store")
	fmt.Fprintln(cli.out, "  importstudents -file PATH                              - import students from an Excel workbook")
	fmt.Fprintln(cli.out, "  exportmarks -grade GRADE -subject SUBJECT [-out PATH]  - export a mark sheet as an Excel workbook")
	fmt.Fprintln(cli.out, "  shell                                                  - enter marks interactively")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse maps -h and parse failures to errHelp; usage has already been printed.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return nil
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "adduser":
		cmd := cli.newFlagSet("adduser")
		name := cmd.String("name", "", "The user's full name.")
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addUser(*name, *email, pwd)

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*email, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "importstudents":
		cmd := cli.newFlagSet("importstudents")
		file := cmd.String("file", "", "Path of the .xlsx workbook; the first row holds the column names.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *file == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.importStudents(*file)

	case "exportmarks":
		cmd := cli.newFlagSet("exportmarks")
		gradeLevel := cmd.String("grade", "", "The grade level.")
		subject := cmd.String("subject", "", "The subject.")
		out := cmd.String("out", "", "Path of the written workbook. Defaults to GRADE_-_SUBJECT.xlsx.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *gradeLevel == "" || *subject == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.exportMarks(*gradeLevel, *subject, *out)

	case "shell":
		return cli.shell()

	default:
		cli.printUsage()
		return errHelp
	}
}

// describe returns a one line description of err; validation errors list their fields.
func (cli *commandLine) describe(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		msg := ""
		for i, fe := range vErrs {
			if i > 0 {
				msg += "; "
			}
			msg += fe.Field() + ": " + fe.Translate(cli.translator)
		}
		return msg
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		msg := ""
		for i, fe := range vErr.Fields {
			if i > 0 {
				msg += "; "
			}
			msg += fe.Field + ": " + fe.Error
		}
		return msg
	}
	return err.Error()
}
