package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/session"
)

const shellHelp = `Commands:
  login EMAIL                 sign in; the password is prompted next
  logout                      sign out
  whoami                      show the session state
  passwd                      change your password
  open GRADE/SUBJECT          load the mark sheet of a grade level and subject, e.g.: open Standard 1/Science
  list                        show the open mark sheet
  reload                      reload the open mark sheet
  mark BCN MARK|absent|-      save the mark of a student; "-" clears it
  help                        show this help
  quit                        leave the shell`

// markShell is an interactive session of one teacher.
// It follows the session states published by its machine: whenever the
// route goes to login, the open sheet is dropped and the login prompt shown.
type markShell struct {
	cli     *commandLine
	session *session.Machine
	route   session.Route
	sheet   *grade.Sheet
}

func newMarkShell(cli *commandLine, machine *session.Machine) *markShell {
	return &markShell{cli: cli, session: machine, route: session.RouteStay}
}

func (cli *commandLine) shell() error {
	return newMarkShell(cli, session.NewMachine(cli.auth, cli.logger)).run()
}

// run reads commands until quit or the end of the input.
func (sh *markShell) run() error {
	updates, cancel := sh.session.Subscribe()
	defer cancel()
	defer sh.session.Logout(context.Background())

	// lines are read on request only, so password prompts own the input meanwhile
	next := make(chan struct{})
	defer close(next)
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(sh.cli.in)
		for range next {
			if !scanner.Scan() {
				scanErr <- scanner.Err()
				return
			}
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	fmt.Fprintln(sh.cli.out, shellHelp)
	for {
		// states published by the last command come first
		sh.drain(updates)
		fmt.Fprint(sh.cli.out, "> ")
		next <- struct{}{}

		var line string
		for waiting := true; waiting; {
			select {
			case st := <-updates:
				fmt.Fprintln(sh.cli.out)
				sh.follow(st)
				fmt.Fprint(sh.cli.out, "> ")
			case l, ok := <-lines:
				if !ok {
					fmt.Fprintln(sh.cli.out)
					return <-scanErr
				}
				line, waiting = l, false
			}
		}
		if quit := sh.exec(context.Background(), line); quit {
			return nil
		}
	}
}

func (sh *markShell) drain(updates <-chan session.State) {
	for {
		select {
		case st := <-updates:
			sh.follow(st)
		default:
			return
		}
	}
}

// follow applies a published session state.
func (sh *markShell) follow(st session.State) {
	route := st.Route()
	if route == session.RouteLogin {
		sh.sheet = nil
		if sh.route != session.RouteLogin {
			sh.printf("login required: use login EMAIL")
		}
	}
	sh.route = route
}

func (sh *markShell) printf(format string, args ...interface{}) {
	fmt.Fprintf(sh.cli.out, format+"\n", args...)
}

// exec runs one command line and reports whether the shell should stop.
func (sh *markShell) exec(ctx context.Context, line string) bool {
	cmd, rest := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		cmd, rest = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch cmd {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		sh.printf(shellHelp)
		return false
	case "login":
		sh.login(ctx, rest)
		return false
	}

	// every other command needs a signed in teacher
	if sh.route == session.RouteLogin {
		sh.printf("not logged in: use login EMAIL")
		return false
	}

	switch cmd {
	case "logout":
		sh.session.Logout(ctx)
		sh.printf("logged out")
	case "whoami":
		st := sh.session.State()
		sh.printf("%s (%s)", st.User.Email, st.Phase)
	case "passwd":
		sh.changePassword(ctx)
	case "open":
		sh.open(ctx, rest)
	case "list":
		if sh.requireSheet() {
			sh.list()
		}
	case "reload":
		if sh.requireSheet() {
			if err := sh.sheet.Reload(ctx); err != nil {
				sh.printf("error: %s", sh.cli.describe(err))
				return false
			}
			sh.list()
		}
	case "mark":
		if sh.requireSheet() {
			sh.mark(ctx, rest)
		}
	default:
		sh.printf("unknown command %q: use help", cmd)
	}
	return false
}

func (sh *markShell) login(ctx context.Context, email string) {
	if email == "" {
		sh.printf("usage: login EMAIL")
		return
	}
	pwd, err := sh.cli.readPassword("Password:")
	if err != nil {
		sh.printf("error: %v", err)
		return
	}

	sh.sheet = nil
	st := sh.session.Login(ctx, email, pwd)
	if st.Phase == session.Failed {
		sh.printf("login failed: %s", st.Error)
		return
	}
	sh.printf("logged in as %s", st.User.Email)
}

func (sh *markShell) changePassword(ctx context.Context) {
	var pc session.PasswordChange
	var err error
	if pc.CurrentPassword, err = sh.cli.readPassword("Current password:"); err != nil {
		sh.printf("error: %v", err)
		return
	}
	if pc.NewPassword, err = sh.cli.readPassword("New password:"); err != nil {
		sh.printf("error: %v", err)
		return
	}
	if pc.PasswordConfirm, err = sh.cli.readPassword("Confirm new password:"); err != nil {
		sh.printf("error: %v", err)
		return
	}

	if err = pc.Validate(sh.cli.validate); err != nil {
		sh.printf("error: %s", sh.cli.describe(err))
		return
	}
	if err = sh.session.ChangePassword(ctx, pc); err != nil {
		sh.printf("error: %s", sh.cli.describe(err))
		return
	}
	sh.printf("password changed")
}

func (sh *markShell) open(ctx context.Context, arg string) {
	parts := strings.SplitN(arg, "/", 2)
	if len(parts) != 2 {
		sh.printf("usage: open GRADE/SUBJECT")
		return
	}
	sheet, err := grade.OpenSheet(ctx, sh.cli.grades, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	if err != nil {
		sh.printf("error: %s", sh.cli.describe(err))
		return
	}
	sh.sheet = sheet
	sh.list()
}

func (sh *markShell) requireSheet() bool {
	if sh.sheet == nil {
		sh.printf("no open sheet: use open GRADE/SUBJECT")
		return false
	}
	return true
}

func (sh *markShell) list() {
	sh.printf("%s - %s", sh.sheet.GradeLevel(), sh.sheet.Subject())
	w := tabwriter.NewWriter(sh.cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "No.\tBirth Cert Number\tFull Name\tMark")
	for i, m := range sh.sheet.Marks() {
		mark := "-"
		switch {
		case m.IsAbsent:
			mark = "absent"
		case m.Mark.Valid:
			mark = m.Mark.String
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, m.BirthCertNumber, m.FullName, mark)
	}
	_ = w.Flush()
}

func (sh *markShell) mark(ctx context.Context, arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		sh.printf("usage: mark BCN MARK|absent|-")
		return
	}
	bcn, value := fields[0], fields[1]

	entry, ok := sh.sheet.Get(bcn)
	if !ok {
		sh.printf("%s is not on this sheet", bcn)
		return
	}

	mu := grade.MarkUpdate{FullName: entry.FullName}
	switch value {
	case "absent":
		mu.IsAbsent = true
	case "-":
	default:
		n, err := strconv.Atoi(value)
		if err != nil {
			sh.printf("invalid mark %q: use a whole number, absent or -", value)
			return
		}
		mu.Mark = null.IntFrom(n)
	}

	if err := sh.sheet.SaveMark(ctx, bcn, mu); err != nil {
		sh.printf("error: %s", sh.cli.describe(err))
		return
	}
	sh.printf("saved")
}
