package logsvc

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/session"
)

// RollbarLogger prints to a standard logger and reports to Rollbar.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is one log call: the first error becomes the Rollbar item, maps are merged
// into its extras, the first session.Principal is its person and anything else is
// kept as formatted "args".
type entry struct {
	msg    string
	err    error
	extras map[string]interface{}
	person *rollbar.Person
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, extras: make(map[string]interface{})}
	var rest []string
	for _, arg := range args {
		switch v := arg.(type) {
		case session.Principal:
			if e.person == nil {
				e.person = &rollbar.Person{Id: v.UID, Username: v.Email, Email: v.Email}
			}
		case error:
			if e.err == nil {
				e.err = v
				continue
			}
			rest = append(rest, fmt.Sprintf("%v", v))
		case map[string]interface{}:
			for k, val := range v {
				e.extras[k] = val
			}
		default:
			rest = append(rest, fmt.Sprintf("%+v", v))
		}
	}
	if len(rest) > 0 {
		e.extras["args"] = rest
	}
	if e.err != nil {
		// the item is titled by the error
		e.extras["message"] = msg
	}
	return e
}

// rollbarArgs carries the person in a context, so concurrent calls never share it.
func (e entry) rollbarArgs() []interface{} {
	ctx := context.Background()
	if e.person != nil {
		ctx = rollbar.NewPersonContext(ctx, e.person)
	}
	args := []interface{}{ctx, e.msg, e.extras}
	if e.err != nil {
		args = append(args, e.err)
	}
	return args
}

func (e entry) lines(level string) []string {
	out := []string{fmt.Sprintf("%s: %s", strings.ToUpper(level), e.msg)}
	if e.err != nil {
		out = append(out, fmt.Sprintf("%+v", e.err))
	}
	if e.person != nil {
		out = append(out, "user: "+e.person.Email)
	}
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		if k != "message" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %+v", k, e.extras[k]))
	}
	return out
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	e := newEntry(msg, args)
	rollbar.Log(level, e.rollbarArgs()...)
	for _, line := range e.lines(level) {
		l.std.Println(line)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
