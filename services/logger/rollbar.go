package logsvc

import (
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/user"
)

// RollbarLogger prints every entry to std and forwards it to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures the global Rollbar client. Reporting stays off without a token
// and in debug or test mode.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for queued Rollbar items to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// splitUser pulls the first user.User out of args; later ones are dropped.
func splitUser(args []interface{}) (*user.User, []interface{}) {
	var acting *user.User
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		usr, ok := arg.(user.User)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		if acting == nil {
			acting = &usr
		}
	}
	return acting, rest
}

// prepare sets the Rollbar person from args and returns the item's interfaces: msg first,
// then errors and extras maps.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	acting, rest := splitUser(args)
	if acting != nil {
		rollbar.SetPerson(strconv.Itoa(acting.ID), acting.FullName, acting.Email)
	} else {
		rollbar.ClearPerson()
	}
	return append([]interface{}{msg}, rest...)
}

func (l RollbarLogger) log(level string, send func(...interface{}), msg string, args []interface{}) {
	send(l.prepare(msg, args)...)

	acting, rest := splitUser(args)
	l.std.Println(level + ": " + msg)
	if acting != nil {
		l.std.Printf("user: id=%d email=%s role=%s\n", acting.ID, acting.Email, acting.Role)
	}
	for _, arg := range rest {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", rollbar.Debug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log("INFO", rollbar.Info, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log("WARN", rollbar.Warning, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log("ERROR", rollbar.Error, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", rollbar.Critical, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
