package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
)

// RollbarLogger reports to Rollbar and mirrors every entry on a std logger.
// Profiles passed as args become the Rollbar person, with their tenant in the extras.
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
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// rollbarArgs sorts logger args into rollbar's fmt: msg, error | other, one extras map.
// Only the first profile is kept.
func rollbarArgs(msg string, args []interface{}) ([]interface{}, *user.User) {
	var (
		usr    *user.User
		extras map[string]interface{}
	)
	custom := make([]map[string]interface{}, 0)
	newArgs := make([]interface{}, 0, len(args)+2)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if usr == nil {
				usr = &a
			}
		case *user.User:
			if usr == nil && a != nil {
				usr = a
			}
		case map[string]interface{}:
			// rollbar keeps a single extras map
			custom = append(custom, a)
		default:
			newArgs = append(newArgs, arg)
		}
	}

	if usr != nil {
		extras = tenantExtras(*usr)
	}
	for _, c := range custom {
		if extras == nil {
			extras = make(map[string]interface{}, len(c))
		}
		for k, v := range c {
			extras[k] = v
		}
	}
	if len(extras) > 0 {
		newArgs = append(newArgs, extras)
	}
	return newArgs, usr
}

func tenantExtras(usr user.User) map[string]interface{} {
	extras := make(map[string]interface{}, 4)
	for k, v := range map[string]string{
		"role":        usr.Role,
		"tenant_type": usr.TenantType,
		"tenant_id":   usr.TenantID,
		"school_id":   usr.SchoolID,
	} {
		if v != "" {
			extras[k] = v
		}
	}
	return extras
}

func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	newArgs, usr := rollbarArgs(msg, args)
	if usr != nil {
		username := usr.Username
		if username == "" {
			username = usr.DisplayName
		}
		rollbar.SetPerson(usr.UID, username, usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			l.printUser(a)
		case *user.User:
			if a != nil {
				l.printUser(*a)
			}
		default:
			l.std.Printf("%+v\n", arg)
		}
	}
}

// never dumps the whole profile: it holds the password hash
func (l RollbarLogger) printUser(usr user.User) {
	l.std.Printf("user=%s role=%s tenant=%s school=%s\n", usr.UID, usr.Role, usr.TenantType, usr.SchoolID)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print(msg, args)
	l.std.Fatal(msg)
}
