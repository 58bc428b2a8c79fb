package commands

import (
	"context"
	"errors"
	"flag"
	"time"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct{}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in to the task server" }
func (c *LoginCmd) Usage() string     { return "taskmgr login [common flags] [<username>]" }
func (c *LoginCmd) NeedsApp() bool    { return true }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string) int {
	if cur := env.App.Session.Current(); cur.LoggedIn {
		// An expired JWT may be replaced without logging out first.
		if claims, ok := session.TokenClaims(cur.Token); !ok || !claims.Expired(time.Now()) {
			env.info("already logged in as %s (run: taskmgr logout)", cur.UserData.Username)
			return exitcode.Success
		}
	}
	if len(args) > 1 {
		return fail(env, usagef("too many arguments"))
	}

	var username string
	if len(args) == 1 {
		username = args[0]
	} else {
		u, err := env.prompt("Username or email: ")
		if err != nil {
			return fail(env, usagef("username required"))
		}
		username = u
	}
	password, err := env.promptSecret("Password: ")
	if err != nil {
		return fail(env, usagef("password required"))
	}

	res := env.App.Auth.Login(ctx, username, password)
	if res.Success {
		return exitcode.Success
	}
	var verr *service.ValidationError
	if errors.As(res.Err, &verr) {
		return fail(env, verr)
	}
	return exitcode.AuthError
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	email    string
	username string
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string {
	return "taskmgr signup [common flags] [--email <email>] [--username <name>]"
}
func (c *SignupCmd) NeedsApp() bool  { return true }
func (c *SignupCmd) NeedsAuth() bool { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return fail(env, usagef("unexpected argument: %s", args[0]))
	}

	reg := service.Registration{Email: c.email, Username: c.username}
	var err error
	if reg.Email == "" {
		if reg.Email, err = env.prompt("Email: "); err != nil {
			return fail(env, usagef("email required"))
		}
	}
	if reg.Username == "" {
		if reg.Username, err = env.prompt("Username: "); err != nil {
			return fail(env, usagef("username required"))
		}
	}
	if reg.Password, err = env.promptSecret("Password: "); err != nil {
		return fail(env, usagef("password required"))
	}
	confirm, err := env.promptSecret("Confirm password: ")
	if err != nil {
		return fail(env, usagef("password confirmation required"))
	}

	res := env.App.Auth.Signup(ctx, reg, confirm)
	if res.Success {
		env.info("run: taskmgr login %s", reg.Username)
		return exitcode.Success
	}
	var verr *service.ValidationError
	if errors.As(res.Err, &verr) {
		return fail(env, verr)
	}
	return exitcode.BackendError
}
