package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/session"
)

func init() {
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Forget the stored session" }
func (c *LogoutCmd) Usage() string     { return "taskmgr logout [common flags]" }
func (c *LogoutCmd) NeedsApp() bool    { return true }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string) int {
	if !env.App.LoggedIn() {
		env.info("not logged in")
		return exitcode.Success
	}
	if res := env.App.Auth.Logout(); !res.Success {
		return exitcode.AuthError
	}
	return exitcode.Success
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "taskmgr whoami [common flags]" }
func (c *WhoamiCmd) NeedsApp() bool    { return true }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, env *Env, args []string) int {
	sess := env.App.Session.Current()
	u := sess.UserData

	line := u.Username
	if u.Email != "" {
		line += " <" + u.Email + ">"
	}
	if u.ID != "" {
		line += fmt.Sprintf(" (id %s)", u.ID)
	}
	fmt.Fprintln(env.Out, line)

	claims, ok := session.TokenClaims(sess.Token)
	if !ok || claims.ExpiresAt.IsZero() {
		return exitcode.Success
	}
	exp := claims.ExpiresAt.Local().Format(time.RFC1123)
	if claims.Expired(time.Now()) {
		fmt.Fprintf(env.Out, "session expired at %s (run: taskmgr login)\n", exp)
		return exitcode.AuthError
	}
	fmt.Fprintf(env.Out, "session expires at %s\n", exp)
	return exitcode.Success
}
