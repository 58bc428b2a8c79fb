// Package commands provides the command interface and implementations.
package commands

import (
	"bufio"
	"context"
	"flag"
	"io"

	"taskmgr/internal/app"
	"taskmgr/internal/config"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsApp returns true if the command talks to the API or the
	// session. Help and version return false and never open the session.
	NeedsApp() bool

	// NeedsAuth returns true if the command requires a logged-in session.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command with positional args and returns the exit code.
	Run(ctx context.Context, env *Env, args []string) int
}

// Env is what a command runs against.
type Env struct {
	// Config is always set.
	Config *config.Config

	// App is nil when NeedsApp returns false.
	App *app.App

	In  io.Reader
	Out io.Writer
	Err io.Writer

	lines *bufio.Reader
}

// reader returns a line reader over In shared by every prompt of one run.
func (e *Env) reader() *bufio.Reader {
	if e.lines == nil {
		in := e.In
		if in == nil {
			in = eofReader{}
		}
		e.lines = bufio.NewReader(in)
	}
	return e.lines
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
