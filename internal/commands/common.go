package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/gate"
	"taskmgr/internal/output"
	"taskmgr/internal/service"
	"taskmgr/internal/transport"
)

// errNoConfirmation is returned when stdin ends before a confirmation.
var errNoConfirmation = errors.New("confirmation required (use --yes)")

// usageError is a problem with the command line itself.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// fail prints err (unless a notification already reported it) and maps it
// to an exit code.
func fail(env *Env, err error) int {
	var (
		verr  *service.ValidationError
		usage *usageError
	)
	switch {
	case errors.As(err, &verr):
		output.FormatValidation(env.Err, verr)
		return exitcode.UserError
	case errors.As(err, &usage),
		errors.Is(err, ErrTaskRefRequired),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, errNoConfirmation):
		fmt.Fprintf(env.Err, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, gate.ErrStale):
		fmt.Fprintf(env.Err, "error: %v\n", err)
		return exitcode.BackendError
	}

	if rerr, ok := transport.AsRequestError(err); ok {
		switch {
		case rerr.Unauthorized():
			fmt.Fprintln(env.Err, "error: session rejected by the server (run: taskmgr login)")
			return exitcode.AuthError
		case rerr.StatusCode == http.StatusNotFound:
			return exitcode.UserError
		}
		return exitcode.BackendError
	}

	fmt.Fprintf(env.Err, "error: %v\n", err)
	return exitcode.BackendError
}

// prompt prints label to stderr and reads one line from stdin.
func (e *Env) prompt(label string) (string, error) {
	fmt.Fprint(e.Err, label)
	line, err := e.reader().ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads a line without echo when stdin is a terminal.
func (e *Env) promptSecret(label string) (string, error) {
	if f, ok := e.In.(*os.File); ok && term.IsTerminal(f.Fd()) {
		fmt.Fprint(e.Err, label)
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(e.Err)
		return string(b), err
	}
	return e.prompt(label)
}

// confirmer asks on stdin, or accepts everything when yes is set.
func (e *Env) confirmer(yes bool) gate.Confirmer {
	return gate.ConfirmerFunc(func(p string) (bool, error) {
		if yes {
			return true, nil
		}
		answer, err := e.prompt(p + " [y/N] ")
		if errors.Is(err, io.EOF) {
			return false, errNoConfirmation
		}
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

// info prints an informational line unless --quiet is set.
func (e *Env) info(format string, args ...any) {
	if e.Config.Quiet {
		return
	}
	fmt.Fprintf(e.Out, format+"\n", args...)
}
