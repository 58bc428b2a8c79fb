// Package auth implements login, signup and logout on top of the session
// store. Failures never escape as errors: every call returns a Result.
package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"taskmgr/internal/notify"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/transport"
)

// Fallback failure messages.
const (
	MsgLoginFailed  = "Login failed"
	MsgSignupFailed = "Signup failed"
	MsgLoggedOut    = "Logged out"
)

// ErrRejected is the cause recorded when the server answers without error
// but with a falsy success flag.
var ErrRejected = errors.New("server rejected the request")

// Result is the outcome of an auth operation.
type Result struct {
	Success bool
	Message string

	// Session is set after a successful login.
	Session *session.Session

	// Err is the underlying cause of a failure: a *service.ValidationError,
	// a *transport.RequestError or ErrRejected.
	Err error
}

// Workflow runs auth operations.
type Workflow struct {
	backend service.Authenticator
	store   *session.Store
	notify  notify.Notifier
	log     *zap.Logger
}

// New creates a Workflow. A nil logger is replaced by a no-op logger.
func New(backend service.Authenticator, store *session.Store, n notify.Notifier, log *zap.Logger) *Workflow {
	if n == nil {
		n = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{backend: backend, store: store, notify: n, log: log}
}

// Session returns the current session.
func (w *Workflow) Session() session.Session {
	return w.store.Current()
}

// Login posts credentials and, on success, replaces the stored session.
func (w *Workflow) Login(ctx context.Context, username, password string) Result {
	cred := service.Credentials{Username: username, Password: password}
	if err := service.ValidateCredentials(cred); err != nil {
		return Result{Message: err.Error(), Err: err}
	}

	resp, err := w.backend.Login(ctx, cred)
	if err != nil {
		return w.fail(MsgLoginFailed, err)
	}
	if !resp.Success || resp.Token == "" {
		return w.fail(MsgLoginFailed, rejected(resp.Message))
	}

	sess := session.Session{
		LoggedIn: true,
		Token:    resp.Token,
		Message:  resp.Message,
		UserData: session.User{ID: resp.ID, Email: resp.Email, Username: resp.Username},
	}
	if err := w.store.Set(sess); err != nil {
		w.log.Error("storing session failed", zap.Error(err))
		return w.fail(MsgLoginFailed, err)
	}

	w.log.Debug("logged in", zap.String("username", resp.Username))
	w.notify.Success(successMessage(resp.Message, "Login successful"))
	return Result{Success: true, Message: resp.Message, Session: &sess}
}

// Signup validates the form and registers an account. It does not log in.
func (w *Workflow) Signup(ctx context.Context, reg service.Registration, confirm string) Result {
	if err := service.ValidateRegistration(reg, confirm); err != nil {
		return Result{Message: err.Error(), Err: err}
	}

	resp, err := w.backend.Signup(ctx, reg)
	if err != nil {
		return w.fail(MsgSignupFailed, err)
	}
	if !resp.Success {
		return w.fail(MsgSignupFailed, rejected(resp.Message))
	}

	w.notify.Success(successMessage(resp.Message, "Signup successful"))
	return Result{Success: true, Message: resp.Message}
}

// Logout resets the session to logged out and removes the persisted copy.
func (w *Workflow) Logout() Result {
	if err := w.store.Clear(); err != nil {
		w.log.Error("clearing session failed", zap.Error(err))
		w.notify.Failure("Logout failed", err)
		return Result{Message: err.Error(), Err: err}
	}
	w.notify.Success(MsgLoggedOut)
	return Result{Success: true, Message: MsgLoggedOut}
}

func (w *Workflow) fail(fallback string, err error) Result {
	msg := fallback
	var rej *rejectedError
	if rerr, ok := transport.AsRequestError(err); ok && rerr.Message != "" {
		msg = rerr.Message
	} else if errors.As(err, &rej) {
		msg = rej.msg
	}
	w.log.Debug("auth failed", zap.String("message", msg), zap.Error(err))
	w.notify.Failure(fallback, errors.New(msg))
	return Result{Message: msg, Err: err}
}

// rejectedError carries the server message of a falsy success response.
type rejectedError struct {
	msg string
}

func (e *rejectedError) Error() string { return e.msg }
func (e *rejectedError) Is(target error) bool {
	return target == ErrRejected
}

func rejected(msg string) error {
	if msg == "" {
		return ErrRejected
	}
	return &rejectedError{msg: msg}
}

func successMessage(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
