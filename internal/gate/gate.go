// Package gate puts deletes and status changes behind an explicit
// confirmation step.
//
// A Request starts in PhaseRequested and is resolved exactly once, either
// by Confirm (which performs the action and refreshes the list) or by
// Cancel (which does nothing).
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"taskmgr/internal/service"
)

var (
	// ErrResolved is returned when a request is confirmed or cancelled twice.
	ErrResolved = errors.New("request already resolved")

	// ErrStale wraps a refresh failure after a successful action. The
	// server state changed but the displayed page is out of date.
	ErrStale = errors.New("action applied but the task list could not be refreshed")
)

// Prompts shown before an action runs.
const (
	DeletePrompt = "Are you sure you want to delete this task?"
	StatusPrompt = "Are you sure you want to update status of the task?"
)

// Kind is the action a Request guards.
type Kind int

const (
	KindDelete Kind = iota
	KindStatusChange
)

func (k Kind) String() string {
	if k == KindDelete {
		return "delete"
	}
	return "status change"
}

// Phase is the state of a Request.
type Phase int

const (
	PhaseRequested Phase = iota
	PhaseConfirmed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseConfirmed:
		return "confirmed"
	case PhaseCancelled:
		return "cancelled"
	}
	return "requested"
}

// Request is a pending guarded action.
type Request struct {
	mu     sync.Mutex
	kind   Kind
	task   service.Task
	action service.Action
	phase  Phase
}

// Kind returns the guarded action.
func (r *Request) Kind() Kind { return r.kind }

// Task returns the task the action applies to.
func (r *Request) Task() service.Task { return r.task }

// Target returns the status a status change moves to.
func (r *Request) Target() service.Status { return r.action.Target }

// Phase returns the current phase.
func (r *Request) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Prompt describes the consequence of confirming.
func (r *Request) Prompt() string {
	if r.kind == KindDelete {
		return fmt.Sprintf("%s\n  %q will be removed permanently.", DeletePrompt, r.task.Title)
	}
	return fmt.Sprintf("%s\n  %s: %q moves from %s to %s.",
		StatusPrompt, r.action.Label, r.task.Title, r.task.Status, r.action.Target)
}

// resolve moves the request out of PhaseRequested.
func (r *Request) resolve(to Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseRequested {
		return ErrResolved
	}
	r.phase = to
	return nil
}

// Mutator performs the guarded actions.
type Mutator interface {
	DeleteTask(ctx context.Context, id service.ID) error
	ChangeStatus(ctx context.Context, id service.ID, status service.Status) error
}

// Refresher reloads the task list after a confirmed action.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Confirmer asks the user to accept a prompt.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Gate creates and resolves requests.
type Gate struct {
	mutator Mutator
	refresh Refresher
	log     *zap.Logger
}

// New creates a Gate. A nil Refresher skips the post-action refresh.
func New(m Mutator, r Refresher, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{mutator: m, refresh: r, log: log}
}

// RequestDelete opens a delete request for task.
func (g *Gate) RequestDelete(task service.Task) *Request {
	return &Request{kind: KindDelete, task: task}
}

// RequestStatusChange opens a request for the next forward transition of
// task. A completed task has none and yields service.ErrInvalidTransition.
func (g *Gate) RequestStatusChange(task service.Task) (*Request, error) {
	action, ok := service.NextAction(task.Status)
	if !ok {
		return nil, fmt.Errorf("%w: task %q is %s", service.ErrInvalidTransition, task.Title, task.Status)
	}
	return &Request{kind: KindStatusChange, task: task, action: action}, nil
}

// Confirm performs the request and refreshes the list. The action error,
// if any, is returned as is; a refresh failure is wrapped in ErrStale.
func (g *Gate) Confirm(ctx context.Context, req *Request) error {
	if err := req.resolve(PhaseConfirmed); err != nil {
		return err
	}

	var err error
	switch req.kind {
	case KindDelete:
		err = g.mutator.DeleteTask(ctx, req.task.ID)
	case KindStatusChange:
		if !service.CanTransition(req.task.Status, req.action.Target) {
			return service.ErrInvalidTransition
		}
		err = g.mutator.ChangeStatus(ctx, req.task.ID, req.action.Target)
	}
	if err != nil {
		return err
	}
	g.log.Debug("confirmed action",
		zap.Stringer("kind", req.kind),
		zap.String("id", string(req.task.ID)),
	)

	if g.refresh == nil {
		return nil
	}
	if err := g.refresh.Refresh(ctx); err != nil {
		g.log.Warn("refresh after action failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	return nil
}

// Cancel declines the request. Nothing is sent.
func (g *Gate) Cancel(req *Request) error {
	return req.resolve(PhaseCancelled)
}

// Run asks c and then confirms or cancels req. It reports whether the
// action was accepted.
func (g *Gate) Run(ctx context.Context, req *Request, c Confirmer) (bool, error) {
	ok, err := c.Confirm(req.Prompt())
	if err != nil {
		_ = g.Cancel(req)
		return false, err
	}
	if !ok {
		return false, g.Cancel(req)
	}
	return true, g.Confirm(ctx, req)
}
