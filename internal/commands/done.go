package commands

import (
	"context"
	"flag"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/gate"
	"taskmgr/internal/service"
)

func init() {
	Register(&StartCmd{})
	Register(&CompleteCmd{})
}

// StartCmd moves a pending task to in progress.
type StartCmd struct {
	lf  listFlags
	yes bool
}

func (c *StartCmd) Name() string      { return "start" }
func (c *StartCmd) Aliases() []string { return nil }
func (c *StartCmd) Synopsis() string  { return "Start work on a pending task" }
func (c *StartCmd) Usage() string     { return "taskmgr start [common flags] [list flags] [--yes] <ref>" }
func (c *StartCmd) NeedsApp() bool    { return true }
func (c *StartCmd) NeedsAuth() bool   { return true }

func (c *StartCmd) RegisterFlags(fs *flag.FlagSet) {
	c.lf.register(fs)
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *StartCmd) Run(ctx context.Context, env *Env, args []string) int {
	return advance(ctx, env, args, &c.lf, c.yes, service.ActionStart)
}

// CompleteCmd moves an in-progress task to completed.
type CompleteCmd struct {
	lf  listFlags
	yes bool
}

func (c *CompleteCmd) Name() string      { return "complete" }
func (c *CompleteCmd) Aliases() []string { return []string{"done"} }
func (c *CompleteCmd) Synopsis() string  { return "Complete an in-progress task" }
func (c *CompleteCmd) Usage() string {
	return "taskmgr complete [common flags] [list flags] [--yes] <ref>"
}
func (c *CompleteCmd) NeedsApp() bool  { return true }
func (c *CompleteCmd) NeedsAuth() bool { return true }

func (c *CompleteCmd) RegisterFlags(fs *flag.FlagSet) {
	c.lf.register(fs)
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *CompleteCmd) Run(ctx context.Context, env *Env, args []string) int {
	return advance(ctx, env, args, &c.lf, c.yes, service.ActionComplete)
}

// advance resolves the referenced task and runs want on it.
func advance(ctx context.Context, env *Env, args []string, lf *listFlags, yes bool, want service.Action) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return fail(env, err)
	}
	task, err := resolveTask(ctx, env, ref, lf)
	if err != nil {
		return fail(env, err)
	}
	if err := advanceTask(ctx, env, task, want, yes); err != nil {
		return fail(env, err)
	}
	return exitcode.Success
}

// advanceTask runs want through the confirmation gate. The task must be
// one step before want.Target.
func advanceTask(ctx context.Context, env *Env, task service.Task, want service.Action, yes bool) error {
	req, err := env.App.Gate.RequestStatusChange(task)
	if err != nil {
		return err
	}
	if req.Target() != want.Target {
		_ = env.App.Gate.Cancel(req)
		return usagef("task %q is %s (next: %s)", task.Title, task.Status, actionName(req.Target()))
	}
	return runGate(ctx, env, req, yes)
}

// runGate asks for confirmation and performs req.
func runGate(ctx context.Context, env *Env, req *gate.Request, yes bool) error {
	ok, err := env.App.Gate.Run(ctx, req, env.confirmer(yes))
	if err != nil {
		return err
	}
	if !ok {
		env.info("cancelled")
	}
	return nil
}

func actionName(target service.Status) string {
	if target == service.ActionStart.Target {
		return service.ActionStart.Name
	}
	return service.ActionComplete.Name
}
