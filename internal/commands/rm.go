package commands

import (
	"context"
	"flag"

	"taskmgr/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	lf  listFlags
	yes bool
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskmgr rm [common flags] [list flags] [--yes] <ref>" }
func (c *RmCmd) NeedsApp() bool    { return true }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	c.lf.register(fs)
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return fail(env, err)
	}
	task, err := resolveTask(ctx, env, ref, &c.lf)
	if err != nil {
		return fail(env, err)
	}

	if err := runGate(ctx, env, env.App.Gate.RequestDelete(task), c.yes); err != nil {
		return fail(env, err)
	}
	return exitcode.Success
}
