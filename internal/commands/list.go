package commands

import (
	"context"
	"flag"
	"time"

	"taskmgr/internal/app"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
)

func init() {
	Register(&ListCmd{})
	Register(&ShowCmd{})
}

// ListCmd implements the list command. It is also what runs when no
// command is given.
type ListCmd struct {
	lf listFlags
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskmgr list [common flags] [--page <n>] [--search <text>] [--status <status>]"
}
func (c *ListCmd) NeedsApp() bool  { return true }
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	c.lf.register(fs)
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return fail(env, usagef("unexpected argument: %s (use --search)", args[0]))
	}
	search, status, page, err := c.lf.parse()
	if err != nil {
		return fail(env, err)
	}
	if err := env.App.List.Open(ctx, search, status, page); err != nil {
		return fail(env, err)
	}
	output.FormatTasks(env.Out, currentPage(env.App), time.Now())
	return exitcode.Success
}

// currentPage combines the list state with the stored snapshot.
func currentPage(a *app.App) output.Page {
	st := a.List.State()
	snap := a.Store.Snapshot()
	return output.Page{
		Items:    snap.Items,
		Count:    snap.Count,
		Offset:   st.Offset,
		PageSize: st.PageSize,
		Search:   st.GlobalFilter,
		Status:   st.StatusFilter,
	}
}

// ShowCmd implements the show command.
type ShowCmd struct {
	lf listFlags
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"get"} }
func (c *ShowCmd) Synopsis() string  { return "Show one task" }
func (c *ShowCmd) Usage() string     { return "taskmgr show [common flags] [list flags] <ref>" }
func (c *ShowCmd) NeedsApp() bool    { return true }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	c.lf.register(fs)
}

func (c *ShowCmd) Run(ctx context.Context, env *Env, args []string) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return fail(env, err)
	}
	task, err := resolveTask(ctx, env, ref, &c.lf)
	if err != nil {
		return fail(env, err)
	}
	if ref.ID == "" {
		// Rows carry only the list columns.
		if task, err = env.App.Tasks.GetTaskByID(ctx, task.ID); err != nil {
			return fail(env, err)
		}
	}
	output.FormatTask(env.Out, task, time.Now())
	return exitcode.Success
}
