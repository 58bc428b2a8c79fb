package commands

import (
	"context"
	"flag"
	"strings"
	"time"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&EditCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	desc   string
	due    string
	status string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskmgr add [common flags] --due <date> [--desc <text>] [--status <status>] <title...>"
}
func (c *AddCmd) NeedsApp() bool  { return true }
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.desc, "d", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.status, "status", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string) int {
	now := time.Now()
	draft := service.NewDraft(now)
	draft.Title = strings.Join(args, " ")
	draft.Description = c.desc

	if c.due != "" {
		due, err := parseDue(c.due, now)
		if err != nil {
			return fail(env, err)
		}
		draft.DueDate = due
	}
	if c.status != "" {
		st, err := service.ParseStatus(c.status)
		if err != nil || st == "" {
			return fail(env, usagef("invalid status: %s", c.status))
		}
		draft.Status = st
	}

	created, err := env.App.Tasks.AddTask(ctx, draft)
	if err != nil {
		return fail(env, err)
	}
	env.info("#%s", created.ID)
	return exitcode.Success
}

// EditCmd implements the edit command. Only the given flags are sent.
type EditCmd struct {
	lf     listFlags
	title  optString
	desc   optString
	due    optString
	status optString
	yes    bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change task fields" }
func (c *EditCmd) Usage() string {
	return "taskmgr edit [common flags] [list flags] [--title <t>] [--desc <d>] [--due <date>] [--set-status <status> [--yes]] <ref>"
}
func (c *EditCmd) NeedsApp() bool  { return true }
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.desc, c.due, c.status = optString{}, optString{}, optString{}, optString{}
	c.yes = false
	c.lf.register(fs)
	fs.Var(&c.title, "title", "")
	fs.Var(&c.desc, "desc", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.status, "set-status", "")
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return fail(env, err)
	}
	task, err := resolveTask(ctx, env, ref, &c.lf)
	if err != nil {
		return fail(env, err)
	}
	if ref.ID == "" {
		if task, err = env.App.Tasks.GetTaskByID(ctx, task.ID); err != nil {
			return fail(env, err)
		}
	}

	var upd service.TaskUpdate
	if c.title.set {
		upd.Title = &c.title.value
	}
	if c.desc.set {
		upd.Description = &c.desc.value
	}
	if c.due.set {
		due, err := parseDue(c.due.value, time.Now())
		if err != nil {
			return fail(env, err)
		}
		upd.DueDate = &due
	}
	// A status change goes through the confirmation gate after the other
	// fields are saved.
	var changeStatus bool
	if c.status.set {
		st, err := service.ParseStatus(c.status.value)
		if err != nil || st == "" {
			return fail(env, usagef("invalid status: %s", c.status.value))
		}
		switch {
		case st == task.Status:
			upd.Status = &st
		case service.CanTransition(task.Status, st):
			changeStatus = true
		default:
			return fail(env, usagef("cannot move %q from %s to %s", task.Title, task.Status, st))
		}
	}

	if !changeStatus || upd != (service.TaskUpdate{}) {
		if _, err := env.App.Tasks.UpdateTask(ctx, task.ID, upd); err != nil {
			return fail(env, err)
		}
		if upd.Title != nil {
			task.Title = *upd.Title
		}
	}
	if changeStatus {
		req, err := env.App.Gate.RequestStatusChange(task)
		if err != nil {
			return fail(env, err)
		}
		if err := runGate(ctx, env, req, c.yes); err != nil {
			return fail(env, err)
		}
	}
	return exitcode.Success
}

// optString is a string flag that records whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

// parseDue accepts YYYY-MM-DD (end of that local day), RFC 3339,
// "today" or "tomorrow".
func parseDue(s string, now time.Time) (service.Date, error) {
	endOfDay := func(t time.Time) service.Date {
		y, m, d := t.Date()
		return service.NewDate(time.Date(y, m, d, 23, 59, 59, 0, now.Location()))
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return endOfDay(now), nil
	case "tomorrow":
		return endOfDay(now.AddDate(0, 0, 1)), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return endOfDay(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return service.NewDate(t), nil
	}
	return service.Date{}, usagef("invalid due date: %s (use YYYY-MM-DD)", s)
}
