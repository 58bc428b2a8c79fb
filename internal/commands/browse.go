package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/service"
)

func init() {
	Register(&BrowseCmd{})
}

// BrowseCmd is an interactive list view. Each line read from stdin is one
// command; the page is printed again after every change.
type BrowseCmd struct {
	lf  listFlags
	yes bool
}

func (c *BrowseCmd) Name() string      { return "browse" }
func (c *BrowseCmd) Aliases() []string { return []string{"ui"} }
func (c *BrowseCmd) Synopsis() string  { return "Page, filter and act on tasks interactively" }
func (c *BrowseCmd) Usage() string     { return "taskmgr browse [common flags] [list flags] [--yes]" }
func (c *BrowseCmd) NeedsApp() bool    { return true }
func (c *BrowseCmd) NeedsAuth() bool   { return true }

func (c *BrowseCmd) RegisterFlags(fs *flag.FlagSet) {
	c.lf.register(fs)
	fs.BoolVar(&c.yes, "yes", false, "")
}

const browseHelp = `  /text        type a search (a bare / clears it)
  <enter>      submit the typed search
  s <status>   filter by status (s all clears it)
  n, p         next and previous page
  g <n>        go to page n
  c            clear search and status filter
  r            reload the page
  show <n>     show row n
  start <n>    start row n
  done <n>     complete row n
  rm <n>       delete row n
  q            quit
`

func (c *BrowseCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return fail(env, usagef("unexpected argument: %s", args[0]))
	}
	search, status, page, err := c.lf.parse()
	if err != nil {
		return fail(env, err)
	}
	if err := env.App.List.Open(ctx, search, status, page); err != nil {
		return fail(env, err)
	}
	c.draw(env)

	for {
		line, err := env.prompt("> ")
		if errors.Is(err, io.EOF) {
			return exitcode.Success
		}
		if err != nil {
			return fail(env, err)
		}
		if ctx.Err() != nil {
			return exitcode.Success
		}

		quit, redraw, err := c.exec(ctx, env, strings.TrimSpace(line))
		if err != nil {
			if code := fail(env, err); code == exitcode.AuthError {
				return code
			}
		}
		if quit {
			return exitcode.Success
		}
		if redraw {
			c.draw(env)
		}
	}
}

func (c *BrowseCmd) draw(env *Env) {
	output.FormatTasks(env.Out, currentPage(env.App), time.Now())
}

// exec runs one browse line and reports whether to stop and whether the
// page changed.
func (c *BrowseCmd) exec(ctx context.Context, env *Env, line string) (quit, redraw bool, err error) {
	list := env.App.List

	if text, ok := strings.CutPrefix(line, "/"); ok {
		return false, text == "", list.SetSearchText(ctx, text)
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "":
		return false, true, list.SubmitSearch(ctx)
	case "q", "quit", "exit":
		return true, false, nil
	case "?", "h", "help":
		fmt.Fprint(env.Out, browseHelp)
		return false, false, nil
	case "n", "next":
		return false, true, list.NextPage(ctx)
	case "p", "prev":
		return false, true, list.PrevPage(ctx)
	case "g", "page":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return false, false, usagef("invalid page number: %s", arg)
		}
		if pages := list.PageCount(); n > pages {
			return false, false, usagef("page %d of %d", n, pages)
		}
		return false, true, list.SetPage(ctx, n)
	case "s", "status":
		st, err := service.ParseStatus(arg)
		if err != nil {
			return false, false, usagef("%v", err)
		}
		return false, true, list.SetStatusFilter(ctx, st)
	case "c", "clear":
		return false, true, list.ClearFilters(ctx)
	case "r", "reload":
		return false, true, list.Refresh(ctx)
	case "show":
		task, err := c.row(env, arg)
		if err != nil {
			return false, false, err
		}
		if task, err = env.App.Tasks.GetTaskByID(ctx, task.ID); err != nil {
			return false, false, err
		}
		output.FormatTask(env.Out, task, time.Now())
		return false, false, nil
	case "start", "done", "complete":
		task, err := c.row(env, arg)
		if err != nil {
			return false, false, err
		}
		want := service.ActionComplete
		if verb == "start" {
			want = service.ActionStart
		}
		return false, true, advanceTask(ctx, env, task, want, c.yes)
	case "rm", "delete":
		task, err := c.row(env, arg)
		if err != nil {
			return false, false, err
		}
		return false, true, runGate(ctx, env, env.App.Gate.RequestDelete(task), c.yes)
	}
	return false, false, usagef("unknown input: %s (? for help)", line)
}

// row returns the task on the current page at the 1-based row arg.
func (c *BrowseCmd) row(env *Env, arg string) (service.Task, error) {
	ref, err := ParseTaskRef([]string{arg})
	if err != nil {
		return service.Task{}, err
	}
	if ref.ID != "" {
		return service.Task{}, usagef("use a row number here")
	}
	items := env.App.Store.Tasks()
	if ref.Row > len(items) {
		return service.Task{}, usagef("task number out of range: %d", ref.Row)
	}
	return items[ref.Row-1], nil
}

