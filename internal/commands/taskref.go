package commands

import (
	"context"
	"errors"
	"flag"
	"strconv"
	"strings"
	"unicode"

	"taskmgr/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Row int        // 1-based row on a list page, 0 when ID is set
	ID  service.ID // server id given as #<id>
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// "3" is the third row of the list page selected by the list flags, the
// same numbering the list command prints. "#42" is the task whose server
// id is 42.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, usagef("expected one task reference, got %d", len(args))
	}

	arg := args[0]
	if id, ok := strings.CutPrefix(arg, "#"); ok {
		if strings.TrimSpace(id) == "" {
			return TaskRef{}, usagef("invalid task reference: %s", arg)
		}
		return TaskRef{ID: service.ID(id)}, nil
	}

	if !isAllDigits(arg) {
		return TaskRef{}, usagef("invalid task reference: %s", arg)
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return TaskRef{}, usagef("task number out of range: %s", arg)
	}
	return TaskRef{Row: n}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// listFlags selects a list page: shared by list and every command that
// takes a row number.
type listFlags struct {
	page   int
	search string
	status string
}

func (f *listFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.page, "page", 1, "")
	fs.StringVar(&f.search, "search", "", "")
	fs.StringVar(&f.search, "s", "", "")
	fs.StringVar(&f.status, "status", "", "")
}

func (f *listFlags) parse() (search string, status service.Status, page int, err error) {
	if f.page < 1 {
		return "", "", 0, usagef("invalid page number: %d", f.page)
	}
	status, err = service.ParseStatus(f.status)
	if err != nil {
		return "", "", 0, usagef("%v", err)
	}
	return strings.TrimSpace(f.search), status, f.page, nil
}

// resolveTask finds the task ref points at. Row references load the page
// selected by lf; id references fetch the task directly.
func resolveTask(ctx context.Context, env *Env, ref TaskRef, lf *listFlags) (service.Task, error) {
	if ref.ID != "" {
		return env.App.Tasks.GetTaskByID(ctx, ref.ID)
	}

	search, status, page, err := lf.parse()
	if err != nil {
		return service.Task{}, err
	}
	if err := env.App.List.Open(ctx, search, status, page); err != nil {
		return service.Task{}, err
	}
	items := env.App.Store.Tasks()
	if ref.Row > len(items) {
		return service.Task{}, usagef("task number out of range: %d", ref.Row)
	}
	return items[ref.Row-1], nil
}
