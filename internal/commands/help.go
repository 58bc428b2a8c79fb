package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmgr/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskmgr help [<command>]" }
func (c *HelpCmd) NeedsApp() bool    { return false }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string) int {
	switch len(args) {
	case 0:
		writeHelp(env.Out, DefaultRegistry)
		return exitcode.Success
	case 1:
		cmd, ok := DefaultRegistry.Find(args[0])
		if !ok {
			return fail(env, usagef("unknown command: %s", args[0]))
		}
		fmt.Fprintf(env.Out, "Usage: %s\n\n  %s\n", cmd.Usage(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(env.Out, "  Also: %s\n", strings.Join(aliases, ", "))
		}
		return exitcode.Success
	}
	return fail(env, usagef("too many arguments"))
}

// writeHelp prints the command table from r followed by the shared notes.
func writeHelp(w io.Writer, r *Registry) {
	fmt.Fprint(w, "Usage:\n  taskmgr <command> [flags] [args]\n  taskmgr                  Same as taskmgr list\n\nCommands:\n")
	for _, cmd := range r.All() {
		line := fmt.Sprintf("  %-9s %s", cmd.Name(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (also " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprint(w, helpNotes)
}

const helpNotes = `
Run taskmgr help <command> for its flags.

References:
  3                The third row of the page chosen by the list flags
  #42              The task whose server id is 42

List flags:
  --page <n>       Page number, starting at 1
  --search <text>  Match title or description (alias -s)
  --status <s>     pending, in-progress or completed

Dates:
  YYYY-MM-DD (end of that day), RFC 3339, today or tomorrow

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
