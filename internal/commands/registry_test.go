package commands_test

import (
	"bytes"
	"context"
	"flag"
	"io"
	"strings"
	"testing"

	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
)

type stubCmd struct {
	name    string
	aliases []string
}

func (c *stubCmd) Name() string                   { return c.name }
func (c *stubCmd) Aliases() []string              { return c.aliases }
func (c *stubCmd) Synopsis() string               { return "" }
func (c *stubCmd) Usage() string                  { return "" }
func (c *stubCmd) NeedsApp() bool                 { return false }
func (c *stubCmd) NeedsAuth() bool                { return false }
func (c *stubCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *stubCmd) Run(ctx context.Context, env *commands.Env, args []string) int {
	return exitcode.Success
}

func TestRegistry(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&stubCmd{name: "list", aliases: []string{"ls"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&stubCmd{name: "add"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cmd, ok := r.Find("ls"); !ok || cmd.Name() != "list" {
		t.Errorf("alias lookup failed: %v %v", cmd, ok)
	}
	if _, ok := r.Find("rm"); ok {
		t.Error("expected rm to be unknown")
	}

	all := r.All()
	if len(all) != 2 || all[0].Name() != "add" || all[1].Name() != "list" {
		t.Errorf("expected add, list once each, got %d commands", len(all))
	}
}

func TestRegistry_Duplicates(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&stubCmd{name: "list", aliases: []string{"ls"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Register(&stubCmd{name: "ls"})
	if err == nil || err.Error() != "command name already registered: ls" {
		t.Errorf("unexpected error %v", err)
	}
	if err := r.Register(&stubCmd{name: "show", aliases: []string{"list"}}); err == nil {
		t.Error("expected alias clash to fail")
	}
	if _, ok := r.Find("show"); ok {
		t.Error("failed registration must not be partially applied")
	}
}

func TestHelpCommand_ForOneCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	env := &commands.Env{Config: &config.Config{}, Out: &out, Err: &errOut}

	code := (&commands.HelpCmd{}).Run(context.Background(), env, []string{"done"})

	expectCode(t, exitcode.Success, code, errOut.String())
	want := "Usage: taskmgr complete [common flags] [list flags] [--yes] <ref>\n\n  Complete an in-progress task\n  Also: done\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestHelpCommand_UnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	env := &commands.Env{Config: &config.Config{}, Out: io.Discard, Err: &errOut}

	code := (&commands.HelpCmd{}).Run(context.Background(), env, []string{"frobnicate"})

	expectCode(t, exitcode.UserError, code, errOut.String())
	if !strings.Contains(errOut.String(), "unknown command: frobnicate") {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
}
